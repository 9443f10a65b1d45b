package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImageGenerator renders a prompt into an image file.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, outPath string) error
}

const sceneSystemPrompt = `You design thumbnail art direction for narrated horror and drama stories. Given a story, describe one striking visual scene from it in 2-3 sentences: concrete subjects, setting, lighting and mood. No text overlays, no letters, no captions. Answer with the scene description only.`

const thumbnailPromptTemplate = `Cinematic digital illustration, dramatic lighting, high detail, vertical composition suitable for a video thumbnail. Scene: %s`

// ThumbnailUnit creates thumbnail.png in two phases: the chat model distills
// the story into a scene description, then the image model renders it.
type ThumbnailUnit struct {
	Chat   Translator
	Images ImageGenerator
	Meta   *MetaStore
	Root   string
}

func (u *ThumbnailUnit) Run(ctx context.Context, projectID string) error {
	dir := filepath.Join(u.Root, projectID)
	story, err := os.ReadFile(filepath.Join(dir, "text", "story_translated.txt"))
	if err != nil {
		// The original English text serves when the translation is absent.
		story, err = os.ReadFile(filepath.Join(dir, "text", "story.txt"))
		if err != nil {
			return fmt.Errorf("thumbnail: no story text: %w", err)
		}
	}

	excerpt := string(story)
	if len(excerpt) > 6000 {
		excerpt = excerpt[:6000]
	}
	scene, err := u.Chat.ChatCompletion(ctx, sceneSystemPrompt, excerpt, false)
	if err != nil {
		return fmt.Errorf("thumbnail: scene description: %w", err)
	}
	scene = strings.TrimSpace(scene)
	if scene == "" {
		return fmt.Errorf("thumbnail: model returned an empty scene description")
	}

	outPath := filepath.Join(dir, "thumbnail.png")
	if err := u.Images.GenerateImage(ctx, fmt.Sprintf(thumbnailPromptTemplate, scene), outPath); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}

	if _, err := u.Meta.Update(projectID, map[string]interface{}{
		"thumbnail":       "thumbnail.png",
		"thumbnail_scene": scene,
	}); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	return nil
}
