package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Translator produces the Spanish rendition of a story.
type Translator interface {
	ChatCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error)
}

const translateSystemPrompt = `You are a professional literary translator. Translate the given short story into natural, fluent Latin American Spanish suitable for voice narration. Preserve the story's tone and pacing. Also determine the narrator's gender from the story's first-person voice (use "male" if ambiguous) and translate the title. Respond with a JSON object: {"title_es": string, "narrator_gender": "male" or "female", "translation_es": string}.`

type translationResult struct {
	TitleES        string `json:"title_es"`
	NarratorGender string `json:"narrator_gender"`
	TranslationES  string `json:"translation_es"`
}

// TranslateUnit turns text/story.txt into text/story_translated.txt and
// records the detected narrator gender and translated title in the
// project's metadata.
type TranslateUnit struct {
	Client Translator
	Meta   *MetaStore
	Root   string
}

func (u *TranslateUnit) Run(ctx context.Context, projectID string) error {
	dir := filepath.Join(u.Root, projectID)
	story, err := os.ReadFile(filepath.Join(dir, "text", "story.txt"))
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	if strings.TrimSpace(string(story)) == "" {
		return fmt.Errorf("translate: story text is empty")
	}

	meta, err := u.Meta.Load(projectID)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	title := GetString(meta, "title", "")
	user := fmt.Sprintf("Title: %s\n\n%s", title, string(story))

	raw, err := u.Client.ChatCompletion(ctx, translateSystemPrompt, user, true)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}

	var result translationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fmt.Errorf("translate: decode model output: %w", err)
	}
	if strings.TrimSpace(result.TranslationES) == "" {
		return fmt.Errorf("translate: model returned an empty translation")
	}
	gender := strings.ToLower(strings.TrimSpace(result.NarratorGender))
	if gender != "female" {
		gender = "male"
	}

	outPath := filepath.Join(dir, "text", "story_translated.txt")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(result.TranslationES), 0o644); err != nil {
		return fmt.Errorf("translate: write %s: %w", outPath, err)
	}

	if _, err := u.Meta.Update(projectID, map[string]interface{}{
		"narrator_gender": gender,
		"title_es":        strings.TrimSpace(result.TitleES),
	}); err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	return nil
}
