package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Transcriber turns narration audio into raw SRT text.
type Transcriber interface {
	TranscribeSRT(ctx context.Context, audioPath, language string) (string, error)
}

// SubtitleUnit transcribes the narration and post-processes the captions
// according to the project's caption_mode: "line" re-wraps into short
// two-line captions, "word" explodes into one caption per word.
type SubtitleUnit struct {
	Client Transcriber
	Meta   *MetaStore
	Root   string
}

func (u *SubtitleUnit) Run(ctx context.Context, projectID string) error {
	dir := filepath.Join(u.Root, projectID)
	audioPath := filepath.Join(dir, "audio", "clean", "full_audio.mp3")
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("subtitles: narration missing: %w", err)
	}

	raw, err := u.Client.TranscribeSRT(ctx, audioPath, "es")
	if err != nil {
		return fmt.Errorf("subtitles: %w", err)
	}
	cues, err := ParseSRT(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("subtitles: parse transcript: %w", err)
	}
	if len(cues) == 0 {
		return fmt.Errorf("subtitles: transcript produced no captions")
	}

	meta, err := u.Meta.Load(projectID)
	if err != nil {
		return fmt.Errorf("subtitles: %w", err)
	}
	switch mode := GetString(meta, "caption_mode", "line"); mode {
	case "word":
		cues = ExplodeWordCaptions(cues, wordModeMinWord)
	case "line":
		cues = RewrapLineCaptions(cues, lineModeMaxChars, lineModeMaxLines, lineModeMinCaption)
	default:
		return fmt.Errorf("subtitles: unknown caption_mode %q", mode)
	}

	outPath := filepath.Join(dir, "subtitles.srt")
	if err := os.WriteFile(outPath, []byte(FormatSRT(cues)), 0o644); err != nil {
		return fmt.Errorf("subtitles: write %s: %w", outPath, err)
	}
	return nil
}
