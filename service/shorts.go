package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// PlanShortStarts spreads count clip starts of length seconds evenly across
// a video of total seconds, snapping each ideal cursor to the first
// subtitle start at or after it so clips open on a caption boundary.
// Starts are clamped so every clip fits inside the video.
func PlanShortStarts(total, length float64, count int, subtitleStarts []float64) ([]float64, error) {
	if count <= 0 {
		return nil, fmt.Errorf("plan shorts: count must be positive")
	}
	if length <= 0 || length > total {
		return nil, fmt.Errorf("plan shorts: clip length %.2fs does not fit a %.2fs video", length, total)
	}

	stride := total / float64(count)
	starts := make([]float64, count)
	for i := 0; i < count; i++ {
		cursor := float64(i) * stride
		start := cursor
		for _, s := range subtitleStarts {
			if s >= cursor {
				start = s
				break
			}
		}
		if start+length > total {
			start = total - length
		}
		if start < 0 {
			start = 0
		}
		starts[i] = start
	}
	return starts, nil
}

// ShortsExtractor cuts vertical clips out of a project's finished video.
type ShortsExtractor struct {
	FFmpeg *FFmpeg
	Meta   *MetaStore
	Root   string
}

// Extract produces count clips of length seconds under video/shorts/ and
// returns their relative paths.
func (x *ShortsExtractor) Extract(ctx context.Context, projectID string, count int, length float64) ([]string, error) {
	dir := filepath.Join(x.Root, projectID)
	finalPath := filepath.Join(dir, "video", "final.mp4")
	if _, err := os.Stat(finalPath); err != nil {
		return nil, fmt.Errorf("shorts: final video missing: %w", err)
	}

	total, err := x.FFmpeg.ProbeDuration(ctx, finalPath)
	if err != nil {
		return nil, fmt.Errorf("shorts: %w", err)
	}

	var subtitleStarts []float64
	if f, err := os.Open(filepath.Join(dir, "subtitles.srt")); err == nil {
		cues, perr := ParseSRT(f)
		f.Close()
		if perr == nil {
			for _, c := range cues {
				subtitleStarts = append(subtitleStarts, c.Start)
			}
		}
	}

	starts, err := PlanShortStarts(total, length, count, subtitleStarts)
	if err != nil {
		return nil, fmt.Errorf("shorts: %w", err)
	}

	outDir := filepath.Join(dir, "video", "shorts")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("shorts: %w", err)
	}

	preset := formatPresets["mp4"]
	var rel []string
	for i, start := range starts {
		out := filepath.Join(outDir, fmt.Sprintf("short_%02d.mp4", i+1))
		if err := x.FFmpeg.Run(ctx, buildClipExtractArgs(finalPath, start, length, preset.Width, preset.Height, out)); err != nil {
			return nil, fmt.Errorf("shorts: clip %d: %w", i+1, err)
		}
		rel = append(rel, filepath.Join("video", "shorts", filepath.Base(out)))
	}

	if _, err := x.Meta.Update(projectID, map[string]interface{}{"shorts": rel}); err != nil {
		return nil, fmt.Errorf("shorts: %w", err)
	}
	return rel, nil
}
