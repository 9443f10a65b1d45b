package service

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"FrameForge-server/config"
)

var (
	maleVoices   = []string{"es-ES-AlvaroNeural", "es-MX-JorgeNeural", "es-AR-TomasNeural"}
	femaleVoices = []string{"es-ES-ElviraNeural", "es-MX-DaliaNeural", "es-AR-ElenaNeural"}
)

const (
	speechAttempts       = 5
	speechAttemptTimeout = 300 * time.Second
	speechBackoffBase    = 3 * time.Second
)

// Synthesizer renders text to speech into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, voice, textPath, outPath string) error
}

// EdgeTTS shells out to the edge-tts CLI.
type EdgeTTS struct {
	Bin string
}

func NewEdgeTTS() *EdgeTTS { return &EdgeTTS{Bin: "edge-tts"} }

func (e *EdgeTTS) Synthesize(ctx context.Context, voice, textPath, outPath string) error {
	cmd := exec.CommandContext(ctx, e.Bin,
		"--voice", voice,
		"--file", textPath,
		"--write-media", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, tailString(stderr.String(), stderrTailLimit))
	}
	return nil
}

// DurationProber reports a media file's length.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// NarrationCleaner strips dead air from a synthesized narration track.
type NarrationCleaner interface {
	TrimSilence(ctx context.Context, inPath, outPath string) error
}

// SpeechUnit narrates the translated story. Synthesis is retried across the
// voice pool with exponential backoff, since the TTS service throttles
// individual voices.
type SpeechUnit struct {
	Synth  Synthesizer
	Prober DurationProber
	Meta   *MetaStore
	Root   string

	// Cleaner post-processes the raw track into audio/clean. When nil the
	// raw synthesis is used as-is.
	Cleaner NarrationCleaner

	// Sleep is swappable in tests.
	Sleep func(time.Duration)
}

func NewSpeechUnit(synth Synthesizer, prober DurationProber, meta *MetaStore, root string) *SpeechUnit {
	return &SpeechUnit{
		Synth:  synth,
		Prober: prober,
		Meta:   meta,
		Root:   root,
		Sleep:  time.Sleep,
	}
}

func voicePool(gender string) []string {
	if strings.EqualFold(gender, "female") {
		return femaleVoices
	}
	return maleVoices
}

func (u *SpeechUnit) Run(ctx context.Context, projectID string) error {
	dir := filepath.Join(u.Root, projectID)
	// Prefer the translation; narrate the raw story when it is absent.
	textPath := filepath.Join(dir, "text", "story_translated.txt")
	if _, err := os.Stat(textPath); err != nil {
		textPath = filepath.Join(dir, "text", "story.txt")
		if _, err := os.Stat(textPath); err != nil {
			return fmt.Errorf("speech: no story text to narrate: %w", err)
		}
	}

	meta, err := u.Meta.Load(projectID)
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	pool := voicePool(GetString(meta, "narrator_gender", "male"))
	if v := GetString(meta, "voice", ""); v != "" {
		// An explicitly chosen voice leads the rotation but keeps the pool
		// as fallback.
		pool = append([]string{v}, pool...)
	}

	rawPath := filepath.Join(dir, "audio", "source", "full_audio.mp3")
	cleanPath := filepath.Join(dir, "audio", "clean", "full_audio.mp3")
	for _, p := range []string{rawPath, cleanPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("speech: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < speechAttempts; attempt++ {
		voice := pool[attempt%len(pool)]
		attemptCtx, cancel := context.WithTimeout(ctx, speechAttemptTimeout)
		err := u.Synth.Synthesize(attemptCtx, voice, textPath, rawPath)
		cancel()
		if err == nil {
			if st, serr := os.Stat(rawPath); serr == nil && st.Size() > 0 {
				return u.finish(ctx, projectID, voice, rawPath, cleanPath)
			}
			err = fmt.Errorf("synthesis produced an empty file")
		}
		lastErr = err
		config.Log.WithError(err).WithFields(map[string]interface{}{
			"project": projectID,
			"voice":   voice,
			"attempt": attempt + 1,
		}).Warn("speech synthesis attempt failed")

		if ctx.Err() != nil {
			return fmt.Errorf("speech: %w", ctx.Err())
		}
		if attempt < speechAttempts-1 {
			backoff := speechBackoffBase << attempt
			// The package-level source is locked, so concurrent worker runs
			// can draw jitter from it safely.
			jitter := time.Duration(rand.Float64() * float64(2*time.Second))
			u.Sleep(backoff + jitter)
		}
	}
	return fmt.Errorf("speech: all %d attempts failed: %w", speechAttempts, lastErr)
}

func (u *SpeechUnit) finish(ctx context.Context, projectID, voice, rawPath, cleanPath string) error {
	if u.Cleaner != nil {
		if err := u.Cleaner.TrimSilence(ctx, rawPath, cleanPath); err != nil {
			return fmt.Errorf("speech: %w", err)
		}
	} else if err := copyFileContents(rawPath, cleanPath); err != nil {
		return fmt.Errorf("speech: %w", err)
	}

	dur, err := u.Prober.ProbeDuration(ctx, cleanPath)
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	if _, err := u.Meta.Update(projectID, map[string]interface{}{
		"voice":    voice,
		"duration": formatClock(dur),
	}); err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	return nil
}

// formatClock renders seconds as MM:SS, minutes unbounded.
func formatClock(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
