package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamsDefaults(t *testing.T) {
	u := &MasteringUnit{}
	p, err := u.parseParams(map[string]interface{}{})
	require.NoError(t, err)

	assert.Equal(t, "mp4", p.Preset.Name)
	assert.Equal(t, "category", p.BgMode)
	assert.Equal(t, 60.0, p.SegLen, "segment length defaults to one minute")
	assert.True(t, p.Random)
	assert.Empty(t, p.Xfade)
	assert.Equal(t, "none", p.Intro.Mode)
	assert.Equal(t, "none", p.Outro.Mode)
}

func TestParseParamsFull(t *testing.T) {
	u := &MasteringUnit{}
	p, err := u.parseParams(map[string]interface{}{
		"output_format":      "4k_horizontal",
		"background_mode":    "single",
		"background_video":   "rain.mp4",
		"segment_length":     2.0,
		"selection_strategy": "sequential",
		"transition_type":    "dissolve",
		"background_audio":   "ambience.mp3",
		"intro": map[string]interface{}{
			"mode": "video", "video": "logo.mp4",
			"text": "Hoy: {{title_es}}", "voice": "same",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3840, p.Preset.Width)
	assert.Equal(t, "single", p.BgMode)
	assert.Equal(t, 120.0, p.SegLen)
	assert.False(t, p.Random)
	assert.Equal(t, "fade", p.Xfade)
	assert.Equal(t, "video", p.Intro.Mode)
	assert.Equal(t, 3.0, p.Intro.Duration, "endcap duration defaults to three seconds")
	require.Len(t, p.AudioBeds, 1)
	assert.Equal(t, 0.15, p.AudioBeds[0].Volume)
}

func TestParseParamsRejectsUnknowns(t *testing.T) {
	u := &MasteringUnit{}
	_, err := u.parseParams(map[string]interface{}{"output_format": "vhs"})
	assert.Error(t, err)
	_, err = u.parseParams(map[string]interface{}{"transition_type": "wipe"})
	assert.Error(t, err)
}

func TestResolvePlaceholders(t *testing.T) {
	meta := map[string]interface{}{"title_es": "La Casa", "duration": "05:12"}

	out := resolvePlaceholders("Hoy: {{title_es}} ({{ duration }})", meta)
	assert.Equal(t, "Hoy: La Casa (05:12)", out)

	assert.Equal(t, "{{missing}}", resolvePlaceholders("{{missing}}", meta),
		"unknown placeholders are left visible rather than silently blanked")
}

func TestCandidatePoolFolderFallback(t *testing.T) {
	assetRoot := t.TempDir()
	catDir := filepath.Join(assetRoot, "gameplay")
	require.NoError(t, os.MkdirAll(catDir, 0o755))
	for _, name := range []string{"b.mp4", "a.mp4", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(catDir, name), []byte("x"), 0o644))
	}

	u := &MasteringUnit{AssetRoot: assetRoot}
	pool, err := u.candidatePool("gameplay")
	require.NoError(t, err)
	require.Len(t, pool, 2, "non-video files are ignored")
	assert.True(t, strings.HasSuffix(pool[0], "a.mp4"), "folder scan is alphabetical")
}

func TestCandidatePoolMissingCategory(t *testing.T) {
	u := &MasteringUnit{AssetRoot: t.TempDir()}
	_, err := u.candidatePool("nope")
	assert.Error(t, err, "an empty pool fails closed before any rendering")
}

func TestCandidatePoolRootScanWithoutCategory(t *testing.T) {
	assetRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assetRoot, "clip.mp4"), []byte("x"), 0o644))

	u := &MasteringUnit{AssetRoot: assetRoot}
	pool, err := u.candidatePool("")
	require.NoError(t, err)
	assert.Len(t, pool, 1)
}

func TestBuildOverlayArgs(t *testing.T) {
	args := buildOverlayArgs("bg.mp4", "overlay.png", 3, 1080, 1920, "intro.mp4")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-stream_loop -1")
	assert.Contains(t, joined, "-t 3")
	assert.Contains(t, joined, "overlay=0:0")
}

type fileSynth struct{}

func (fileSynth) Synthesize(_ context.Context, _, _, outPath string) error {
	return os.WriteFile(outPath, []byte("vo"), 0o644)
}

func stubTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestBuildEndcapWithVoiceOverRendersOneClip(t *testing.T) {
	binDir := t.TempDir()
	callLog := filepath.Join(binDir, "calls.log")
	ffmpeg := stubTool(t, binDir, "ffmpeg", `echo "$@" >> `+callLog)
	ffprobe := stubTool(t, binDir, "ffprobe", "echo 4.0")

	assetRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assetRoot, "logo.mp4"), []byte("x"), 0o644))

	partsDir := t.TempDir()
	u := &MasteringUnit{
		FFmpeg:    &FFmpeg{FFmpegBin: ffmpeg, FFprobeBin: ffprobe},
		Synth:     fileSynth{},
		AssetRoot: assetRoot,
	}
	cfg := endcapConfig{Mode: "video", Duration: 3, Text: "Bienvenidos", Video: "logo.mp4"}
	p := masteringParams{Preset: FormatPreset{Name: "mp4", Width: 1080, Height: 1920}}

	path, dur, err := u.buildEndcap(context.Background(), map[string]interface{}{}, cfg, p, partsDir, "intro")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(partsDir, "intro_video.mp4"), path)
	assert.InDelta(t, 4.0, dur, 0.001, "voice-over longer than the configured duration stretches the endcap")

	// One render for the video part only. The voice-over stays a bare mp3
	// for the audio bed to pick up.
	raw, err := os.ReadFile(callLog)
	require.NoError(t, err)
	calls := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "intro_video.mp4")
	assert.FileExists(t, filepath.Join(partsDir, "intro_vo.mp3"))
}

func TestShiftSRTFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.srt")
	out := filepath.Join(dir, "out.srt")
	require.NoError(t, os.WriteFile(in, []byte(sampleSRT), 0o644))

	require.NoError(t, shiftSRTFile(in, out, 2.5))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cues, err := ParseSRT(f)
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.InDelta(t, 2.5, cues[0].Start, 0.001)
	assert.InDelta(t, 5.0, cues[0].End, 0.001)
}
