package service

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"FrameForge-server/config"
)

// FormatPreset is one of the fixed output resolutions.
type FormatPreset struct {
	Name   string
	Width  int
	Height int
}

var formatPresets = map[string]FormatPreset{
	"mp4":            {Name: "mp4", Width: 1080, Height: 1920},
	"4k_vertical":    {Name: "4k_vertical", Width: 2160, Height: 3840},
	"mp4_horizontal": {Name: "mp4_horizontal", Width: 1920, Height: 1080},
	"4k_horizontal":  {Name: "4k_horizontal", Width: 3840, Height: 2160},
}

func resolvePreset(name string) (FormatPreset, error) {
	if name == "" {
		name = "mp4"
	}
	p, ok := formatPresets[name]
	if !ok {
		return FormatPreset{}, fmt.Errorf("unknown output format %q", name)
	}
	return p, nil
}

// resolveTransition maps the configured style to an xfade transition name.
// Empty string means hard cut.
func resolveTransition(style string) (string, error) {
	switch style {
	case "", "cut":
		return "", nil
	case "dissolve":
		return "fade", nil
	case "blur_fade":
		return "fadeblack", nil
	default:
		return "", fmt.Errorf("unknown transition type %q", style)
	}
}

// AssetCatalog resolves background clip pools.
type AssetCatalog interface {
	VideoPathsByCategory(category string) ([]string, error)
}

// endcapConfig describes one intro or outro segment.
type endcapConfig struct {
	Mode     string // none, video, compose
	Duration float64
	Text     string
	Voice    string
	Video    string // clip path for video mode
}

type masteringParams struct {
	Preset    FormatPreset
	BgMode    string // single or category
	BgVideo   string
	Category  string
	SegLen    float64 // seconds
	Random    bool
	Xfade     string // empty for cut
	Intro     endcapConfig
	Outro     endcapConfig
	AudioBeds []bgAudioConfig
}

type bgAudioConfig struct {
	Path   string
	Volume float64
}

// MasteringUnit assembles the final video: background track, optional intro
// and outro, time-shifted burned subtitles, mixed audio bed and the final
// mux.
type MasteringUnit struct {
	FFmpeg    *FFmpeg
	Meta      *MetaStore
	Assets    AssetCatalog
	Synth     Synthesizer
	Templates TemplateRenderer
	Root      string
	AssetRoot string
}

func NewMasteringUnit(ff *FFmpeg, meta *MetaStore, assets AssetCatalog, synth Synthesizer, templates TemplateRenderer, root, assetRoot string) *MasteringUnit {
	return &MasteringUnit{
		FFmpeg:    ff,
		Meta:      meta,
		Assets:    assets,
		Synth:     synth,
		Templates: templates,
		Root:      root,
		AssetRoot: assetRoot,
	}
}

func (u *MasteringUnit) Run(ctx context.Context, projectID string) error {
	dir := filepath.Join(u.Root, projectID)
	narration := filepath.Join(dir, "audio", "clean", "full_audio.mp3")
	srtPath := filepath.Join(dir, "subtitles.srt")

	if _, err := os.Stat(narration); err != nil {
		return fmt.Errorf("mastering: narration missing: %w", err)
	}
	if _, err := os.Stat(srtPath); err != nil {
		return fmt.Errorf("mastering: subtitles missing: %w", err)
	}

	meta, err := u.Meta.Load(projectID)
	if err != nil {
		return fmt.Errorf("mastering: %w", err)
	}
	params, err := u.parseParams(meta)
	if err != nil {
		return fmt.Errorf("mastering: %w", err)
	}

	mainDur, err := u.FFmpeg.ProbeDuration(ctx, narration)
	if err != nil {
		return fmt.Errorf("mastering: %w", err)
	}

	partsDir := filepath.Join(dir, "video", "parts")
	if err := os.MkdirAll(partsDir, 0o755); err != nil {
		return fmt.Errorf("mastering: %w", err)
	}

	// Step 1: background track for exactly the narration duration.
	background := filepath.Join(partsDir, "background.mp4")
	if err := u.buildBackground(ctx, params, mainDur, partsDir, background); err != nil {
		return fmt.Errorf("mastering: background: %w", err)
	}
	// The planned segments compensate for crossfade overlap, so the rendered
	// track should match the narration; the probed value is what the
	// sequence xfade offsets must be computed against.
	bgDur, err := u.FFmpeg.ProbeDuration(ctx, background)
	if err != nil {
		return fmt.Errorf("mastering: %w", err)
	}

	// Step 2: intro and outro endcaps.
	intro, introDur, err := u.buildEndcap(ctx, meta, params.Intro, params, partsDir, "intro")
	if err != nil {
		return fmt.Errorf("mastering: intro: %w", err)
	}
	outro, outroDur, err := u.buildEndcap(ctx, meta, params.Outro, params, partsDir, "outro")
	if err != nil {
		return fmt.Errorf("mastering: outro: %w", err)
	}

	// Step 3: sequence assembly.
	sequence := []string{}
	durations := []float64{}
	if intro != "" {
		sequence = append(sequence, intro)
		durations = append(durations, introDur)
	}
	sequence = append(sequence, background)
	durations = append(durations, bgDur)
	if outro != "" {
		sequence = append(sequence, outro)
		durations = append(durations, outroDur)
	}

	assembled := filepath.Join(partsDir, "assembled.mp4")
	crossfaded := false
	if len(sequence) == 1 {
		assembled = sequence[0]
	} else if params.Xfade != "" {
		err := u.FFmpeg.Run(ctx, buildXfadeArgs(sequence, durations, params.Xfade, transitionSeconds, assembled))
		if err != nil {
			config.Log.WithError(err).WithField("project", projectID).Warn("sequence crossfade failed, falling back to hard cut")
			if err := u.concatParts(ctx, sequence, partsDir, "sequence.txt", assembled); err != nil {
				return fmt.Errorf("mastering: assemble: %w", err)
			}
		} else {
			crossfaded = true
		}
	} else {
		if err := u.concatParts(ctx, sequence, partsDir, "sequence.txt", assembled); err != nil {
			return fmt.Errorf("mastering: assemble: %w", err)
		}
	}

	// Step 4: subtitle shift and burn.
	offset := 0.0
	if intro != "" {
		offset = introDur
		if crossfaded {
			offset -= transitionSeconds
		}
		if offset < 0 {
			offset = 0
		}
	}
	burnSrt := srtPath
	if offset > 0 {
		burnSrt = filepath.Join(partsDir, "subtitles_shifted.srt")
		if err := shiftSRTFile(srtPath, burnSrt, offset); err != nil {
			return fmt.Errorf("mastering: %w", err)
		}
	}
	subtitled := filepath.Join(partsDir, "subtitled.mp4")
	if err := u.FFmpeg.Run(ctx, buildBurnSubtitlesArgs(assembled, burnSrt, "Arial", 16, subtitled)); err != nil {
		return fmt.Errorf("mastering: burn subtitles: %w", err)
	}

	// Step 5: audio bed.
	totalDur := offset + mainDur
	if outro != "" {
		totalDur += outroDur
		if crossfaded {
			totalDur -= transitionSeconds
		}
	}
	audioBed := filepath.Join(partsDir, "audio_bed.m4a")
	if err := u.buildAudioBed(ctx, narration, intro, outro, partsDir, params, offset, mainDur, crossfaded, totalDur, audioBed); err != nil {
		return fmt.Errorf("mastering: audio bed: %w", err)
	}

	// Step 6: final mux.
	finalPath := filepath.Join(dir, "video", "final.mp4")
	if err := u.FFmpeg.Run(ctx, buildMuxArgs(subtitled, audioBed, finalPath)); err != nil {
		return fmt.Errorf("mastering: mux: %w", err)
	}
	finalDur, err := u.FFmpeg.ProbeDuration(ctx, finalPath)
	if err != nil {
		return fmt.Errorf("mastering: %w", err)
	}
	if _, err := u.Meta.Update(projectID, map[string]interface{}{
		"final_video":    "video/final.mp4",
		"final_duration": finalDur,
	}); err != nil {
		return fmt.Errorf("mastering: %w", err)
	}
	return nil
}

func (u *MasteringUnit) parseParams(meta map[string]interface{}) (masteringParams, error) {
	preset, err := resolvePreset(GetString(meta, "output_format", "mp4"))
	if err != nil {
		return masteringParams{}, err
	}
	xfade, err := resolveTransition(GetString(meta, "transition_type", "cut"))
	if err != nil {
		return masteringParams{}, err
	}

	segMinutes := GetFloat(meta, "segment_length", 1)
	if segMinutes <= 0 {
		segMinutes = 1
	}

	p := masteringParams{
		Preset:   preset,
		BgMode:   GetString(meta, "background_mode", "category"),
		BgVideo:  GetString(meta, "background_video", ""),
		Category: GetString(meta, "asset_category", ""),
		SegLen:   segMinutes * 60,
		Random:   GetString(meta, "selection_strategy", "random") == "random",
		Xfade:    xfade,
		Intro:    parseEndcap(meta, "intro"),
		Outro:    parseEndcap(meta, "outro"),
	}
	if bed := GetString(meta, "background_audio", ""); bed != "" {
		vol := GetFloat(meta, "background_audio_volume", 0.15)
		p.AudioBeds = append(p.AudioBeds, bgAudioConfig{Path: bed, Volume: vol})
	}
	return p, nil
}

func parseEndcap(meta map[string]interface{}, key string) endcapConfig {
	raw, ok := meta[key].(map[string]interface{})
	if !ok {
		return endcapConfig{Mode: "none"}
	}
	cfg := endcapConfig{
		Mode:     GetString(raw, "mode", "none"),
		Duration: GetFloat(raw, "duration", 3),
		Text:     GetString(raw, "text", ""),
		Voice:    GetString(raw, "voice", ""),
		Video:    GetString(raw, "video", ""),
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 3
	}
	return cfg
}

// buildBackground renders the looped or segmented background track.
func (u *MasteringUnit) buildBackground(ctx context.Context, p masteringParams, total float64, partsDir, output string) error {
	w, h := p.Preset.Width, p.Preset.Height

	if p.BgMode == "single" && p.BgVideo != "" {
		clip := u.resolveAssetPath(p.BgVideo)
		if _, err := os.Stat(clip); err == nil {
			return u.FFmpeg.Run(ctx, buildLoopTrimArgs(clip, 0, total, w, h, output))
		}
		config.Log.WithField("clip", p.BgVideo).Warn("single background clip missing, falling back to pool")
	}

	pool, err := u.candidatePool(p.Category)
	if err != nil {
		return err
	}
	segs, err := PlanSegments(total, p.SegLen, p.Xfade != "", transitionSeconds)
	if err != nil {
		return err
	}
	// Each render owns its randomness; the unit is shared across concurrent
	// worker tasks.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	picker, err := newClipPicker(pool, p.Random, rng)
	if err != nil {
		return err
	}

	parts := make([]string, len(segs))
	durs := make([]float64, len(segs))
	for i, seg := range segs {
		clip := picker.Next()
		clipDur, err := u.FFmpeg.ProbeDuration(ctx, clip)
		if err != nil {
			return err
		}
		part := filepath.Join(partsDir, fmt.Sprintf("bg_%03d.mp4", i))
		var args []string
		if clipDur > seg.Duration {
			start := pickStartOffset(clipDur, seg.Duration, p.Random, rng)
			args = buildSegmentArgs(clip, start, seg.Duration, w, h, part)
		} else {
			args = buildLoopTrimArgs(clip, 0, seg.Duration, w, h, part)
		}
		if err := u.FFmpeg.Run(ctx, args); err != nil {
			return err
		}
		parts[i] = part
		durs[i] = seg.Duration
	}

	if len(parts) == 1 {
		return os.Rename(parts[0], output)
	}
	if p.Xfade != "" {
		if err := u.FFmpeg.Run(ctx, buildXfadeArgs(parts, durs, p.Xfade, transitionSeconds, output)); err == nil {
			return nil
		}
		config.Log.Warn("background crossfade failed, falling back to hard cut")
	}
	return u.concatParts(ctx, parts, partsDir, "background.txt", output)
}

// candidatePool resolves background clips: category query first, then a
// physical folder named after the category, then the whole asset root only
// when no category was requested.
func (u *MasteringUnit) candidatePool(category string) ([]string, error) {
	if category != "" {
		if u.Assets != nil {
			paths, err := u.Assets.VideoPathsByCategory(category)
			if err != nil {
				config.Log.WithError(err).WithField("category", category).Warn("asset catalog query failed")
			} else if len(paths) > 0 {
				abs := make([]string, len(paths))
				for i, p := range paths {
					abs[i] = u.resolveAssetPath(p)
				}
				return abs, nil
			}
		}
		if pool := scanVideoDir(filepath.Join(u.AssetRoot, category)); len(pool) > 0 {
			return pool, nil
		}
		return nil, fmt.Errorf("no background clips found for category %q", category)
	}
	if pool := scanVideoDir(u.AssetRoot); len(pool) > 0 {
		return pool, nil
	}
	return nil, fmt.Errorf("no background clips found under %s", u.AssetRoot)
}

func scanVideoDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp4", ".mov", ".mkv", ".webm", ".avi":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out
}

func (u *MasteringUnit) resolveAssetPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(u.AssetRoot, p)
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// resolvePlaceholders substitutes {{key}} markers with metadata values.
func resolvePlaceholders(text string, meta map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := meta[key]; ok {
			return fmt.Sprintf("%v", v)
		}
		return m
	})
}

// buildEndcap renders one intro or outro segment. Returns the rendered path
// and its duration, or "" when the endcap is disabled.
func (u *MasteringUnit) buildEndcap(ctx context.Context, meta map[string]interface{}, cfg endcapConfig, p masteringParams, partsDir, name string) (string, float64, error) {
	if cfg.Mode == "" || cfg.Mode == "none" {
		return "", 0, nil
	}

	duration := cfg.Duration
	voPath := ""
	if cfg.Text != "" {
		text := resolvePlaceholders(cfg.Text, meta)
		voice := cfg.Voice
		if voice == "" || voice == "same" {
			voice = GetString(meta, "voice", maleVoices[0])
		}
		textFile := filepath.Join(partsDir, name+"_vo.txt")
		if err := os.WriteFile(textFile, []byte(text), 0o644); err != nil {
			return "", 0, err
		}
		voPath = filepath.Join(partsDir, name+"_vo.mp3")
		if err := u.Synth.Synthesize(ctx, voice, textFile, voPath); err != nil {
			return "", 0, err
		}
		voDur, err := u.FFmpeg.ProbeDuration(ctx, voPath)
		if err != nil {
			return "", 0, err
		}
		if voDur > duration {
			duration = voDur
		}
	}

	w, h := p.Preset.Width, p.Preset.Height
	silent := filepath.Join(partsDir, name+"_video.mp4")

	switch cfg.Mode {
	case "video":
		if cfg.Video == "" {
			return "", 0, fmt.Errorf("%s mode is video but no clip configured", name)
		}
		clip := u.resolveAssetPath(cfg.Video)
		if _, err := os.Stat(clip); err != nil {
			return "", 0, fmt.Errorf("%s clip missing: %w", name, err)
		}
		if err := u.FFmpeg.Run(ctx, buildLoopTrimArgs(clip, 0, duration, w, h, silent)); err != nil {
			return "", 0, err
		}
	case "compose":
		if u.Templates == nil {
			return "", 0, fmt.Errorf("%s mode is compose but no template renderer is configured", name)
		}
		overlay, err := u.Templates.RenderedOverlay(filepath.Dir(filepath.Dir(partsDir)), name)
		if err != nil {
			return "", 0, fmt.Errorf("%s overlay: %w", name, err)
		}
		if cfg.Video != "" {
			clip := u.resolveAssetPath(cfg.Video)
			if err := u.FFmpeg.Run(ctx, buildOverlayArgs(clip, overlay, duration, w, h, silent)); err != nil {
				return "", 0, err
			}
		} else {
			if err := u.FFmpeg.Run(ctx, buildStillToVideoArgs(overlay, duration, w, h, silent)); err != nil {
				return "", 0, err
			}
		}
	default:
		return "", 0, fmt.Errorf("unknown %s mode %q", name, cfg.Mode)
	}

	// Every assembled part is video-only. The voice-over file stays in the
	// parts directory and the mixed bed picks it up by name.
	return silent, duration, nil
}

func (u *MasteringUnit) concatParts(ctx context.Context, parts []string, partsDir, listName, output string) error {
	listFile := filepath.Join(partsDir, listName)
	if err := os.WriteFile(listFile, []byte(ConcatListFile(parts)), 0o644); err != nil {
		return err
	}
	return u.FFmpeg.Run(ctx, buildConcatArgs(listFile, output))
}

// buildAudioBed lays narration (delayed by the intro offset), endcap
// voice-overs and any configured background audio onto one mixed track.
func (u *MasteringUnit) buildAudioBed(ctx context.Context, narration, intro, outro, partsDir string, p masteringParams, offset, mainDur float64, crossfaded bool, totalDur float64, output string) error {
	var beds []audioBedInput

	narrDelay := int(offset * 1000)
	for _, bg := range p.AudioBeds {
		beds = append(beds, audioBedInput{Path: u.resolveAssetPath(bg.Path), DelayMS: narrDelay, Volume: bg.Volume})
	}
	if intro != "" {
		if vo := filepath.Join(partsDir, "intro_vo.mp3"); fileExists(vo) {
			beds = append(beds, audioBedInput{Path: vo, DelayMS: 0, Volume: 1})
		}
	}
	if outro != "" {
		if vo := filepath.Join(partsDir, "outro_vo.mp3"); fileExists(vo) {
			outroStart := offset + mainDur
			if crossfaded {
				outroStart -= transitionSeconds
			}
			beds = append(beds, audioBedInput{Path: vo, DelayMS: int(outroStart * 1000), Volume: 1})
		}
	}

	return u.FFmpeg.Run(ctx, buildAudioBedArgs(narration, narrDelay, beds, totalDur, output))
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// shiftSRTFile rewrites an SRT with every timestamp moved by offset.
func shiftSRTFile(inPath, outPath string, offset float64) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()
	cues, err := ParseSRT(f)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(FormatSRT(ShiftCues(cues, offset))), 0o644)
}
