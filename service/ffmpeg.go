package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"FrameForge-server/config"
)

const stderrTailLimit = 600

// FFmpeg wraps ffmpeg/ffprobe invocations. Argument construction lives in
// pure build* functions so callers and tests can inspect command lines
// without running anything.
type FFmpeg struct {
	FFmpegBin  string
	FFprobeBin string
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{FFmpegBin: "ffmpeg", FFprobeBin: "ffprobe"}
}

func (f *FFmpeg) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.FFmpegBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		tail := tailString(stderr.String(), stderrTailLimit)
		config.Log.WithField("stderr", tail).Error("ffmpeg failed")
		return fmt.Errorf("ffmpeg: %w: %s", err, tail)
	}
	return nil
}

// ProbeDuration returns a media file's duration in seconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.FFprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, tailString(stderr.String(), stderrTailLimit))
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, stdout.String())
	}
	return d, nil
}

// runCapture runs ffmpeg and returns its stderr output. Filters such as
// silencedetect report on stderr even when the command succeeds.
func (f *FFmpeg) runCapture(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, f.FFmpegBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		tail := tailString(stderr.String(), stderrTailLimit)
		return stderr.String(), fmt.Errorf("ffmpeg: %w: %s", err, tail)
	}
	return stderr.String(), nil
}

const (
	silenceNoiseFloor = "-40dB"
	silenceMinGap     = 0.3
	silencePadding    = 0.1
)

// silenceWindow is one detected silent span. End is negative when the
// silence runs to the end of the file.
type silenceWindow struct {
	Start float64
	End   float64
}

func buildSilenceDetectArgs(input string) []string {
	return []string{
		"-hide_banner",
		"-i", input,
		"-af", fmt.Sprintf("silencedetect=noise=%s:d=%s", silenceNoiseFloor, formatSeconds(silenceMinGap)),
		"-f", "null", "-",
	}
}

// parseSilenceWindows extracts silencedetect spans from ffmpeg's stderr.
func parseSilenceWindows(log string) []silenceWindow {
	var windows []silenceWindow
	for _, line := range strings.Split(log, "\n") {
		if i := strings.Index(line, "silence_start:"); i >= 0 {
			v := firstFloatToken(line[i+len("silence_start:"):])
			windows = append(windows, silenceWindow{Start: v, End: -1})
		} else if i := strings.Index(line, "silence_end:"); i >= 0 {
			v := firstFloatToken(line[i+len("silence_end:"):])
			if len(windows) > 0 && windows[len(windows)-1].End < 0 {
				windows[len(windows)-1].End = v
			}
		}
	}
	return windows
}

func firstFloatToken(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}

// trimBounds turns detected silence into keep bounds. Only silence touching
// the very start or end of the file is cut, with a small padding left in.
func trimBounds(windows []silenceWindow, total float64) (start, end float64) {
	start, end = 0, total
	if len(windows) == 0 || total <= 0 {
		return
	}
	first := windows[0]
	if first.Start <= silencePadding && first.End > 0 {
		start = first.End - silencePadding
		if start < 0 {
			start = 0
		}
	}
	last := windows[len(windows)-1]
	if last.End < 0 || last.End >= total-silencePadding {
		if e := last.Start + silencePadding; e > start && e < end {
			end = e
		}
	}
	return
}

func buildNarrationTrimArgs(input string, start, end float64, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-c:a", "libmp3lame",
		"-q:a", "2",
		output,
	}
}

// TrimSilence strips leading and trailing silence from a narration track.
// When nothing needs cutting the file is copied through untouched.
func (f *FFmpeg) TrimSilence(ctx context.Context, inPath, outPath string) error {
	total, err := f.ProbeDuration(ctx, inPath)
	if err != nil {
		return err
	}
	log, err := f.runCapture(ctx, buildSilenceDetectArgs(inPath))
	if err != nil {
		return err
	}
	start, end := trimBounds(parseSilenceWindows(log), total)
	if start <= 0 && end >= total {
		return copyFileContents(inPath, outPath)
	}
	return f.Run(ctx, buildNarrationTrimArgs(inPath, start, end, outPath))
}

func copyFileContents(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func tailString(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// scaleCropFilter scales to fill the target frame and center-crops the
// overflow, so any source aspect ratio fills the output completely.
func scaleCropFilter(w, h int) string {
	if w >= h {
		return fmt.Sprintf("scale=%d:-2,crop=%d:%d", w, w, h)
	}
	return fmt.Sprintf("scale=-2:%d,crop=%d:%d", h, w, h)
}

// buildLoopTrimArgs loops a clip to exactly duration seconds at the target
// resolution, stripping audio.
func buildLoopTrimArgs(input string, startOffset, duration float64, w, h int, output string) []string {
	args := []string{"-y", "-stream_loop", "-1"}
	if startOffset > 0 {
		args = append(args, "-ss", formatSeconds(startOffset))
	}
	args = append(args,
		"-i", input,
		"-t", formatSeconds(duration),
		"-vf", scaleCropFilter(w, h),
		"-an",
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-pix_fmt", "yuv420p", "-r", "30",
		output)
	return args
}

// buildSegmentArgs cuts one segment from a clip without looping.
func buildSegmentArgs(input string, startOffset, duration float64, w, h int, output string) []string {
	args := []string{"-y"}
	if startOffset > 0 {
		args = append(args, "-ss", formatSeconds(startOffset))
	}
	args = append(args,
		"-i", input,
		"-t", formatSeconds(duration),
		"-vf", scaleCropFilter(w, h),
		"-an",
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-pix_fmt", "yuv420p", "-r", "30",
		output)
	return args
}

// buildXfadeArgs chains n inputs with a crossfade transition. Offsets are
// cumulative: each transition starts transition seconds before the end of
// the material accumulated so far.
func buildXfadeArgs(inputs []string, durations []float64, transition string, transDur float64, output string) []string {
	var args []string
	args = append(args, "-y")
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	var filter strings.Builder
	prev := "[0:v]"
	elapsed := durations[0]
	for i := 1; i < len(inputs); i++ {
		offset := elapsed - transDur
		out := fmt.Sprintf("[x%d]", i)
		if i == len(inputs)-1 {
			out = "[vout]"
		}
		fmt.Fprintf(&filter, "%s[%d:v]xfade=transition=%s:duration=%s:offset=%s%s;",
			prev, i, transition, formatSeconds(transDur), formatSeconds(offset), out)
		prev = out
		elapsed += durations[i] - transDur
	}
	graph := strings.TrimSuffix(filter.String(), ";")

	args = append(args,
		"-filter_complex", graph,
		"-map", "[vout]",
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-pix_fmt", "yuv420p",
		output)
	return args
}

// buildConcatArgs concatenates already-encoded segments via the concat
// demuxer. listFile must contain "file '<path>'" lines.
func buildConcatArgs(listFile, output string) []string {
	return []string{
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
}

// ConcatListFile renders the concat-demuxer list body. Single quotes in
// paths are escaped the way the demuxer expects.
func ConcatListFile(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

// escapeSubtitlePath escapes an SRT path for use inside a subtitles= filter
// expression: backslashes become forward slashes, colons and single quotes
// are backslash-escaped.
func escapeSubtitlePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.ReplaceAll(p, ":", `\:`)
	p = strings.ReplaceAll(p, "'", `\'`)
	return p
}

// buildBurnSubtitlesArgs burns an SRT onto a video with a styled look.
func buildBurnSubtitlesArgs(input, srtPath, fontName string, fontSize int, output string) []string {
	style := fmt.Sprintf("FontName=%s,FontSize=%d,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,Outline=2,Shadow=1,Alignment=2,MarginV=60", fontName, fontSize)
	filter := fmt.Sprintf("subtitles='%s':force_style='%s'", escapeSubtitlePath(srtPath), style)
	return []string{
		"-y",
		"-i", input,
		"-vf", filter,
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-c:a", "copy",
		output,
	}
}

// audioBedInput is one extra track mixed under or around the narration.
type audioBedInput struct {
	Path    string
	DelayMS int
	Volume  float64
}

// buildAudioBedArgs mixes the narration (delayed to its start position)
// with any extra tracks, each delayed and volume-adjusted, using
// longest-duration-wins semantics with no dropout transition, then
// hard-trims to the assembled total.
func buildAudioBedArgs(narration string, narrationDelayMS int, beds []audioBedInput, totalDur float64, output string) []string {
	args := []string{"-y", "-i", narration}
	for _, b := range beds {
		args = append(args, "-i", b.Path)
	}

	var filter strings.Builder
	fmt.Fprintf(&filter, "[0:a]adelay=%d|%d[n]", narrationDelayMS, narrationDelayMS)
	labels := []string{"[n]"}
	for i, b := range beds {
		lbl := fmt.Sprintf("[b%d]", i)
		fmt.Fprintf(&filter, ";[%d:a]volume=%s,adelay=%d|%d%s",
			i+1, formatFloat(b.Volume), b.DelayMS, b.DelayMS, lbl)
		labels = append(labels, lbl)
	}
	if len(labels) > 1 {
		fmt.Fprintf(&filter, ";%samix=inputs=%d:duration=longest:dropout_transition=0,atrim=0:%s[aout]",
			strings.Join(labels, ""), len(labels), formatSeconds(totalDur))
	} else {
		fmt.Fprintf(&filter, ";[n]atrim=0:%s[aout]", formatSeconds(totalDur))
	}

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[aout]",
		"-c:a", "aac", "-b:a", "192k",
		output)
	return args
}

// buildOverlayArgs composites a still overlay over a looped background clip
// for duration seconds at the target resolution.
func buildOverlayArgs(background, overlay string, duration float64, w, h int, output string) []string {
	filter := fmt.Sprintf("[0:v]%s[bg];[1:v]scale=%d:%d[ov];[bg][ov]overlay=0:0", scaleCropFilter(w, h), w, h)
	return []string{
		"-y",
		"-stream_loop", "-1",
		"-i", background,
		"-i", overlay,
		"-t", formatSeconds(duration),
		"-filter_complex", filter,
		"-an",
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-pix_fmt", "yuv420p", "-r", "30",
		output,
	}
}

// buildMuxArgs combines a finished video track with a finished audio track.
// Video is stream-copied.
func buildMuxArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", "192k",
		"-shortest",
		output,
	}
}

// buildStillToVideoArgs turns a still image into a video clip of the given
// duration at the target resolution.
func buildStillToVideoArgs(image string, duration float64, w, h int, output string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", image,
		"-t", formatSeconds(duration),
		"-vf", scaleCropFilter(w, h),
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-pix_fmt", "yuv420p", "-r", "30",
		output,
	}
}

// buildClipExtractArgs cuts [start, start+length) out of a finished video,
// re-encoding so cuts land on exact timestamps.
func buildClipExtractArgs(input string, start, length float64, w, h int, output string) []string {
	return []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(length),
		"-vf", scaleCropFilter(w, h),
		"-c:v", "libx264", "-preset", "fast", "-crf", "20",
		"-c:a", "aac", "-b:a", "192k",
		"-pix_fmt", "yuv420p",
		output,
	}
}

// formatFloat renders a float the way ffmpeg filter arguments expect,
// without exponent notation or trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatSeconds(v float64) string {
	return formatFloat(v)
}

// sortedCopy returns paths in alphabetical order without mutating the input.
func sortedCopy(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}
