package service

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Cue is one SRT caption block. Start and End are seconds.
type Cue struct {
	Index int
	Start float64
	End   float64
	Lines []string
}

func (c Cue) Text() string {
	return strings.Join(c.Lines, " ")
}

func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// ParseSRT reads standard "index / HH:MM:SS,mmm --> HH:MM:SS,mmm / text"
// blocks. Malformed blocks are skipped rather than failing the whole file,
// since transcription output is occasionally sloppy.
func ParseSRT(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	var cur *Cue
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case cur == nil:
			if trimmed == "" {
				continue
			}
			idx, err := strconv.Atoi(trimmed)
			if err != nil {
				continue
			}
			cur = &Cue{Index: idx}
		case cur.End == 0 && cur.Start == 0 && len(cur.Lines) == 0 && strings.Contains(trimmed, "-->"):
			start, end, err := parseTimeRange(trimmed)
			if err != nil {
				cur = nil
				continue
			}
			cur.Start, cur.End = start, end
		case trimmed == "":
			if len(cur.Lines) > 0 {
				cues = append(cues, *cur)
			}
			cur = nil
		default:
			cur.Lines = append(cur.Lines, trimmed)
		}
	}
	if cur != nil && len(cur.Lines) > 0 {
		cues = append(cues, *cur)
	}
	return cues, scanner.Err()
}

func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(c.Start), formatTimestamp(c.End),
			strings.Join(c.Lines, "\n"))
	}
	return b.String()
}

func parseTimeRange(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("not a time range: %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(s string) (float64, error) {
	// HH:MM:SS,mmm (some tools emit a dot for the millisecond separator)
	s = strings.Replace(s, ".", ",", 1)
	var h, m, sec, ms int
	if _, err := fmt.Sscanf(s, "%d:%d:%d,%d", &h, &m, &sec, &ms); err != nil {
		return 0, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(sec) + float64(ms)/1000, nil
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Round(seconds * 1000))
	ms := total % 1000
	total /= 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ShiftCues moves every cue by offset seconds (negative shifts backwards),
// clamping at zero.
func ShiftCues(cues []Cue, offset float64) []Cue {
	out := make([]Cue, len(cues))
	for i, c := range cues {
		c.Start = math.Max(0, c.Start+offset)
		c.End = math.Max(0, c.End+offset)
		out[i] = c
	}
	return out
}

const (
	lineModeMaxChars   = 42
	lineModeMaxLines   = 2
	lineModeMinCaption = 0.7
	wordModeMinWord    = 0.08
)

// RewrapLineCaptions re-wraps each block to at most maxChars per line and
// maxLines lines per caption, redistributing the block's timing across the
// resulting sub-captions proportionally to word count, with a floor per
// caption.
func RewrapLineCaptions(cues []Cue, maxChars, maxLines int, minCaption float64) []Cue {
	var out []Cue
	for _, c := range cues {
		words := strings.Fields(c.Text())
		if len(words) == 0 {
			continue
		}
		lines := wrapWords(words, maxChars)

		// Group wrapped lines into captions of at most maxLines lines.
		var groups [][]string
		for i := 0; i < len(lines); i += maxLines {
			end := i + maxLines
			if end > len(lines) {
				end = len(lines)
			}
			groups = append(groups, lines[i:end])
		}

		total := c.Duration()
		totalWords := len(words)
		cursor := c.Start
		for _, g := range groups {
			wc := 0
			for _, line := range g {
				wc += len(strings.Fields(line))
			}
			dur := total * float64(wc) / float64(totalWords)
			if dur < minCaption {
				dur = minCaption
			}
			end := cursor + dur
			if end > c.End {
				end = c.End
			}
			if end <= cursor {
				end = cursor + minCaption
			}
			out = append(out, Cue{Start: cursor, End: end, Lines: append([]string(nil), g...)})
			cursor = end
		}
	}
	for i := range out {
		out[i].Index = i + 1
	}
	return out
}

func wrapWords(words []string, maxChars int) []string {
	var lines []string
	var cur string
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if utf8.RuneCountInString(candidate) <= maxChars || cur == "" {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// ExplodeWordCaptions emits one caption per word. Each word gets a duration
// proportional to its character length with a floor, then all durations are
// scaled so their sum matches the source block exactly.
func ExplodeWordCaptions(cues []Cue, minWord float64) []Cue {
	var out []Cue
	for _, c := range cues {
		words := strings.Fields(c.Text())
		if len(words) == 0 {
			continue
		}
		raw := make([]float64, len(words))
		var rawSum float64
		for i, w := range words {
			d := float64(utf8.RuneCountInString(w))
			if d < 1 {
				d = 1
			}
			raw[i] = d
			rawSum += d
		}
		total := c.Duration()
		durs := make([]float64, len(words))
		var floored float64
		for i := range raw {
			durs[i] = total * raw[i] / rawSum
			if durs[i] < minWord {
				durs[i] = minWord
			}
			floored += durs[i]
		}
		// Rescale so the block duration is preserved exactly.
		scale := total / floored
		cursor := c.Start
		for i, w := range words {
			d := durs[i] * scale
			out = append(out, Cue{Start: cursor, End: cursor + d, Lines: []string{w}})
			cursor += d
		}
	}
	for i := range out {
		out[i].Index = i + 1
	}
	return out
}
