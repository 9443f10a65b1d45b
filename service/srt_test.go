package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:02,500
Hola mundo

2
00:00:02,500 --> 00:00:06,000
Esta es la segunda linea
del segundo bloque
`

func TestParseSRT(t *testing.T) {
	cues, err := ParseSRT(strings.NewReader(sampleSRT))
	require.NoError(t, err)
	require.Len(t, cues, 2)

	assert.Equal(t, 0.0, cues[0].Start)
	assert.Equal(t, 2.5, cues[0].End)
	assert.Equal(t, []string{"Hola mundo"}, cues[0].Lines)

	assert.Equal(t, 2.5, cues[1].Start)
	assert.Equal(t, 6.0, cues[1].End)
	assert.Equal(t, "Esta es la segunda linea del segundo bloque", cues[1].Text())
}

func TestFormatSRTRoundTrip(t *testing.T) {
	cues, err := ParseSRT(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	again, err := ParseSRT(strings.NewReader(FormatSRT(cues)))
	require.NoError(t, err)
	require.Equal(t, len(cues), len(again))
	for i := range cues {
		assert.InDelta(t, cues[i].Start, again[i].Start, 0.001)
		assert.InDelta(t, cues[i].End, again[i].End, 0.001)
		assert.Equal(t, cues[i].Lines, again[i].Lines)
	}
}

func TestParseTimestamp(t *testing.T) {
	v, err := parseTimestamp("01:02:03,456")
	require.NoError(t, err)
	assert.InDelta(t, 3723.456, v, 0.0001)

	_, err = parseTimestamp("garbage")
	assert.Error(t, err)
}

func TestShiftCuesRoundTrip(t *testing.T) {
	cues, err := ParseSRT(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	// Shift forward then back. Entries that never crossed zero must come
	// back exactly.
	shifted := ShiftCues(ShiftCues(cues, 5), -5)
	for i := range cues {
		assert.InDelta(t, cues[i].Start, shifted[i].Start, 1e-9)
		assert.InDelta(t, cues[i].End, shifted[i].End, 1e-9)
	}
}

func TestShiftCuesClampsAtZero(t *testing.T) {
	cues := []Cue{{Start: 1, End: 2, Lines: []string{"x"}}}
	shifted := ShiftCues(cues, -5)
	assert.Equal(t, 0.0, shifted[0].Start)
	assert.Equal(t, 0.0, shifted[0].End)
}

func TestRewrapLineCaptions(t *testing.T) {
	in := []Cue{{
		Start: 0, End: 10,
		Lines: []string{"una historia bastante larga que claramente necesita ser dividida en varios subtitulos mas cortos para poder leerse comodamente en pantalla"},
	}}
	out := RewrapLineCaptions(in, lineModeMaxChars, lineModeMaxLines, lineModeMinCaption)
	require.NotEmpty(t, out)

	for _, c := range out {
		require.LessOrEqual(t, len(c.Lines), lineModeMaxLines)
		for _, line := range c.Lines {
			assert.LessOrEqual(t, len(line), lineModeMaxChars, "line %q", line)
		}
		assert.GreaterOrEqual(t, c.End, c.Start)
	}

	// Captions are sequential and start where the block started.
	assert.Equal(t, 0.0, out[0].Start)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, out[i-1].End, out[i].Start)
	}
}

func TestRewrapLineCaptionsMinDuration(t *testing.T) {
	in := []Cue{{Start: 0, End: 0.2, Lines: []string{"muy corto"}}}
	out := RewrapLineCaptions(in, lineModeMaxChars, lineModeMaxLines, lineModeMinCaption)
	require.Len(t, out, 1)
	assert.GreaterOrEqual(t, out[0].Duration(), lineModeMinCaption)
}

func TestRewrapLineCaptionsCountsRunesNotBytes(t *testing.T) {
	// "canción canción canción canción canción" is 39 runes but 44 bytes;
	// counted in runes it fits a single 42-character line.
	in := []Cue{{
		Start: 0, End: 4,
		Lines: []string{"canción canción canción canción canción"},
	}}
	out := RewrapLineCaptions(in, lineModeMaxChars, lineModeMaxLines, lineModeMinCaption)
	require.Len(t, out, 1)
	require.Len(t, out[0].Lines, 1)
}

func TestExplodeWordCaptionsPreservesDuration(t *testing.T) {
	in := []Cue{{Start: 2, End: 7, Lines: []string{"cinco palabras para poner prueba"}}}
	out := ExplodeWordCaptions(in, wordModeMinWord)
	require.Len(t, out, 5)

	var sum float64
	for _, c := range out {
		assert.Len(t, c.Lines, 1)
		sum += c.Duration()
	}
	assert.InDelta(t, 5.0, sum, 1e-6, "per-word durations sum to the block duration")
	assert.InDelta(t, 2.0, out[0].Start, 1e-9)
	assert.InDelta(t, 7.0, out[len(out)-1].End, 1e-6)
}

func TestExplodeWordCaptionsWeighsRunesNotBytes(t *testing.T) {
	// "sí" and "no" are two runes each, so they split the block evenly even
	// though the accented word is a byte longer.
	in := []Cue{{Start: 0, End: 2, Lines: []string{"sí no"}}}
	out := ExplodeWordCaptions(in, wordModeMinWord)
	require.Len(t, out, 2)
	assert.InDelta(t, 1.0, out[0].Duration(), 1e-6)
	assert.InDelta(t, 1.0, out[1].Duration(), 1e-6)
}

func TestExplodeWordCaptionsFloorBeforeScaling(t *testing.T) {
	// Many words in a very short block: the floor applies before rescaling,
	// so the exact total is still preserved afterwards.
	in := []Cue{{Start: 0, End: 0.5, Lines: []string{"a b c d e f g h i j"}}}
	out := ExplodeWordCaptions(in, wordModeMinWord)
	require.Len(t, out, 10)
	var sum float64
	for _, c := range out {
		sum += c.Duration()
	}
	assert.InDelta(t, 0.5, sum, 1e-6)
}
