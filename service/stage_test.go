package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageSequence(t *testing.T) {
	names := StageNames()
	require.Equal(t, []string{
		"Text Scrapped",
		"Text Translated",
		"Speech Generated",
		"Subtitles Created",
		"Thumbnail Created",
		"Master Composition",
	}, names)

	for _, name := range names {
		s, ok := ParseStage(name)
		require.True(t, ok)
		assert.Equal(t, name, s.String())
	}
}

func TestStageNext(t *testing.T) {
	next, ok := StageTextScrapped.Next()
	require.True(t, ok)
	assert.Equal(t, StageTextTranslated, next)

	_, ok = StageMasterComposition.Next()
	assert.False(t, ok, "terminal stage has no successor")
}

func TestNextStageName(t *testing.T) {
	next, ok := NextStageName("Text Scrapped")
	require.True(t, ok)
	assert.Equal(t, "Text Translated", next)

	_, ok = NextStageName("Master Composition")
	assert.False(t, ok, "advancing past the terminal stage reports completion")

	_, ok = NextStageName("no such stage")
	assert.False(t, ok)
}

func TestParseStageUnknown(t *testing.T) {
	_, ok := ParseStage(StageCancelled)
	assert.False(t, ok, "the cancelled marker is not part of the sequence")
}
