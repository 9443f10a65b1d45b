package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanShortStartsSnapsToSubtitles(t *testing.T) {
	subtitleStarts := []float64{0, 45, 90, 140, 200, 260, 330, 410, 470}

	starts, err := PlanShortStarts(500, 60, 3, subtitleStarts)
	require.NoError(t, err)
	require.Len(t, starts, 3)

	// Ideal cursors at 0, 166.67 and 333.33 snap to the first subtitle at
	// or after each cursor.
	assert.Equal(t, 0.0, starts[0])
	assert.Equal(t, 200.0, starts[1])
	assert.Equal(t, 410.0, starts[2])
}

func TestPlanShortStartsClampsToFit(t *testing.T) {
	starts, err := PlanShortStarts(100, 60, 2, []float64{0, 90})
	require.NoError(t, err)
	require.Len(t, starts, 2)
	assert.Equal(t, 0.0, starts[0])
	assert.Equal(t, 40.0, starts[1], "a snap near the end is pulled back so the clip fits")
}

func TestPlanShortStartsNoSubtitles(t *testing.T) {
	starts, err := PlanShortStarts(300, 60, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 100, 200}, starts, "without subtitles the ideal cursors stand")
}

func TestPlanShortStartsRejectsBadInput(t *testing.T) {
	_, err := PlanShortStarts(100, 60, 0, nil)
	assert.Error(t, err)
	_, err = PlanShortStarts(50, 60, 1, nil)
	assert.Error(t, err, "clip longer than the video")
}
