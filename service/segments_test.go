package service

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSegmentsCountAndSum(t *testing.T) {
	cases := []struct {
		total, segLen float64
	}{
		{600, 60},
		{125, 60},
		{59, 60},
		{60, 60},
		{601, 60},
	}
	for _, tc := range cases {
		segs, err := PlanSegments(tc.total, tc.segLen, false, transitionSeconds)
		require.NoError(t, err)

		want := int(math.Ceil(tc.total / tc.segLen))
		var sum float64
		for _, s := range segs {
			sum += s.Duration
		}
		assert.InDelta(t, tc.total, sum, 1e-9, "total %v segLen %v", tc.total, tc.segLen)
		// A too-short tail gets folded into its predecessor, otherwise the
		// count is exactly ceil(total/segLen).
		assert.LessOrEqual(t, len(segs), want)
		assert.GreaterOrEqual(t, len(segs), want-1)
	}
}

func TestPlanSegmentsFoldsShortTail(t *testing.T) {
	// 121s in 60s chunks leaves a 1s tail, below the minimum.
	segs, err := PlanSegments(121, 60, false, transitionSeconds)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, 60.0, segs[0].Duration)
	assert.Equal(t, 61.0, segs[1].Duration)
}

func TestPlanSegmentsCrossfadeMinimum(t *testing.T) {
	_, err := PlanSegments(2, 0.8, true, transitionSeconds)
	assert.Error(t, err, "segments shorter than twice the transition are a planning error")

	segs, err := PlanSegments(20, 5, true, transitionSeconds)
	require.NoError(t, err)
	for _, s := range segs {
		assert.GreaterOrEqual(t, s.Duration, 2*transitionSeconds)
	}
}

func indexOf(t *testing.T, args []string, want string) int {
	t.Helper()
	for i, a := range args {
		if a == want {
			return i
		}
	}
	t.Fatalf("missing %q in %v", want, args)
	return -1
}

func TestPlanSegmentsCompensatesCrossfadeOverlap(t *testing.T) {
	// A 10s narration in 4s chunks folds to two segments. Each crossfaded
	// boundary swallows one transition length, so the leading segment is
	// extended and the fused track still covers the full 10s instead of
	// ending 0.5s early.
	segs, err := PlanSegments(10, 4, true, transitionSeconds)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.InDelta(t, 4.5, segs[0].Duration, 1e-9)
	assert.InDelta(t, 6.0, segs[1].Duration, 1e-9)
	assert.InDelta(t, 10.0, FusedDuration(segs, true, transitionSeconds), 1e-9)

	segs, err = PlanSegments(600, 60, true, transitionSeconds)
	require.NoError(t, err)
	assert.InDelta(t, 600.0, FusedDuration(segs, true, transitionSeconds), 1e-9,
		"a long narration keeps its tail: no cumulative drift across boundaries")

	// The extended plan feeds xfade offsets that land on the original
	// 4s boundary rather than half a transition early.
	segs, err = PlanSegments(10, 4, true, transitionSeconds)
	require.NoError(t, err)
	args := buildXfadeArgs([]string{"a.mp4", "b.mp4"},
		[]float64{segs[0].Duration, segs[1].Duration}, "fade", transitionSeconds, "out.mp4")
	graph := args[indexOf(t, args, "-filter_complex")+1]
	assert.Contains(t, graph, "offset=4")

	// Without a crossfade nothing is extended.
	segs, err = PlanSegments(10, 4, false, transitionSeconds)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, FusedDuration(segs, false, transitionSeconds), 1e-9)
	assert.InDelta(t, 4.0, segs[0].Duration, 1e-9)
}

func TestPlanSegmentsRejectsBadInput(t *testing.T) {
	_, err := PlanSegments(0, 60, false, transitionSeconds)
	assert.Error(t, err)
	_, err = PlanSegments(60, 0, false, transitionSeconds)
	assert.Error(t, err)
}

func TestClipPickerSequential(t *testing.T) {
	pool := []string{"c.mp4", "a.mp4", "b.mp4"}
	p, err := newClipPicker(pool, false, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	got := []string{p.Next(), p.Next(), p.Next(), p.Next()}
	assert.Equal(t, []string{"a.mp4", "b.mp4", "c.mp4", "a.mp4"}, got,
		"sequential strategy cycles the pool alphabetically")
}

func TestClipPickerRandomCoversPool(t *testing.T) {
	pool := []string{"a.mp4", "b.mp4", "c.mp4"}
	p, err := newClipPicker(pool, true, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < len(pool); i++ {
		seen[p.Next()] = true
	}
	assert.Len(t, seen, len(pool), "one full cycle visits every clip once")
}

func TestClipPickerEmptyPool(t *testing.T) {
	_, err := newClipPicker(nil, true, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestPickStartOffset(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	assert.Equal(t, 0.0, pickStartOffset(30, 60, true, rng), "short clips loop from zero")
	assert.Equal(t, 0.0, pickStartOffset(120, 60, false, rng), "sequential strategy starts at zero")

	for i := 0; i < 100; i++ {
		off := pickStartOffset(120, 60, true, rng)
		assert.GreaterOrEqual(t, off, 0.0)
		assert.LessOrEqual(t, off, 60.0)
	}
}
