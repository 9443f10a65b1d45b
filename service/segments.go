package service

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	minSegmentSeconds = 3.0
	transitionSeconds = 0.5
)

// Segment is one planned slice of the background track.
type Segment struct {
	Start    float64
	Duration float64
}

// PlanSegments splits total seconds into ceil(total/segLen) segments. Every
// segment but the last is segLen long and the last absorbs the remainder.
// A too-short last segment is folded into the previous one. When crossfades
// are requested, every planned segment must be at least twice the transition
// length, otherwise the plan is rejected up front; every segment feeding a
// crossfade is then extended by one transition length, since xfade overlaps
// each boundary and would otherwise leave the fused track
// (n-1)*transition short of the requested total.
func PlanSegments(total, segLen float64, crossfade bool, transition float64) ([]Segment, error) {
	if total <= 0 {
		return nil, fmt.Errorf("plan segments: total %.2fs must be positive", total)
	}
	if segLen <= 0 {
		return nil, fmt.Errorf("plan segments: segment length %.2fs must be positive", segLen)
	}

	n := int(math.Ceil(total / segLen))
	segs := make([]Segment, 0, n)
	cursor := 0.0
	for i := 0; i < n; i++ {
		d := segLen
		if i == n-1 {
			d = total - cursor
		}
		segs = append(segs, Segment{Start: cursor, Duration: d})
		cursor += d
	}

	minLen := minSegmentSeconds
	if crossfade && 2*transition > minLen {
		minLen = 2 * transition
	}
	if len(segs) > 1 && segs[len(segs)-1].Duration < minLen {
		last := segs[len(segs)-1]
		segs = segs[:len(segs)-1]
		segs[len(segs)-1].Duration += last.Duration
	}

	if crossfade {
		for i, s := range segs {
			if s.Duration < 2*transition {
				return nil, fmt.Errorf("plan segments: segment %d is %.2fs, below the %.2fs minimum for a %.2fs crossfade",
					i, s.Duration, 2*transition, transition)
			}
		}
		for i := range segs[:len(segs)-1] {
			segs[i].Duration += transition
		}
	}
	return segs, nil
}

// FusedDuration is the length of the track the segments produce once every
// boundary between them has been crossfaded.
func FusedDuration(segs []Segment, crossfade bool, transition float64) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.Duration
	}
	if crossfade && len(segs) > 1 {
		sum -= float64(len(segs)-1) * transition
	}
	return sum
}

// clipPicker yields background clips for successive segments.
type clipPicker struct {
	pool   []string
	random bool
	rng    *rand.Rand
	order  []int
	pos    int
}

// newClipPicker builds a picker over the candidate pool. Random strategy
// shuffles the pool and cycles it, reshuffling each exhaustion; sequential
// strategy cycles the pool in alphabetical order.
func newClipPicker(pool []string, random bool, rng *rand.Rand) (*clipPicker, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("no background clips available")
	}
	p := &clipPicker{random: random, rng: rng}
	if random {
		p.pool = append([]string(nil), pool...)
		p.reshuffle()
	} else {
		p.pool = sortedCopy(pool)
		p.order = make([]int, len(p.pool))
		for i := range p.order {
			p.order[i] = i
		}
	}
	return p, nil
}

func (p *clipPicker) reshuffle() {
	p.order = p.rng.Perm(len(p.pool))
	p.pos = 0
}

func (p *clipPicker) Next() string {
	if p.pos >= len(p.order) {
		if p.random {
			p.reshuffle()
		} else {
			p.pos = 0
		}
	}
	clip := p.pool[p.order[p.pos]]
	p.pos++
	return clip
}

// pickStartOffset chooses where inside a clip a segment begins. Random
// strategy starts anywhere that still leaves a full segment of material;
// sequential strategy always starts at zero. Clips shorter than the segment
// start at zero and are looped by the caller.
func pickStartOffset(clipDur, segDur float64, random bool, rng *rand.Rand) float64 {
	if !random || clipDur <= segDur {
		return 0
	}
	return rng.Float64() * (clipDur - segDur)
}
