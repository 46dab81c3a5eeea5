// Package replay re-emits a recorded run's event log under a new run id at
// compressed pacing.
package replay

import (
	"time"

	"tribunal/internal/domain"
)

const (
	// maxTotal bounds the whole replay's wall clock regardless of how long
	// the source run took.
	maxTotal = 45 * time.Second
	minGap   = 50 * time.Millisecond
	maxGap   = 3 * time.Second

	// attachDelay gives a consumer time to attach to the event stream
	// before the first event fires.
	attachDelay = 2 * time.Second
)

// computeSchedule derives one delay per event from the source timestamps.
// The first event fires immediately; each following gap is the original gap
// scaled by min(1, maxTotal/span) and clamped into [minGap, maxGap], which
// preserves relative pacing while bounding the total.
func computeSchedule(events []domain.RunEvent) []time.Duration {
	delays := make([]time.Duration, len(events))
	if len(events) < 2 {
		return delays
	}

	span := events[len(events)-1].CreatedAt.Sub(events[0].CreatedAt)
	scale := 1.0
	if span > maxTotal {
		scale = float64(maxTotal) / float64(span)
	}

	for i := 1; i < len(events); i++ {
		gap := events[i].CreatedAt.Sub(events[i-1].CreatedAt)
		if gap < 0 {
			gap = 0
		}
		delays[i] = clampGap(time.Duration(float64(gap) * scale))
	}
	return delays
}

func clampGap(d time.Duration) time.Duration {
	if d < minGap {
		return minGap
	}
	if d > maxGap {
		return maxGap
	}
	return d
}
