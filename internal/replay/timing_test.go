package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tribunal/internal/domain"
)

func eventsAt(offsets ...time.Duration) []domain.RunEvent {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := make([]domain.RunEvent, len(offsets))
	for i, off := range offsets {
		events[i] = domain.RunEvent{Seq: int64(i + 1), CreatedAt: base.Add(off)}
	}
	return events
}

func TestComputeScheduleCompressesLongRuns(t *testing.T) {
	// 1000s span against a 45s budget: scale is 0.045, and the resulting
	// 22.5s gaps clamp down to maxGap.
	events := eventsAt(0, 500*time.Second, 1000*time.Second)
	schedule := computeSchedule(events)

	assert.Equal(t, time.Duration(0), schedule[0])
	assert.Equal(t, maxGap, schedule[1])
	assert.Equal(t, maxGap, schedule[2])
}

func TestComputeScheduleClampsTinyGaps(t *testing.T) {
	events := eventsAt(0, time.Millisecond, 2*time.Millisecond)
	schedule := computeSchedule(events)

	assert.Equal(t, minGap, schedule[1])
	assert.Equal(t, minGap, schedule[2])
}

func TestComputeSchedulePreservesShortRunPacing(t *testing.T) {
	events := eventsAt(0, time.Second, 3*time.Second)
	schedule := computeSchedule(events)

	assert.Equal(t, time.Second, schedule[1])
	assert.Equal(t, 2*time.Second, schedule[2])
}

func TestComputeScheduleEveryGapClamped(t *testing.T) {
	offsets := make([]time.Duration, 20)
	for i := range offsets {
		offsets[i] = time.Duration(i*i) * 10 * time.Second
	}
	schedule := computeSchedule(eventsAt(offsets...))

	for _, d := range schedule[1:] {
		assert.GreaterOrEqual(t, d, minGap)
		assert.LessOrEqual(t, d, maxGap)
	}
}

func TestComputeScheduleSingleEvent(t *testing.T) {
	schedule := computeSchedule(eventsAt(0))
	assert.Equal(t, []time.Duration{0}, schedule)
}
