package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/signal"
)

type blockingComputer struct {
	mu      sync.Mutex
	active  int32
	peak    int32
	release chan struct{}
}

func (c *blockingComputer) Compute(ctx context.Context, in signal.Input) (*signal.Scores, error) {
	n := atomic.AddInt32(&c.active, 1)
	defer atomic.AddInt32(&c.active, -1)
	c.mu.Lock()
	if n > c.peak {
		c.peak = n
	}
	c.mu.Unlock()

	select {
	case <-c.release:
		return &signal.Scores{Correctness: 50}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	computer := &blockingComputer{release: make(chan struct{})}
	pool := NewPool(computer, 2, logrus.New())

	var results []<-chan Result
	for i := 0; i < 5; i++ {
		results = append(results, pool.Submit(context.Background(), signal.Input{}))
	}

	// Let goroutines occupy the two slots.
	time.Sleep(50 * time.Millisecond)
	close(computer.release)

	for _, ch := range results {
		res := <-ch
		require.NoError(t, res.Err)
		assert.Equal(t, 50, res.Scores.Correctness)
	}

	computer.mu.Lock()
	defer computer.mu.Unlock()
	assert.LessOrEqual(t, computer.peak, int32(2))
}

func TestPoolSubmitDoesNotBlock(t *testing.T) {
	computer := &blockingComputer{release: make(chan struct{})}
	pool := NewPool(computer, 1, logrus.New())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			pool.Submit(context.Background(), signal.Input{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked the caller")
	}
	close(computer.release)
}

func TestPoolHonorsCancellation(t *testing.T) {
	computer := &blockingComputer{release: make(chan struct{})}
	pool := NewPool(computer, 1, logrus.New())

	// Occupy the only slot.
	first := pool.Submit(context.Background(), signal.Input{})

	ctx, cancel := context.WithCancel(context.Background())
	second := pool.Submit(ctx, signal.Input{})
	cancel()

	res := <-second
	require.ErrorIs(t, res.Err, context.Canceled)

	close(computer.release)
	require.NoError(t, (<-first).Err)
}
