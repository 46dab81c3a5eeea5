// Package worker bounds the CPU-heavy secondary-signal computation so it
// cannot starve the I/O-bound orchestration.
package worker

import (
	"context"

	"github.com/sirupsen/logrus"

	"tribunal/internal/signal"
)

// Result is the outcome of one pooled computation.
type Result struct {
	Scores *signal.Scores
	Err    error
}

// Pool dispatches signal computations through a size-bounded semaphore. The
// computer is constructed once by the caller and shared by reference; the
// pool holds no global state.
type Pool struct {
	computer signal.Computer
	sem      chan struct{}
	log      *logrus.Entry
}

// NewPool creates a pool admitting at most size concurrent computations.
func NewPool(computer signal.Computer, size int, log *logrus.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		computer: computer,
		sem:      make(chan struct{}, size),
		log:      log.WithField("component", "signal_pool"),
	}
}

// Submit schedules one computation without blocking the caller and returns
// a channel that receives exactly one Result. Slot acquisition honors ctx,
// so an abandoned caller does not hold a pool slot.
func (p *Pool) Submit(ctx context.Context, in signal.Input) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
			return
		}
		defer func() { <-p.sem }()

		scores, err := p.computer.Compute(ctx, in)
		if err != nil {
			p.log.WithError(err).Debug("signal computation failed")
		}
		out <- Result{Scores: scores, Err: err}
	}()
	return out
}
