package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	sweepLockName = "cache_freshness"
	sweepLockTTL  = time.Minute
)

// RunFreshnessSweepMonitor periodically sweeps expired cache slots until
// ctx is done.
func (s *Service) RunFreshnessSweepMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunFreshnessSweep(ctx)
		}
	}
}

// RunFreshnessSweep deletes expired cache slots under the cluster-wide
// advisory lock. A caller that loses the lock race returns immediately; at
// most one sweep runs at a time.
func (s *Service) RunFreshnessSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	holder := "sweep_" + uuid.New().String()[:8]
	acquired, err := s.store.TryAcquireSweepLock(sweepCtx, sweepLockName, holder, sweepLockTTL)
	if err != nil {
		s.log.WithError(err).Warn("freshness sweep lock check failed")
		return
	}
	if !acquired {
		s.log.Debug("freshness sweep already running elsewhere")
		return
	}
	defer func() {
		if err := s.store.ReleaseSweepLock(sweepCtx, sweepLockName, holder); err != nil {
			s.log.WithError(err).Warn("failed to release sweep lock")
		}
	}()

	n, err := s.cache.SweepExpired(sweepCtx)
	if err != nil {
		s.log.WithError(err).Warn("freshness sweep failed")
		return
	}
	if n > 0 {
		s.log.WithField("expired_slots", n).Info("freshness sweep removed expired slots")
	}
}
