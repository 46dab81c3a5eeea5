// Package service orchestrates evaluation and replay runs over the store,
// the protocol engine, the cache, and the signal pool.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"tribunal/internal/cache"
	"tribunal/internal/config"
	"tribunal/internal/debate"
	"tribunal/internal/replay"
	"tribunal/internal/store"
	"tribunal/internal/worker"
)

type Service struct {
	store    store.Store
	cache    *cache.Manager
	engine   *debate.Engine
	replayer *replay.Engine
	pool     *worker.Pool
	config   *config.Config
	log      *logrus.Entry
}

func New(st store.Store, cacheMgr *cache.Manager, engine *debate.Engine, replayer *replay.Engine, pool *worker.Pool, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		store:    st,
		cache:    cacheMgr,
		engine:   engine,
		replayer: replayer,
		pool:     pool,
		config:   cfg,
		log:      log.WithField("component", "service"),
	}
}

// StartupMaintenance purges every cache slot. Cached transcripts never
// survive a process restart.
func (s *Service) StartupMaintenance(ctx context.Context) error {
	if err := s.cache.PurgeAll(ctx); err != nil {
		return err
	}
	s.log.Info("replay cache purged on startup")
	return nil
}
