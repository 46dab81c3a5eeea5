package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tribunal/internal/domain"
)

// ServeReplay picks the round-robin cache slot for the key and replays its
// source run under a new run id. Returns an error when no live slot exists;
// the caller decides whether to fall back to a fresh evaluation.
func (s *Service) ServeReplay(ctx context.Context, datasetID, modelKey, caseID string) (string, error) {
	if !s.config.CacheEnabled {
		return "", fmt.Errorf("service: replay cache is disabled")
	}

	slot, err := s.cache.GetNextSlotToServe(ctx, datasetID, modelKey, caseID)
	if err != nil {
		return "", err
	}
	if slot == nil {
		return "", fmt.Errorf("service: no cached run for dataset %s model %s case %s", datasetID, modelKey, caseID)
	}

	runID := "run_" + uuid.New().String()[:8]
	run := &domain.Run{
		RunID:       runID,
		DatasetID:   datasetID,
		ModelKey:    modelKey,
		Kind:        domain.RunKindReplay,
		SourceRunID: slot.SourceRunID,
		Status:      domain.RunStatusCreated,
		StartedAt:   time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return "", err
	}
	if err := s.cache.MarkServed(ctx, slot); err != nil {
		s.log.WithError(err).Warn("failed to stamp served slot")
	}

	s.log.WithFields(logrus.Fields{
		"run_id":        runID,
		"source_run_id": slot.SourceRunID,
		"slot":          slot.SlotNumber,
	}).Info("serving replay from cache")

	if err := s.replayer.Execute(ctx, runID, slot.SourceRunID); err != nil {
		return runID, err
	}
	return runID, nil
}
