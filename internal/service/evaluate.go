package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tribunal/internal/adapter/llm"
	"tribunal/internal/debate"
	"tribunal/internal/domain"
	"tribunal/internal/scoring"
	"tribunal/internal/signal"
)

// RunEvaluation debates and scores every case in the dataset under one run.
// A case that fails unexpectedly is recorded as a zero-score result and the
// run moves on; only cancellation or quota exhaustion fails the whole run.
func (s *Service) RunEvaluation(ctx context.Context, dataset *Dataset) (string, error) {
	runID := "run_" + uuid.New().String()[:8]
	log := s.log.WithFields(logrus.Fields{"run_id": runID, "dataset_id": dataset.DatasetID})

	run := &domain.Run{
		RunID:     runID,
		DatasetID: dataset.DatasetID,
		ModelKey:  s.config.ModelKey,
		Kind:      domain.RunKindEvaluate,
		Status:    domain.RunStatusCreated,
		StartedAt: time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return "", err
	}
	if err := s.store.UpdateRunStatus(ctx, runID, domain.RunStatusRunning); err != nil {
		return runID, err
	}
	if err := s.recordEvent(ctx, runID, domain.EventTypeRunStarted, map[string]string{
		"dataset_id": dataset.DatasetID,
		"model_key":  s.config.ModelKey,
	}); err != nil {
		return runID, err
	}

	for i := range dataset.Cases {
		cas := &dataset.Cases[i]
		if err := s.evaluateCase(ctx, runID, cas); err != nil {
			if ctx.Err() != nil {
				s.finishRun(runID, domain.RunStatusCancelled, domain.EventTypeRunCancelled, err)
				return runID, err
			}
			if errors.Is(err, llm.ErrQuotaExhausted) {
				s.finishRun(runID, domain.RunStatusFailed, domain.EventTypeRunFailed, err)
				return runID, err
			}
			log.WithError(err).WithField("case_id", cas.CaseID).Warn("case failed, recording zero score")
			s.recordZeroScore(ctx, runID, cas, err)
		}
	}

	s.finishRun(runID, domain.RunStatusDone, domain.EventTypeRunDone, nil)
	log.Info("evaluation complete")

	if s.config.CacheEnabled {
		for _, cas := range dataset.Cases {
			if err := s.cache.StoreResult(ctx, dataset.DatasetID, s.config.ModelKey, cas.CaseID, runID); err != nil {
				log.WithError(err).WithField("case_id", cas.CaseID).Warn("failed to cache result")
			}
		}
	}
	return runID, nil
}

// evaluateCase runs the debate engine for one case, persisting its event
// stream as it arrives, then scores the judge decision.
func (s *Service) evaluateCase(ctx context.Context, runID string, cas *domain.Case) error {
	events := make(chan debate.Event, 16)
	type outcome struct {
		result *domain.DebateResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.engine.Run(ctx, cas, events)
		done <- outcome{result, err}
	}()

	var out outcome
	running := true
	for running {
		select {
		case ev := <-events:
			s.persistDebateEvent(ctx, runID, ev)
		case out = <-done:
			running = false
		}
	}
	for {
		select {
		case ev := <-events:
			s.persistDebateEvent(ctx, runID, ev)
			continue
		default:
		}
		break
	}
	if out.err != nil {
		return out.err
	}
	result := out.result

	var secondary *signal.Scores
	poolRes := <-s.pool.Submit(ctx, signal.Input{
		Decision:         result.JudgeDecision,
		Label:            cas.Label,
		ValidEvidenceIDs: cas.EvidenceIDs(),
		SafeToAnswer:     cas.SafeToAnswer,
	})
	if poolRes.Err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.WithError(poolRes.Err).WithField("case_id", cas.CaseID).Warn("secondary signal unavailable, scoring baseline only")
	} else {
		secondary = poolRes.Scores
	}

	breakdown := scoring.ComputeCaseScore(result.JudgeDecision, cas.Label, cas.EvidenceIDs(), cas.SafeToAnswer, secondary)
	return s.persistResult(ctx, runID, cas, result, breakdown)
}

// persistDebateEvent stores one engine event: phase boundaries go straight
// to the event log, messages also get a transcript row. Persistence errors
// here are logged, not fatal; the debate itself is the source of truth.
func (s *Service) persistDebateEvent(ctx context.Context, runID string, ev debate.Event) {
	switch ev.Type {
	case domain.EventTypePhaseStarted:
		if err := s.recordEvent(ctx, runID, domain.EventTypePhaseStarted, domain.PhasePayload{
			CaseID: ev.CaseID,
			Phase:  ev.Phase,
		}); err != nil {
			s.log.WithError(err).Warn("failed to record phase event")
		}

	case domain.EventTypeDebateMessage:
		msg := &domain.DebateMessage{
			MessageID: "msg_" + uuid.New().String()[:8],
			RunID:     runID,
			CaseID:    ev.CaseID,
			ModelKey:  s.config.ModelKey,
			Role:      ev.Role,
			Phase:     ev.Phase,
			Round:     ev.Round,
			Content:   ev.Content,
			CreatedAt: time.Now(),
		}
		if err := s.store.CreateDebateMessage(ctx, msg); err != nil {
			s.log.WithError(err).Warn("failed to store debate message")
			return
		}
		if err := s.recordEvent(ctx, runID, domain.EventTypeDebateMessage, domain.MessagePayload{
			MessageID: msg.MessageID,
			CaseID:    msg.CaseID,
			ModelKey:  msg.ModelKey,
			Role:      msg.Role,
			Phase:     msg.Phase,
			Round:     msg.Round,
		}); err != nil {
			s.log.WithError(err).Warn("failed to record message event")
		}
	}
}

func (s *Service) persistResult(ctx context.Context, runID string, cas *domain.Case, result *domain.DebateResult, breakdown scoring.ScoreBreakdown) error {
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("service: marshal breakdown: %w", err)
	}
	caseResult := &domain.CaseResult{
		ResultID:   "res_" + uuid.New().String()[:8],
		RunID:      runID,
		CaseID:     cas.CaseID,
		ModelKey:   s.config.ModelKey,
		Verdict:    result.JudgeDecision.Verdict,
		Confidence: result.JudgeDecision.Confidence,
		TotalScore: float64(breakdown.Total),
		Passed:     breakdown.Passed,
		Breakdown:  breakdownJSON,
		LatencyMs:  result.TotalLatencyMs,
		Cost:       result.TotalCost,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateCaseResult(ctx, caseResult); err != nil {
		return err
	}
	return s.recordEvent(ctx, runID, domain.EventTypeCaseResult, domain.ResultPayload{
		CaseID:     cas.CaseID,
		ModelKey:   s.config.ModelKey,
		Verdict:    caseResult.Verdict,
		TotalScore: caseResult.TotalScore,
		Passed:     caseResult.Passed,
	})
}

// recordZeroScore writes the explicit zero result for a case that failed
// outside the protocol's own degradation paths.
func (s *Service) recordZeroScore(ctx context.Context, runID string, cas *domain.Case, cause error) {
	breakdownJSON, _ := json.Marshal(scoring.ScoreBreakdown{
		CriticalFail:   true,
		CriticalReason: cause.Error(),
	})
	caseResult := &domain.CaseResult{
		ResultID:  "res_" + uuid.New().String()[:8],
		RunID:     runID,
		CaseID:    cas.CaseID,
		ModelKey:  s.config.ModelKey,
		Verdict:   domain.VerdictInsufficient,
		Breakdown: breakdownJSON,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateCaseResult(ctx, caseResult); err != nil {
		s.log.WithError(err).WithField("case_id", cas.CaseID).Error("failed to record zero-score result")
		return
	}
	if err := s.recordEvent(ctx, runID, domain.EventTypeCaseResult, domain.ResultPayload{
		CaseID:   cas.CaseID,
		ModelKey: s.config.ModelKey,
		Verdict:  domain.VerdictInsufficient,
	}); err != nil {
		s.log.WithError(err).Warn("failed to record zero-score event")
	}
}

// finishRun forces the run into a terminal state. Runs on every exit path,
// including after the caller's context died, so it uses its own deadline.
func (s *Service) finishRun(runID string, status domain.RunStatus, eventType domain.EventType, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errData []byte
	if cause != nil {
		errData, _ = json.Marshal(map[string]string{"message": cause.Error()})
	}
	if err := s.store.UpdateRunCompleted(ctx, runID, status, errData); err != nil {
		s.log.WithError(err).Error("failed to finalize run")
	}
	if err := s.recordEvent(ctx, runID, eventType, nil); err != nil {
		s.log.WithError(err).Error("failed to append terminal event")
	}
}
