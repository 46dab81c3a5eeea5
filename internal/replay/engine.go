package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tribunal/internal/domain"
	"tribunal/internal/store"
)

// Engine replays one completed run's event log as a new run, re-deriving
// each stored message and result and inserting fresh rows scoped to the new
// run id.
type Engine struct {
	store       store.Store
	log         *logrus.Entry
	attachDelay time.Duration
}

// NewEngine creates a replay engine.
func NewEngine(s store.Store, log *logrus.Logger) *Engine {
	return &Engine{
		store:       s,
		log:         log.WithField("component", "replay"),
		attachDelay: attachDelay,
	}
}

// Execute replays sourceRunID's events under runID. The replay run always
// ends in a terminal state with a terminal event, whatever goes wrong
// mid-stream; individual lookup misses are logged and skipped.
func (e *Engine) Execute(ctx context.Context, runID, sourceRunID string) error {
	log := e.log.WithFields(logrus.Fields{"run_id": runID, "source_run_id": sourceRunID})

	source, events, err := e.validateSource(ctx, sourceRunID)
	if err != nil {
		e.finish(runID, domain.RunStatusFailed, domain.EventTypeRunFailed, err)
		return err
	}

	if err := e.store.UpdateRunStatus(ctx, runID, domain.RunStatusRunning); err != nil {
		e.finish(runID, domain.RunStatusFailed, domain.EventTypeRunFailed, err)
		return err
	}

	if err := sleepCtx(ctx, e.attachDelay); err != nil {
		e.finish(runID, domain.RunStatusCancelled, domain.EventTypeRunCancelled, err)
		return err
	}

	schedule := computeSchedule(events)
	for i, event := range events {
		if err := sleepCtx(ctx, schedule[i]); err != nil {
			e.finish(runID, domain.RunStatusCancelled, domain.EventTypeRunCancelled, err)
			return err
		}
		if err := e.replayEvent(ctx, runID, source, &event); err != nil {
			e.finish(runID, domain.RunStatusFailed, domain.EventTypeRunFailed, err)
			return err
		}
	}

	log.WithField("events", len(events)).Info("replay complete")
	e.finish(runID, domain.RunStatusDone, domain.EventTypeRunDone, nil)
	return nil
}

// validateSource requires a completed source run with at least one event.
func (e *Engine) validateSource(ctx context.Context, sourceRunID string) (*domain.Run, []domain.RunEvent, error) {
	source, err := e.store.GetRun(ctx, sourceRunID)
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		return nil, nil, fmt.Errorf("replay: source run %s not found", sourceRunID)
	}
	if source.Status != domain.RunStatusDone {
		return nil, nil, fmt.Errorf("replay: source run %s is %s, not %s", sourceRunID, source.Status, domain.RunStatusDone)
	}
	events, err := e.store.GetEvents(ctx, sourceRunID)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return nil, nil, fmt.Errorf("replay: source run %s has no events", sourceRunID)
	}
	return source, events, nil
}

// replayEvent re-derives the stored row behind one source event, inserts a
// copy under the new run, and re-emits the event. A lookup miss drops the
// event but not the replay.
func (e *Engine) replayEvent(ctx context.Context, runID string, source *domain.Run, event *domain.RunEvent) error {
	payload := event.Payload

	switch event.Type {
	case domain.EventTypeDebateMessage:
		var p domain.MessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			e.log.WithError(err).WithField("seq", event.Seq).Warn("unreadable message payload, skipping event")
			return nil
		}
		msg, err := e.store.GetDebateMessage(ctx, source.RunID, p.CaseID, p.ModelKey, p.Role, p.Phase, p.Round)
		if err != nil {
			return err
		}
		if msg == nil {
			e.log.WithFields(logrus.Fields{
				"case_id": p.CaseID, "role": p.Role, "phase": p.Phase, "round": p.Round,
			}).Warn("source message not found, skipping event")
			return nil
		}
		copied := *msg
		copied.MessageID = "msg_" + uuid.New().String()[:8]
		copied.RunID = runID
		copied.CreatedAt = time.Now()
		if err := e.store.CreateDebateMessage(ctx, &copied); err != nil {
			return err
		}
		p.MessageID = copied.MessageID
		payload, _ = json.Marshal(p)

	case domain.EventTypeCaseResult:
		var p domain.ResultPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			e.log.WithError(err).WithField("seq", event.Seq).Warn("unreadable result payload, skipping event")
			return nil
		}
		result, err := e.store.GetCaseResult(ctx, source.RunID, p.CaseID, p.ModelKey)
		if err != nil {
			return err
		}
		if result == nil {
			e.log.WithFields(logrus.Fields{
				"case_id": p.CaseID, "model_key": p.ModelKey,
			}).Warn("source result not found, skipping event")
			return nil
		}
		copied := *result
		copied.ResultID = "res_" + uuid.New().String()[:8]
		copied.RunID = runID
		copied.CreatedAt = time.Now()
		if err := e.store.CreateCaseResult(ctx, &copied); err != nil {
			return err
		}
	}

	return e.store.AppendEvent(ctx, &domain.RunEvent{
		RunID:     runID,
		Type:      event.Type,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
}

// finish forces the replay run into a terminal state and appends the
// matching terminal event. Best-effort by design: it runs on every exit
// path, including after a cancelled context, so it uses its own deadline.
func (e *Engine) finish(runID string, status domain.RunStatus, eventType domain.EventType, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errData []byte
	if cause != nil {
		errData, _ = json.Marshal(map[string]string{"message": cause.Error()})
	}
	if err := e.store.UpdateRunCompleted(ctx, runID, status, errData); err != nil {
		e.log.WithError(err).Error("failed to finalize replay run")
	}
	if err := e.store.AppendEvent(ctx, &domain.RunEvent{
		RunID:     runID,
		Type:      eventType,
		Payload:   errData,
		CreatedAt: time.Now(),
	}); err != nil {
		e.log.WithError(err).Error("failed to append terminal replay event")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
