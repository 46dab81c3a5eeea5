package service

import (
	"context"
	"encoding/json"
	"time"

	"tribunal/internal/domain"
)

// recordEvent appends one event to a run's log. Payload may be nil.
func (s *Service) recordEvent(ctx context.Context, runID string, eventType domain.EventType, payload interface{}) error {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = b
	}
	return s.store.AppendEvent(ctx, &domain.RunEvent{
		RunID:     runID,
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now(),
	})
}
