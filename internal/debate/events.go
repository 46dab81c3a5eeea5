package debate

import "tribunal/internal/domain"

// Event is one typed notification from the protocol engine: either a phase
// boundary or an emitted message. The engine sends events into the caller's
// channel and does not know what the consumer does with them (persistence,
// streaming, both, or neither).
type Event struct {
	Type    domain.EventType
	CaseID  string
	Phase   domain.Phase
	Role    domain.Role
	Round   int
	Content string
}

// emit delivers an event, remaining responsive to cancellation. The caller
// sizes the channel; a nil channel disables emission.
func (e *Engine) emit(ctx cancellable, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

type cancellable interface {
	Done() <-chan struct{}
}
