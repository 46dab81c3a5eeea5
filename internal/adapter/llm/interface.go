// Package llm provides the model-completion port for the debate engine.
package llm

import "context"

// CompletionRequest is one prompt sent to the model.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
}

// Completion is the model's reply with accounting data.
type Completion struct {
	Text         string
	LatencyMs    int64
	CostEstimate float64
}

// CompletionClient is the model-completion port. Implementations own their
// retry/backoff for transient provider errors; quota exhaustion must
// short-circuit retries and surface as ErrQuotaExhausted.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Ensure Client implements CompletionClient.
var _ CompletionClient = (*Client)(nil)
