package llm

import (
	"context"
	"strings"
)

// MockClient is an offline CompletionClient for local runs and tests. It
// inspects the prompt for the requested output schema and returns a minimal
// valid document for it.
type MockClient struct{}

// NewMockClient creates a new mock completion client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ CompletionClient = (*MockClient)(nil)

// Complete returns a canned, schema-shaped response.
func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	return &Completion{
		Text:         m.cannedResponse(req.Prompt),
		LatencyMs:    1,
		CostEstimate: 0,
	}, nil
}

// cannedResponse dispatches on the instruction line rather than the schema,
// since later prompts quote earlier messages (and their schemas) verbatim.
func (m *MockClient) cannedResponse(prompt string) string {
	switch {
	case strings.Contains(prompt, "Rule on the claim"):
		return "verdict = \"insufficient\"\nconfidence = 0.5\nevidence_used = []\nreasoning = \"mock judge reasoning\"\n"
	case strings.Contains(prompt, "The skeptic's decisive question"):
		return "question = \"mock dispute question\"\ntext = \"mock dispute answer\"\nevidence_refs = []\nadmission = \"none\"\n"
	case strings.Contains(prompt, "Ask ONE decisive question"):
		return "to = \"both\"\ntext = \"mock dispute question\"\nevidence_refs = []\n"
	case strings.Contains(prompt, "Revise your position"):
		return "final_verdict = \"insufficient\"\nevidence_used = []\nwhat_changed = []\nremaining_disagreements = []\nconfidence = 0.5\n"
	case strings.Contains(prompt, "Answer each question directly"):
		return "[[answers]]\nquestion = \"mock question\"\ntext = \"mock answer\"\nevidence_refs = []\nadmission = \"none\"\n"
	case strings.Contains(prompt, "Ask 1-2"):
		return "[[questions]]\nto = \"advocate_for\"\ntext = \"mock question\"\nevidence_refs = []\n"
	default:
		return "verdict = \"insufficient\"\nevidence_used = []\nkey_points = [\"mock proposal\"]\nuncertainties = [\"uncertain about everything\"]\nwhat_would_change_my_mind = [\"real evidence\"]\n"
	}
}
