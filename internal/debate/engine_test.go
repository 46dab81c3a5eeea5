package debate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/adapter/llm"
	"tribunal/internal/domain"
)

// scriptedClient answers each prompt with schema-shaped TOML keyed off the
// instruction text, so a full protocol run can execute without a provider.
type scriptedClient struct {
	diverge bool
	calls   int
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.calls++

	p := req.Prompt
	var text string
	switch {
	case strings.Contains(p, "Rule on the claim"):
		text = `verdict = "supported"
confidence = 0.9
evidence_used = ["e1"]
reasoning = "the evidence shows the mechanism holds"`
	case strings.Contains(p, "The skeptic's decisive question"):
		text = `question = "What gap remains?"
text = "The dating evidence settles it."
evidence_refs = ["e1"]
admission = "none"`
	case strings.Contains(p, "Ask ONE decisive question"):
		text = `to = "both"
text = "What single observation would falsify your verdict?"
evidence_refs = ["e1"]`
	case strings.Contains(p, "Revise your position"):
		text = c.revisionFor(p)
	case strings.Contains(p, "Answer each question directly"):
		text = `[[answers]]
question = "Why e1?"
text = "Because e1 is the only primary source."
evidence_refs = ["e1"]
admission = "none"`
	case strings.Contains(p, "Ask 1-2"):
		text = `[[questions]]
to = "both"
text = "Why does e1 outweigh e2?"
evidence_refs = ["e1", "e2"]`
	default:
		text = `verdict = "supported"
evidence_used = ["e1", "e2"]
key_points = ["e1 is primary"]
uncertainties = []
what_would_change_my_mind = ["a contradicting primary source"]`
	}
	return &llm.Completion{Text: text, LatencyMs: 5, CostEstimate: 0.0001}, nil
}

func (c *scriptedClient) revisionFor(prompt string) string {
	if !c.diverge {
		return `final_verdict = "supported"
evidence_used = ["e1", "e2"]
what_changed = []
remaining_disagreements = []
confidence = 0.8`
	}
	switch {
	case strings.Contains(prompt, "claim is SUPPORTED"):
		return `final_verdict = "supported"
evidence_used = ["e1"]
what_changed = []
remaining_disagreements = ["the control data directly contradicts the mechanism"]
confidence = 0.7`
	default:
		return `final_verdict = "refuted"
evidence_used = ["e3"]
what_changed = []
remaining_disagreements = ["e1 is a secondary source"]
confidence = 0.7`
	}
}

func testCase() *domain.Case {
	return &domain.Case{
		CaseID:       "case-1",
		Topic:        "materials",
		Claim:        "The alloy resists corrosion at high temperature.",
		SafeToAnswer: true,
		Label:        domain.VerdictSupported,
		EvidencePackets: []domain.EvidencePacket{
			{ID: "e1", Summary: "salt spray test report", Source: "lab", Date: "2024-01-01"},
			{ID: "e2", Summary: "field inspection notes", Source: "plant", Date: "2024-02-01"},
			{ID: "e3", Summary: "competing alloy study", Source: "journal", Date: "2023-11-01"},
		},
	}
}

func runEngine(t *testing.T, client llm.CompletionClient) (*domain.DebateResult, []Event) {
	t.Helper()

	engine := New(client, 5*time.Second, 0.4, logrus.New())
	events := make(chan Event, 128)

	result, err := engine.Run(context.Background(), testCase(), events)
	require.NoError(t, err)
	require.NotNil(t, result)

	var collected []Event
	for {
		select {
		case ev := <-events:
			collected = append(collected, ev)
		default:
			return result, collected
		}
	}
}

func phaseSequence(events []Event) []domain.Phase {
	var phases []domain.Phase
	for _, ev := range events {
		if ev.Type == domain.EventTypePhaseStarted {
			phases = append(phases, ev.Phase)
		}
	}
	return phases
}

func TestRunConvergedSkipsDispute(t *testing.T) {
	result, events := runEngine(t, &scriptedClient{})

	assert.Equal(t, []domain.Phase{
		domain.PhaseSetup,
		domain.PhaseIndependent,
		domain.PhaseCrossExam,
		domain.PhaseRevision,
		domain.PhaseJudge,
	}, phaseSequence(events))

	// 3 proposals + 7 cross-exam steps + 3 revisions + 1 judge ruling.
	assert.Len(t, result.Messages, 14)
	assert.Equal(t, domain.VerdictSupported, result.JudgeDecision.Verdict)
	assert.Positive(t, result.TotalCost)
}

func TestRunDivergedRunsDispute(t *testing.T) {
	result, events := runEngine(t, &scriptedClient{diverge: true})

	assert.Equal(t, []domain.Phase{
		domain.PhaseSetup,
		domain.PhaseIndependent,
		domain.PhaseCrossExam,
		domain.PhaseRevision,
		domain.PhaseDispute,
		domain.PhaseJudge,
	}, phaseSequence(events))

	var dispute []domain.DebateMessage
	for _, m := range result.Messages {
		if m.Phase == domain.PhaseDispute {
			dispute = append(dispute, m)
		}
	}
	// One skeptic question, one answer per advocate. Never more.
	require.Len(t, dispute, 3)
	assert.Equal(t, domain.RoleSkeptic, dispute[0].Role)
	assert.Equal(t, domain.RoleAdvocateFor, dispute[1].Role)
	assert.Equal(t, domain.RoleAdvocateAgainst, dispute[2].Role)
}

func TestRunCrossExamOrder(t *testing.T) {
	result, _ := runEngine(t, &scriptedClient{})

	var roles []domain.Role
	for _, m := range result.Messages {
		if m.Phase == domain.PhaseCrossExam {
			roles = append(roles, m.Role)
		}
	}
	assert.Equal(t, []domain.Role{
		domain.RoleAdvocateFor,
		domain.RoleAdvocateAgainst,
		domain.RoleAdvocateAgainst,
		domain.RoleAdvocateFor,
		domain.RoleSkeptic,
		domain.RoleAdvocateFor,
		domain.RoleAdvocateAgainst,
	}, roles)

	// Rounds are sequential step numbers so (role, phase, round) is unique.
	step := 0
	for _, m := range result.Messages {
		if m.Phase != domain.PhaseCrossExam {
			continue
		}
		step++
		assert.Equal(t, step, m.Round)
	}
	assert.Equal(t, 7, step)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := New(&scriptedClient{}, 5*time.Second, 0.4, logrus.New())
	_, err := engine.Run(ctx, testCase(), nil)
	require.Error(t, err)
}

func TestRunQuotaExhaustedAborts(t *testing.T) {
	engine := New(&quotaClient{}, 5*time.Second, 0.4, logrus.New())
	_, err := engine.Run(context.Background(), testCase(), nil)
	require.ErrorIs(t, err, llm.ErrQuotaExhausted)
}

type quotaClient struct{}

func (c *quotaClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	return nil, llm.ErrQuotaExhausted
}
