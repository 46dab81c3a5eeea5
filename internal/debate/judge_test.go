package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/domain"
)

func TestParseJudgeDecisionTOML(t *testing.T) {
	raw := `verdict = "supported"
confidence = 0.85
evidence_used = ["e1", "e2"]
reasoning = "the ledger is decisive"`

	decision, ok := parseJudgeDecision(raw)
	require.True(t, ok)
	assert.Equal(t, domain.VerdictSupported, decision.Verdict)
	assert.Equal(t, 0.85, decision.Confidence)
	assert.Equal(t, []string{"e1", "e2"}, decision.EvidenceUsed)
}

func TestParseJudgeDecisionJSONFallback(t *testing.T) {
	raw := `{"verdict": "refuted", "confidence": 0.7, "evidence_used": ["e3"], "reasoning": "contradicted"}`
	decision, ok := parseJudgeDecision(raw)
	require.True(t, ok)
	assert.Equal(t, domain.VerdictRefuted, decision.Verdict)
	assert.Equal(t, []string{"e3"}, decision.EvidenceUsed)
}

func TestParseJudgeDecisionFencedJSON(t *testing.T) {
	raw := "Here is my ruling:\n```json\n{\"verdict\": \"insufficient\", \"confidence\": 0.3, \"reasoning\": \"thin evidence\"}\n```"
	decision, ok := parseJudgeDecision(raw)
	require.True(t, ok)
	assert.Equal(t, domain.VerdictInsufficient, decision.Verdict)
	assert.Equal(t, []string{}, decision.EvidenceUsed)
}

func TestParseJudgeDecisionEmbeddedJSON(t *testing.T) {
	raw := `After weighing the arguments I rule as follows: {"verdict": "supported", "confidence": 0.9, "reasoning": "clear"} and that is final.`
	decision, ok := parseJudgeDecision(raw)
	require.True(t, ok)
	assert.Equal(t, domain.VerdictSupported, decision.Verdict)
}

func TestParseJudgeDecisionUnparseableFallsBack(t *testing.T) {
	decision, ok := parseJudgeDecision("I find this case fascinating but will not rule.")
	assert.False(t, ok)
	assert.Equal(t, domain.VerdictInsufficient, decision.Verdict)
	assert.Equal(t, 0.0, decision.Confidence)
	assert.Equal(t, []string{}, decision.EvidenceUsed)
	assert.Equal(t, "parse failure", decision.Reasoning)
}
