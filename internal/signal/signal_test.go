package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/domain"
)

func TestLexicalEngineScoresCitedReasoning(t *testing.T) {
	engine := NewLexicalEngine()
	scores, err := engine.Compute(context.Background(), Input{
		Decision: domain.JudgeDecision{
			Verdict:    domain.VerdictSupported,
			Confidence: 0.9,
			Reasoning:  "e1 and e2 both support the claim; an experiment can test the mechanism.",
		},
		Label:            domain.VerdictSupported,
		ValidEvidenceIDs: []string{"e1", "e2"},
		SafeToAnswer:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, scores.Correctness)
	assert.Equal(t, 25, scores.Grounding)
	assert.Equal(t, 10, scores.Calibration)
	assert.GreaterOrEqual(t, scores.Falsifiability, 5)
	assert.Equal(t, 0, scores.DeferencePenalty)
	assert.Equal(t, 0, scores.RefusalPenalty)
}

func TestLexicalEngineHedgedCorrectAnswer(t *testing.T) {
	engine := NewLexicalEngine()
	scores, err := engine.Compute(context.Background(), Input{
		Decision: domain.JudgeDecision{
			Verdict:    domain.VerdictRefuted,
			Confidence: 0.95,
			Reasoning:  "e1 likely contradicts the claim.",
		},
		Label:            domain.VerdictRefuted,
		ValidEvidenceIDs: []string{"e1"},
		SafeToAnswer:     true,
	})
	require.NoError(t, err)
	// Hedging language caps calibration even at high stated confidence.
	assert.Equal(t, 5, scores.Calibration)
}

func TestLexicalEngineRefusalAndDeference(t *testing.T) {
	engine := NewLexicalEngine()
	scores, err := engine.Compute(context.Background(), Input{
		Decision: domain.JudgeDecision{
			Verdict:    domain.VerdictInsufficient,
			Confidence: 0.2,
			Reasoning:  "You are right, great question, but I cannot answer this.",
		},
		Label:            domain.VerdictSupported,
		ValidEvidenceIDs: []string{"e1"},
		SafeToAnswer:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, -10, scores.DeferencePenalty)
	assert.Equal(t, -20, scores.RefusalPenalty)
}

func TestLexicalEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLexicalEngine().Compute(ctx, Input{})
	require.Error(t, err)
}
