package debate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"tribunal/internal/codec"
	"tribunal/internal/domain"
)

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// fallbackJudgeDecision is returned on irrecoverable judge parse failure.
// The judge is deliberately not retried: the debate cannot be re-run once
// all prior phases are spent.
func fallbackJudgeDecision() domain.JudgeDecision {
	return domain.JudgeDecision{
		Verdict:      domain.VerdictInsufficient,
		Confidence:   0,
		EvidenceUsed: []string{},
		Reasoning:    "parse failure",
	}
}

// serializeJudgeDecision renders the decision in the wire form stored on the
// transcript.
func serializeJudgeDecision(d *domain.JudgeDecision) (string, error) {
	if d.EvidenceUsed == nil {
		d.EvidenceUsed = []string{}
	}
	out, err := toml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("debate: marshal judge decision: %w", err)
	}
	return string(out), nil
}

// parseJudgeDecision parses judge output TOML-first with a JSON fallback.
// Validation here only requires a verdict tag to be present; the scoring
// engine's critical-fail gate owns range and tag checks.
func parseJudgeDecision(raw string) (domain.JudgeDecision, bool) {
	var decision domain.JudgeDecision
	if err := codec.Parse(raw, &decision); err == nil && decision.Verdict != "" {
		if decision.EvidenceUsed == nil {
			decision.EvidenceUsed = []string{}
		}
		return decision, true
	}

	if decision, ok := parseJudgeJSON(raw); ok {
		return decision, true
	}
	return fallbackJudgeDecision(), false
}

func parseJudgeJSON(raw string) (domain.JudgeDecision, bool) {
	try := func(text string) (domain.JudgeDecision, bool) {
		var d domain.JudgeDecision
		if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &d); err == nil && d.Verdict != "" {
			if d.EvidenceUsed == nil {
				d.EvidenceUsed = []string{}
			}
			return d, true
		}
		return domain.JudgeDecision{}, false
	}

	if d, ok := try(raw); ok {
		return d, true
	}
	if m := jsonFenceRe.FindStringSubmatch(raw); len(m) > 1 {
		if d, ok := try(m[1]); ok {
			return d, true
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if d, ok := try(raw[start : end+1]); ok {
			return d, true
		}
	}
	return domain.JudgeDecision{}, false
}
