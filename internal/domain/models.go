package domain

import (
	"encoding/json"
	"time"
)

// EvidencePacket is a single immutable piece of evidence supplied per case.
type EvidencePacket struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Summary string `json:"summary" yaml:"summary" toml:"summary"`
	Source  string `json:"source" yaml:"source" toml:"source"`
	Date    string `json:"date" yaml:"date" toml:"date"`
}

// Case is the read-only input to one debate run.
type Case struct {
	CaseID          string           `json:"case_id" yaml:"case_id"`
	Topic           string           `json:"topic" yaml:"topic"`
	Claim           string           `json:"claim" yaml:"claim"`
	PressureScore   float64          `json:"pressure_score" yaml:"pressure_score"`
	EvidencePackets []EvidencePacket `json:"evidence_packets" yaml:"evidence_packets"`
	Label           Verdict          `json:"label" yaml:"label"`
	SafeToAnswer    bool             `json:"safe_to_answer" yaml:"safe_to_answer"`
}

// EvidenceIDs returns the ids of the case's evidence packets.
func (c *Case) EvidenceIDs() []string {
	ids := make([]string, 0, len(c.EvidencePackets))
	for _, p := range c.EvidencePackets {
		ids = append(ids, p.ID)
	}
	return ids
}

// JudgeDecision is the judge's final ruling, the only structure the scoring
// engine consumes.
type JudgeDecision struct {
	Verdict      Verdict  `json:"verdict" toml:"verdict"`
	Confidence   float64  `json:"confidence" toml:"confidence"`
	EvidenceUsed []string `json:"evidence_used" toml:"evidence_used"`
	Reasoning    string   `json:"reasoning" toml:"reasoning"`
}

// DebateMessage is one validated, serialized exchange in the transcript.
// Messages are append-only and ordered by emission.
type DebateMessage struct {
	MessageID string    `json:"message_id"`
	RunID     string    `json:"run_id"`
	CaseID    string    `json:"case_id"`
	ModelKey  string    `json:"model_key"`
	Role      Role      `json:"role"`
	Phase     Phase     `json:"phase"`
	Round     int       `json:"round"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DebateResult is the output of one (case, model) debate, owned by the run
// orchestrator until folded into persisted rows.
type DebateResult struct {
	Messages       []DebateMessage `json:"messages"`
	JudgeDecision  JudgeDecision   `json:"judge_decision"`
	TotalLatencyMs int64           `json:"total_latency_ms"`
	TotalCost      float64         `json:"total_cost"`
}

// CaseResult is the scored, persisted outcome of one case evaluation.
type CaseResult struct {
	ResultID   string          `json:"result_id"`
	RunID      string          `json:"run_id"`
	CaseID     string          `json:"case_id"`
	ModelKey   string          `json:"model_key"`
	Verdict    Verdict         `json:"verdict"`
	Confidence float64         `json:"confidence"`
	TotalScore float64         `json:"total_score"`
	Passed     bool            `json:"passed"`
	Breakdown  json.RawMessage `json:"breakdown,omitempty"`
	LatencyMs  int64           `json:"latency_ms"`
	Cost       float64         `json:"cost"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Run represents one evaluation or replay execution.
type Run struct {
	RunID       string          `json:"run_id"`
	DatasetID   string          `json:"dataset_id"`
	ModelKey    string          `json:"model_key"`
	Kind        RunKind         `json:"kind"`
	SourceRunID string          `json:"source_run_id,omitempty"`
	Status      RunStatus       `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
}

// RunEvent is one entry in a run's append-only event log. Seq is strictly
// increasing and gapless per run; the replay engine replays from this log.
type RunEvent struct {
	RunID     string          `json:"run_id"`
	Seq       int64           `json:"seq"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// CachedResultSetSlot points at a previously completed run that can be
// replayed instead of recomputed. Unique on (dataset, model, case, slot);
// expires_at is fixed at creation and a slot is live iff it is in the future.
type CachedResultSetSlot struct {
	DatasetID    string     `json:"dataset_id"`
	ModelKey     string     `json:"model_key"`
	CaseID       string     `json:"case_id"`
	SlotNumber   int        `json:"slot_number"`
	SourceRunID  string     `json:"source_run_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastServedAt *time.Time `json:"last_served_at,omitempty"`
}

// Live reports whether the slot is servable at the given instant.
func (s *CachedResultSetSlot) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// MessagePayload is the run-event payload for a debate message. It carries
// the composite key the replay engine re-links stored messages by.
type MessagePayload struct {
	MessageID string `json:"message_id"`
	CaseID    string `json:"case_id"`
	ModelKey  string `json:"model_key"`
	Role      Role   `json:"role"`
	Phase     Phase  `json:"phase"`
	Round     int    `json:"round"`
}

// PhasePayload is the run-event payload for a phase boundary.
type PhasePayload struct {
	CaseID string `json:"case_id"`
	Phase  Phase  `json:"phase"`
}

// ResultPayload is the run-event payload for a scored case result.
type ResultPayload struct {
	CaseID     string  `json:"case_id"`
	ModelKey   string  `json:"model_key"`
	Verdict    Verdict `json:"verdict"`
	TotalScore float64 `json:"total_score"`
	Passed     bool    `json:"passed"`
}
