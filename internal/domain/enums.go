// Package domain defines the core domain models for the debate evaluator.
package domain

// Role identifies one of the four fixed debate participants.
type Role string

const (
	RoleAdvocateFor     Role = "advocate_for"
	RoleAdvocateAgainst Role = "advocate_against"
	RoleSkeptic         Role = "skeptic"
	RoleJudge           Role = "judge"
)

// DebaterRoles lists the three non-judge roles in their fixed order.
var DebaterRoles = []Role{RoleAdvocateFor, RoleAdvocateAgainst, RoleSkeptic}

// TargetBoth addresses a cross-exam question to both advocates.
const TargetBoth = "both"

// Phase represents one stage of the debate protocol.
type Phase string

const (
	PhaseSetup       Phase = "setup"
	PhaseIndependent Phase = "independent"
	PhaseCrossExam   Phase = "cross_exam"
	PhaseRevision    Phase = "revision"
	PhaseDispute     Phase = "dispute"
	PhaseJudge       Phase = "judge"
)

// Verdict is the closed set of positions a role may take on a claim.
type Verdict string

const (
	VerdictSupported    Verdict = "supported"
	VerdictRefuted      Verdict = "refuted"
	VerdictInsufficient Verdict = "insufficient"
)

// KnownVerdict reports whether v is one of the recognized verdict tags.
func KnownVerdict(v Verdict) bool {
	switch v {
	case VerdictSupported, VerdictRefuted, VerdictInsufficient:
		return true
	}
	return false
}

// RunStatus represents the status of an evaluation or replay run.
type RunStatus string

const (
	RunStatusCreated   RunStatus = "CREATED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusDone      RunStatus = "DONE"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminalRunStatus reports whether a run can no longer change state.
func IsTerminalRunStatus(status RunStatus) bool {
	switch status {
	case RunStatusDone, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// RunKind distinguishes fresh evaluations from cache-served replays.
type RunKind string

const (
	RunKindEvaluate RunKind = "evaluate"
	RunKindReplay   RunKind = "replay"
)

// EventType represents the type of a run event.
type EventType string

const (
	EventTypeRunStarted    EventType = "run_started"
	EventTypePhaseStarted  EventType = "phase_started"
	EventTypeDebateMessage EventType = "debate_message"
	EventTypeCaseResult    EventType = "case_result"
	EventTypeRunDone       EventType = "run_done"
	EventTypeRunFailed     EventType = "run_failed"
	EventTypeRunCancelled  EventType = "run_cancelled"
)
