// Package debate implements the multi-phase debate protocol engine.
package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tribunal/internal/adapter/llm"
	"tribunal/internal/codec"
	"tribunal/internal/domain"
)

const crossExamSteps = 7

// Engine drives one case through the fixed debate protocol:
// Setup, Independent, CrossExam, Revision, optionally Dispute, Judge.
type Engine struct {
	client           llm.CompletionClient
	stepTimeout      time.Duration
	jaccardThreshold float64
	log              *logrus.Entry
}

// New creates a protocol engine bound to a completion port.
func New(client llm.CompletionClient, stepTimeout time.Duration, jaccardThreshold float64, log *logrus.Logger) *Engine {
	return &Engine{
		client:           client,
		stepTimeout:      stepTimeout,
		jaccardThreshold: jaccardThreshold,
		log:              log.WithField("component", "debate"),
	}
}

// debateRun holds the mutable state of one case evaluation.
type debateRun struct {
	cas    *domain.Case
	events chan<- Event
	result *domain.DebateResult
	memo   *domain.SharedMemo

	proposalTexts map[domain.Role]string
	revisions     map[domain.Role]domain.Revision
	revisionTexts map[domain.Role]string
}

// Run executes the full protocol for one case and returns the transcript and
// judge decision. Events are sent into the caller-sized channel as the run
// progresses. The returned error is non-nil only when the run cannot
// continue at all (cancellation or quota exhaustion); every recoverable
// failure degrades to safe fallback data instead.
func (e *Engine) Run(ctx context.Context, cas *domain.Case, events chan<- Event) (*domain.DebateResult, error) {
	r := &debateRun{
		cas:           cas,
		events:        events,
		result:        &domain.DebateResult{Messages: []domain.DebateMessage{}},
		memo:          domain.NewSharedMemo(),
		proposalTexts: make(map[domain.Role]string),
		revisions:     make(map[domain.Role]domain.Revision),
		revisionTexts: make(map[domain.Role]string),
	}

	e.startPhase(ctx, r, domain.PhaseSetup)

	if err := e.runIndependent(ctx, r); err != nil {
		return nil, err
	}
	if err := e.runCrossExam(ctx, r); err != nil {
		return nil, err
	}
	if err := e.runRevision(ctx, r); err != nil {
		return nil, err
	}

	if shouldSkipDispute(r.revisions, e.jaccardThreshold) {
		e.log.WithField("case_id", cas.CaseID).Info("revisions converged, skipping dispute")
	} else if err := e.runDispute(ctx, r); err != nil {
		return nil, err
	}

	if err := e.runJudge(ctx, r); err != nil {
		return nil, err
	}
	return r.result, nil
}

func (e *Engine) startPhase(ctx context.Context, r *debateRun, phase domain.Phase) {
	e.emit(ctx, r.events, Event{
		Type:   domain.EventTypePhaseStarted,
		CaseID: r.cas.CaseID,
		Phase:  phase,
	})
}

func (e *Engine) addMessage(ctx context.Context, r *debateRun, role domain.Role, phase domain.Phase, round int, content string) {
	r.result.Messages = append(r.result.Messages, domain.DebateMessage{
		CaseID:    r.cas.CaseID,
		Role:      role,
		Phase:     phase,
		Round:     round,
		Content:   content,
		CreatedAt: time.Now(),
	})
	e.emit(ctx, r.events, Event{
		Type:    domain.EventTypeDebateMessage,
		CaseID:  r.cas.CaseID,
		Phase:   phase,
		Role:    role,
		Round:   round,
		Content: content,
	})
}

// runIndependent issues the three proposal calls in parallel. A call that
// still fails after the codec's retry-once rule yields the safe fallback
// proposal rather than aborting the case.
func (e *Engine) runIndependent(ctx context.Context, r *debateRun) error {
	e.startPhase(ctx, r, domain.PhaseIndependent)

	shape := codec.ProposalShape()
	results := make([]codec.StructuredResult[domain.Proposal], len(domain.DebaterRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range domain.DebaterRoles {
		i, role := i, role
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.stepTimeout)
			defer cancel()
			res, err := codec.CallStructured(callCtx, e.client, proposalPrompt(role, r.cas, shape.Schema), shape, e.log)
			if err != nil && ctx.Err() == nil && !isQuota(err) {
				// Per-call timeout: degrade to the fallback already set.
				err = nil
			}
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("debate: independent phase: %w", err)
	}

	for i, role := range domain.DebaterRoles {
		proposal := results[i].Value
		text, err := codec.Serialize(&proposal)
		if err != nil {
			return fmt.Errorf("debate: serialize proposal: %w", err)
		}
		r.proposalTexts[role] = text
		r.memo.RecordProposal(role, &proposal)
		r.result.TotalCost += results[i].Cost
		r.result.TotalLatencyMs += results[i].Latency
		e.addMessage(ctx, r, role, domain.PhaseIndependent, 1, text)
	}
	return nil
}

// runCrossExam runs exactly seven sequential exchanges in fixed order, so
// every pair has exchanged one question and one answer before Revision. The
// whole sequence shares one outer timeout budget; on outer timeout the phase
// is abandoned and the engine proceeds with whatever was captured.
func (e *Engine) runCrossExam(ctx context.Context, r *debateRun) error {
	e.startPhase(ctx, r, domain.PhaseCrossExam)

	phaseCtx, cancel := context.WithTimeout(ctx, time.Duration(crossExamSteps)*e.stepTimeout)
	defer cancel()

	memo := r.memo.Render()
	step := 0

	ask := func(asker, target domain.Role) (string, error) {
		step++
		var prompt string
		if target == "" {
			prompt = bothQuestionPrompt(asker, r.cas, r.proposalTexts[domain.RoleAdvocateFor], r.proposalTexts[domain.RoleAdvocateAgainst], memo, codec.QuestionsShape().Schema)
		} else {
			prompt = questionPrompt(asker, target, r.cas, r.proposalTexts[asker], r.proposalTexts[target], memo, codec.QuestionsShape().Schema)
		}
		return timedCall(e, phaseCtx, r, asker, domain.PhaseCrossExam, step, prompt, codec.QuestionsShape())
	}
	answer := func(target domain.Role, questions string) (string, error) {
		step++
		prompt := answerPrompt(target, r.cas, r.proposalTexts[target], questions, memo, codec.AnswersShape().Schema)
		return timedCall(e, phaseCtx, r, target, domain.PhaseCrossExam, step, prompt, codec.AnswersShape())
	}

	run := func() error {
		q1, err := ask(domain.RoleAdvocateFor, domain.RoleAdvocateAgainst)
		if err != nil {
			return err
		}
		if _, err := answer(domain.RoleAdvocateAgainst, q1); err != nil {
			return err
		}
		q2, err := ask(domain.RoleAdvocateAgainst, domain.RoleAdvocateFor)
		if err != nil {
			return err
		}
		if _, err := answer(domain.RoleAdvocateFor, q2); err != nil {
			return err
		}
		q3, err := ask(domain.RoleSkeptic, "")
		if err != nil {
			return err
		}
		if _, err := answer(domain.RoleAdvocateFor, q3); err != nil {
			return err
		}
		_, err = answer(domain.RoleAdvocateAgainst, q3)
		return err
	}

	if err := run(); err != nil {
		if ctx.Err() != nil || isQuota(err) {
			return fmt.Errorf("debate: cross-exam phase: %w", err)
		}
		// Outer budget exhausted: abandon the phase, keep what was captured.
		e.log.WithField("case_id", r.cas.CaseID).Warn("cross-exam budget exhausted, abandoning phase")
	}
	return nil
}

// timedCall runs one structured exchange under the per-step timeout within
// a phase budget. A step that times out alone degrades to the shape's
// fallback; an exhausted phase budget or quota error propagates.
func timedCall[T any](e *Engine, phaseCtx context.Context, r *debateRun, role domain.Role, phase domain.Phase, round int, prompt string, shape codec.Shape[T]) (string, error) {
	callCtx, cancel := context.WithTimeout(phaseCtx, e.stepTimeout)
	defer cancel()

	res, err := codec.CallStructured(callCtx, e.client, prompt, shape, e.log)
	r.result.TotalCost += res.Cost
	r.result.TotalLatencyMs += res.Latency
	if err != nil && phaseCtx.Err() == nil && !isQuota(err) {
		err = nil
	}
	if err != nil {
		return "", err
	}
	value := res.Value
	text, serr := codec.Serialize(any(&value).(codec.Normalizable))
	if serr != nil {
		return "", fmt.Errorf("debate: serialize %s: %w", shape.Name, serr)
	}
	e.addMessage(phaseCtx, r, role, phase, round, text)
	return text, nil
}

// runRevision issues the three revision calls in parallel, each consuming
// the full cross-exam transcript plus the shared memo.
func (e *Engine) runRevision(ctx context.Context, r *debateRun) error {
	e.startPhase(ctx, r, domain.PhaseRevision)

	transcript := renderTranscript(r.result.Messages, domain.PhaseCrossExam)
	memo := r.memo.Render()
	shape := codec.RevisionShape()
	results := make([]codec.StructuredResult[domain.Revision], len(domain.DebaterRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range domain.DebaterRoles {
		i, role := i, role
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.stepTimeout)
			defer cancel()
			res, err := codec.CallStructured(callCtx, e.client, revisionPrompt(role, r.cas, r.proposalTexts[role], transcript, memo, shape.Schema), shape, e.log)
			if err != nil && ctx.Err() == nil && !isQuota(err) {
				err = nil
			}
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("debate: revision phase: %w", err)
	}

	for i, role := range domain.DebaterRoles {
		revision := results[i].Value
		text, err := codec.Serialize(&revision)
		if err != nil {
			return fmt.Errorf("debate: serialize revision: %w", err)
		}
		r.revisions[role] = revision
		r.revisionTexts[role] = text
		r.memo.RecordRevision(role, &revision)
		r.result.TotalCost += results[i].Cost
		r.result.TotalLatencyMs += results[i].Latency
		e.addMessage(ctx, r, role, domain.PhaseRevision, 1, text)
	}
	return nil
}

// runDispute runs one decisive skeptic question and one answer from each
// advocate, capped at exactly one round regardless of outcome.
func (e *Engine) runDispute(ctx context.Context, r *debateRun) error {
	e.startPhase(ctx, r, domain.PhaseDispute)

	phaseCtx, cancel := context.WithTimeout(ctx, 3*e.stepTimeout)
	defer cancel()

	memo := r.memo.Render()
	var revisionsText strings.Builder
	for _, role := range domain.DebaterRoles {
		fmt.Fprintf(&revisionsText, "%s:\n%s\n", role, r.revisionTexts[role])
	}

	run := func() error {
		qShape := codec.DisputeQuestionShape()
		question, err := timedCall(e, phaseCtx, r, domain.RoleSkeptic, domain.PhaseDispute, 1,
			disputeQuestionPrompt(r.cas, revisionsText.String(), memo, qShape.Schema), qShape)
		if err != nil {
			return err
		}

		aShape := codec.DisputeAnswerShape()
		for _, role := range []domain.Role{domain.RoleAdvocateFor, domain.RoleAdvocateAgainst} {
			if _, err := timedCall(e, phaseCtx, r, role, domain.PhaseDispute, 1,
				disputeAnswerPrompt(role, r.cas, r.revisionTexts[role], question, aShape.Schema), aShape); err != nil {
				return err
			}
		}
		return nil
	}

	if err := run(); err != nil {
		if ctx.Err() != nil || isQuota(err) {
			return fmt.Errorf("debate: dispute phase: %w", err)
		}
		e.log.WithField("case_id", r.cas.CaseID).Warn("dispute budget exhausted, abandoning phase")
	}
	return nil
}

// runJudge makes one call over the full structured transcript. Judge output
// is parsed TOML-first with a JSON fallback; on irrecoverable failure it
// degrades immediately to the fallback decision without retrying.
func (e *Engine) runJudge(ctx context.Context, r *debateRun) error {
	e.startPhase(ctx, r, domain.PhaseJudge)

	callCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	comp, err := e.client.Complete(callCtx, llm.CompletionRequest{
		Prompt:      judgePrompt(r.cas, renderTranscript(r.result.Messages, "")),
		Temperature: 0,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isQuota(err) {
			return fmt.Errorf("debate: judge phase: %w", err)
		}
		e.log.WithField("case_id", r.cas.CaseID).WithError(err).Warn("judge call failed, using fallback decision")
		r.result.JudgeDecision = fallbackJudgeDecision()
		return nil
	}
	r.result.TotalCost += comp.CostEstimate
	r.result.TotalLatencyMs += comp.LatencyMs

	decision, ok := parseJudgeDecision(comp.Text)
	if !ok {
		e.log.WithField("case_id", r.cas.CaseID).Warn("judge output unparseable, using fallback decision")
	}
	r.result.JudgeDecision = decision

	text, serr := serializeJudgeDecision(&decision)
	if serr != nil {
		return fmt.Errorf("debate: serialize judge decision: %w", serr)
	}
	e.addMessage(ctx, r, domain.RoleJudge, domain.PhaseJudge, 1, text)
	return nil
}

// renderTranscript formats messages as prompt context. An empty phase
// selects all phases.
func renderTranscript(messages []domain.DebateMessage, phase domain.Phase) string {
	var sb strings.Builder
	for _, m := range messages {
		if phase != "" && m.Phase != phase {
			continue
		}
		fmt.Fprintf(&sb, "--- %s (%s, round %d) ---\n%s\n", m.Role, m.Phase, m.Round, m.Content)
	}
	return sb.String()
}

func isQuota(err error) bool {
	return errors.Is(err, llm.ErrQuotaExhausted)
}
