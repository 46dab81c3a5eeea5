package codec

import (
	"fmt"

	"tribunal/internal/domain"
)

// Shape describes one per-phase output schema: how to validate a parsed
// value, what to tell the model when its output was invalid, and the safe
// fallback used when repair fails.
type Shape[T any] struct {
	Name        string
	Schema      string
	RetryPrompt string
	Fallback    func() T
	Validate    func(*T) error
	Normalize   func(*T)
}

func validTarget(to string) bool {
	switch to {
	case string(domain.RoleAdvocateFor), string(domain.RoleAdvocateAgainst), string(domain.RoleSkeptic), domain.TargetBoth:
		return true
	}
	return false
}

func validAdmission(a domain.Admission) bool {
	switch a {
	case domain.AdmissionNone, domain.AdmissionInsufficient, domain.AdmissionUncertain:
		return true
	}
	return false
}

// ProposalShape validates an Independent-phase proposal.
func ProposalShape() Shape[domain.Proposal] {
	return Shape[domain.Proposal]{
		Name: "proposal",
		Schema: `verdict = "supported" | "refuted" | "insufficient"
evidence_used = ["e1"]
key_points = ["..."]
uncertainties = ["..."]
what_would_change_my_mind = ["..."]`,
		RetryPrompt: "Your proposal was not valid TOML for the schema. Return ONLY the TOML document, no prose, no markdown fences.",
		Fallback: func() domain.Proposal {
			p := domain.Proposal{Verdict: domain.VerdictInsufficient}
			p.Normalize()
			return p
		},
		Validate: func(p *domain.Proposal) error {
			if !domain.KnownVerdict(p.Verdict) {
				return fmt.Errorf("unknown verdict %q", p.Verdict)
			}
			return nil
		},
		Normalize: func(p *domain.Proposal) { p.Normalize() },
	}
}

// QuestionsShape validates a cross-exam questions message (1-2 questions).
func QuestionsShape() Shape[domain.QuestionsMessage] {
	return Shape[domain.QuestionsMessage]{
		Name: "questions",
		Schema: `[[questions]]
to = "advocate_for" | "advocate_against" | "both"
text = "..."
evidence_refs = ["e1"]`,
		RetryPrompt: "Your questions were not valid TOML for the schema. Return ONLY 1-2 [[questions]] tables, no prose.",
		Fallback: func() domain.QuestionsMessage {
			m := domain.QuestionsMessage{Questions: []domain.Question{{
				To:   domain.TargetBoth,
				Text: "What single piece of evidence most supports your verdict?",
			}}}
			m.Normalize()
			return m
		},
		Validate: func(m *domain.QuestionsMessage) error {
			if len(m.Questions) < 1 || len(m.Questions) > 2 {
				return fmt.Errorf("expected 1-2 questions, got %d", len(m.Questions))
			}
			for i, q := range m.Questions {
				if q.Text == "" {
					return fmt.Errorf("question %d: empty text", i)
				}
				if !validTarget(q.To) {
					return fmt.Errorf("question %d: invalid target %q", i, q.To)
				}
			}
			return nil
		},
		Normalize: func(m *domain.QuestionsMessage) { m.Normalize() },
	}
}

// AnswersShape validates a cross-exam answers message (1-2 answers).
func AnswersShape() Shape[domain.AnswersMessage] {
	return Shape[domain.AnswersMessage]{
		Name: "answers",
		Schema: `[[answers]]
question = "..."
text = "..."
evidence_refs = ["e1"]
admission = "none" | "insufficient" | "uncertain"`,
		RetryPrompt: "Your answers were not valid TOML for the schema. Return ONLY 1-2 [[answers]] tables, no prose.",
		Fallback: func() domain.AnswersMessage {
			m := domain.AnswersMessage{Answers: []domain.Answer{{
				Question:  "(unavailable)",
				Text:      "Unable to produce a structured answer.",
				Admission: domain.AdmissionInsufficient,
			}}}
			m.Normalize()
			return m
		},
		Validate: func(m *domain.AnswersMessage) error {
			if len(m.Answers) < 1 || len(m.Answers) > 2 {
				return fmt.Errorf("expected 1-2 answers, got %d", len(m.Answers))
			}
			for i, a := range m.Answers {
				if a.Text == "" {
					return fmt.Errorf("answer %d: empty text", i)
				}
				if a.Admission != "" && !validAdmission(a.Admission) {
					return fmt.Errorf("answer %d: invalid admission %q", i, a.Admission)
				}
			}
			return nil
		},
		Normalize: func(m *domain.AnswersMessage) { m.Normalize() },
	}
}

// RevisionShape validates a post-cross-exam revision.
func RevisionShape() Shape[domain.Revision] {
	return Shape[domain.Revision]{
		Name: "revision",
		Schema: `final_verdict = "supported" | "refuted" | "insufficient"
evidence_used = ["e1"]
what_changed = ["..."]
remaining_disagreements = ["..."]
confidence = 0.0`,
		RetryPrompt: "Your revision was not valid TOML for the schema. Return ONLY the TOML document with a confidence between 0.0 and 1.0.",
		Fallback: func() domain.Revision {
			r := domain.Revision{FinalVerdict: domain.VerdictInsufficient, Confidence: 0}
			r.Normalize()
			return r
		},
		Validate: func(r *domain.Revision) error {
			if !domain.KnownVerdict(r.FinalVerdict) {
				return fmt.Errorf("unknown final_verdict %q", r.FinalVerdict)
			}
			if r.Confidence < 0 || r.Confidence > 1 {
				return fmt.Errorf("confidence %v out of [0,1]", r.Confidence)
			}
			return nil
		},
		Normalize: func(r *domain.Revision) { r.Normalize() },
	}
}

// DisputeQuestionShape validates the single decisive dispute question.
func DisputeQuestionShape() Shape[domain.DisputeQuestion] {
	return Shape[domain.DisputeQuestion]{
		Name: "dispute_question",
		Schema: `to = "both"
text = "..."
evidence_refs = ["e1"]`,
		RetryPrompt: "Your dispute question was not valid TOML for the schema. Return ONLY one question document, no prose.",
		Fallback: func() domain.DisputeQuestion {
			q := domain.DisputeQuestion{
				To:   domain.TargetBoth,
				Text: "What remaining evidence gap keeps you from agreeing?",
			}
			q.Normalize()
			return q
		},
		Validate: func(q *domain.DisputeQuestion) error {
			if q.Text == "" {
				return fmt.Errorf("empty text")
			}
			if !validTarget(q.To) {
				return fmt.Errorf("invalid target %q", q.To)
			}
			return nil
		},
		Normalize: func(q *domain.DisputeQuestion) { q.Normalize() },
	}
}

// DisputeAnswerShape validates one advocate's dispute answer.
func DisputeAnswerShape() Shape[domain.DisputeAnswer] {
	return Shape[domain.DisputeAnswer]{
		Name: "dispute_answer",
		Schema: `question = "..."
text = "..."
evidence_refs = ["e1"]
admission = "none" | "insufficient" | "uncertain"`,
		RetryPrompt: "Your dispute answer was not valid TOML for the schema. Return ONLY one answer document, no prose.",
		Fallback: func() domain.DisputeAnswer {
			a := domain.DisputeAnswer{
				Question:  "(unavailable)",
				Text:      "Unable to produce a structured answer.",
				Admission: domain.AdmissionInsufficient,
			}
			a.Normalize()
			return a
		},
		Validate: func(a *domain.DisputeAnswer) error {
			if a.Text == "" {
				return fmt.Errorf("empty text")
			}
			if a.Admission != "" && !validAdmission(a.Admission) {
				return fmt.Errorf("invalid admission %q", a.Admission)
			}
			return nil
		},
		Normalize: func(a *domain.DisputeAnswer) { a.Normalize() },
	}
}
