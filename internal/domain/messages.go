package domain

// Admission qualifies an answer in cross-examination.
type Admission string

const (
	AdmissionNone         Admission = "none"
	AdmissionInsufficient Admission = "insufficient"
	AdmissionUncertain    Admission = "uncertain"
)

// Proposal is a debater's initial structured position (Independent phase).
type Proposal struct {
	Verdict              Verdict  `json:"verdict" toml:"verdict"`
	EvidenceUsed         []string `json:"evidence_used" toml:"evidence_used"`
	KeyPoints            []string `json:"key_points" toml:"key_points"`
	Uncertainties        []string `json:"uncertainties" toml:"uncertainties"`
	WhatWouldChangeMyMind []string `json:"what_would_change_my_mind" toml:"what_would_change_my_mind"`
}

// Normalize replaces nil list fields with empty ones so the wire form is
// stable. The wire format has no null.
func (p *Proposal) Normalize() {
	p.EvidenceUsed = notNil(p.EvidenceUsed)
	p.KeyPoints = notNil(p.KeyPoints)
	p.Uncertainties = notNil(p.Uncertainties)
	p.WhatWouldChangeMyMind = notNil(p.WhatWouldChangeMyMind)
}

// Question is a single cross-exam question addressed to a role or to "both".
type Question struct {
	To           string   `json:"to" toml:"to"`
	Text         string   `json:"text" toml:"text"`
	EvidenceRefs []string `json:"evidence_refs" toml:"evidence_refs"`
}

// QuestionsMessage carries 1-2 questions from one asker.
type QuestionsMessage struct {
	Questions []Question `json:"questions" toml:"questions"`
}

func (m *QuestionsMessage) Normalize() {
	m.Questions = notNil(m.Questions)
	for i := range m.Questions {
		m.Questions[i].EvidenceRefs = notNil(m.Questions[i].EvidenceRefs)
	}
}

// Answer responds to one quoted question.
type Answer struct {
	Question     string    `json:"question" toml:"question"`
	Text         string    `json:"text" toml:"text"`
	EvidenceRefs []string  `json:"evidence_refs" toml:"evidence_refs"`
	Admission    Admission `json:"admission" toml:"admission"`
}

// AnswersMessage carries 1-2 answers from one target.
type AnswersMessage struct {
	Answers []Answer `json:"answers" toml:"answers"`
}

func (m *AnswersMessage) Normalize() {
	m.Answers = notNil(m.Answers)
	for i := range m.Answers {
		m.Answers[i].EvidenceRefs = notNil(m.Answers[i].EvidenceRefs)
		if m.Answers[i].Admission == "" {
			m.Answers[i].Admission = AdmissionNone
		}
	}
}

// Revision is a debater's post-cross-exam position.
type Revision struct {
	FinalVerdict           Verdict  `json:"final_verdict" toml:"final_verdict"`
	EvidenceUsed           []string `json:"evidence_used" toml:"evidence_used"`
	WhatChanged            []string `json:"what_changed" toml:"what_changed"`
	RemainingDisagreements []string `json:"remaining_disagreements" toml:"remaining_disagreements"`
	Confidence             float64  `json:"confidence" toml:"confidence"`
}

func (r *Revision) Normalize() {
	r.EvidenceUsed = notNil(r.EvidenceUsed)
	r.WhatChanged = notNil(r.WhatChanged)
	r.RemainingDisagreements = notNil(r.RemainingDisagreements)
}

// DisputeQuestion is the single decisive Skeptic question in the Dispute
// phase.
type DisputeQuestion struct {
	To           string   `json:"to" toml:"to"`
	Text         string   `json:"text" toml:"text"`
	EvidenceRefs []string `json:"evidence_refs" toml:"evidence_refs"`
}

func (q *DisputeQuestion) Normalize() {
	q.EvidenceRefs = notNil(q.EvidenceRefs)
}

// DisputeAnswer is one advocate's answer to the dispute question.
type DisputeAnswer struct {
	Question     string    `json:"question" toml:"question"`
	Text         string    `json:"text" toml:"text"`
	EvidenceRefs []string  `json:"evidence_refs" toml:"evidence_refs"`
	Admission    Admission `json:"admission" toml:"admission"`
}

func (a *DisputeAnswer) Normalize() {
	a.EvidenceRefs = notNil(a.EvidenceRefs)
	if a.Admission == "" {
		a.Admission = AdmissionNone
	}
}

func notNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
