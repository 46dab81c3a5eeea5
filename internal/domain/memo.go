package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SharedMemo is a derived, non-authoritative summary of the debate so far.
// It is rebuilt after the Independent and Revision phases and used only to
// enrich prompts; it is never persisted as ground truth.
type SharedMemo struct {
	EvidenceCited   map[string]bool
	VerdictsByRole  map[Role]Verdict
	ContestedPoints []string
}

// NewSharedMemo returns an empty memo.
func NewSharedMemo() *SharedMemo {
	return &SharedMemo{
		EvidenceCited:   make(map[string]bool),
		VerdictsByRole:  make(map[Role]Verdict),
		ContestedPoints: []string{},
	}
}

// RecordProposal folds one Independent-phase proposal into the memo.
func (m *SharedMemo) RecordProposal(role Role, p *Proposal) {
	m.VerdictsByRole[role] = p.Verdict
	for _, id := range p.EvidenceUsed {
		m.EvidenceCited[id] = true
	}
	m.ContestedPoints = append(m.ContestedPoints, p.Uncertainties...)
}

// RecordRevision folds one Revision-phase position into the memo.
func (m *SharedMemo) RecordRevision(role Role, r *Revision) {
	m.VerdictsByRole[role] = r.FinalVerdict
	for _, id := range r.EvidenceUsed {
		m.EvidenceCited[id] = true
	}
	m.ContestedPoints = append(m.ContestedPoints, r.RemainingDisagreements...)
}

// Render formats the memo as prompt context.
func (m *SharedMemo) Render() string {
	var sb strings.Builder
	sb.WriteString("Shared memo (derived, not authoritative):\n")

	ids := make([]string, 0, len(m.EvidenceCited))
	for id := range m.EvidenceCited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(&sb, "- evidence cited so far: %s\n", strings.Join(ids, ", "))

	for _, role := range DebaterRoles {
		if v, ok := m.VerdictsByRole[role]; ok {
			fmt.Fprintf(&sb, "- %s currently holds: %s\n", role, v)
		}
	}
	if len(m.ContestedPoints) > 0 {
		sb.WriteString("- contested points:\n")
		for _, p := range m.ContestedPoints {
			fmt.Fprintf(&sb, "  - %s\n", p)
		}
	}
	return sb.String()
}
