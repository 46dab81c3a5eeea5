package debate

import (
	"strings"

	"tribunal/internal/domain"
)

// shouldSkipDispute applies the two-path convergence heuristic over the
// three revisions. Path A: all final verdicts identical and every pairwise
// Jaccard of evidence_used is at or above the threshold. Path B: the skeptic
// sides with one advocate and the dissenting advocate has no real objection
// left (remaining_disagreements empty, or every entry contains "uncertain").
func shouldSkipDispute(revisions map[domain.Role]domain.Revision, threshold float64) bool {
	forRev, okFor := revisions[domain.RoleAdvocateFor]
	againstRev, okAgainst := revisions[domain.RoleAdvocateAgainst]
	skepticRev, okSkeptic := revisions[domain.RoleSkeptic]
	if !okFor || !okAgainst || !okSkeptic {
		return false
	}

	if forRev.FinalVerdict == againstRev.FinalVerdict && forRev.FinalVerdict == skepticRev.FinalVerdict {
		j1 := jaccard(forRev.EvidenceUsed, againstRev.EvidenceUsed)
		j2 := jaccard(forRev.EvidenceUsed, skepticRev.EvidenceUsed)
		j3 := jaccard(againstRev.EvidenceUsed, skepticRev.EvidenceUsed)
		if j1 >= threshold && j2 >= threshold && j3 >= threshold {
			return true
		}
	}

	if skepticRev.FinalVerdict == forRev.FinalVerdict && noRealObjection(againstRev) {
		return true
	}
	if skepticRev.FinalVerdict == againstRev.FinalVerdict && noRealObjection(forRev) {
		return true
	}
	return false
}

// noRealObjection reports whether a dissenter's remaining disagreements are
// empty or all hedged with "uncertain" (case-insensitive). Known to
// over-trigger on short disagreement text; kept as-is pending product review.
func noRealObjection(r domain.Revision) bool {
	if len(r.RemainingDisagreements) == 0 {
		return true
	}
	for _, d := range r.RemainingDisagreements {
		if !strings.Contains(strings.ToLower(d), "uncertain") {
			return false
		}
	}
	return true
}

// jaccard computes intersection-over-union of two id sets. Two empty sets
// overlap fully.
func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	union := make(map[string]bool, len(a)+len(b))
	intersection := 0
	for _, id := range a {
		union[id] = true
	}
	seen := make(map[string]bool, len(b))
	for _, id := range b {
		if seen[id] {
			continue
		}
		seen[id] = true
		union[id] = true
		if set[id] {
			intersection++
		}
	}
	if len(union) == 0 {
		return 1
	}
	return float64(intersection) / float64(len(union))
}
