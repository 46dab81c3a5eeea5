package debate

import (
	"fmt"
	"strings"

	"tribunal/internal/domain"
)

func roleBrief(role domain.Role) string {
	switch role {
	case domain.RoleAdvocateFor:
		return "You argue that the claim is SUPPORTED by the evidence pack. Cite only evidence ids from the pack."
	case domain.RoleAdvocateAgainst:
		return "You argue that the claim is REFUTED by the evidence pack. Cite only evidence ids from the pack."
	case domain.RoleSkeptic:
		return "You are the skeptic. You hold no side; your job is to find the weakest link in every argument and to prefer 'insufficient' when the evidence does not settle the claim."
	case domain.RoleJudge:
		return "You are the judge. Weigh the full debate transcript against the evidence pack and rule on the claim."
	}
	return ""
}

func renderEvidence(packets []domain.EvidencePacket) string {
	var sb strings.Builder
	sb.WriteString("Evidence pack:\n")
	for _, p := range packets {
		fmt.Fprintf(&sb, "- [%s] %s (source: %s, date: %s)\n", p.ID, p.Summary, p.Source, p.Date)
	}
	return sb.String()
}

func caseHeader(cas *domain.Case) string {
	return fmt.Sprintf("Topic: %s\nClaim under debate: %s\n\n%s", cas.Topic, cas.Claim, renderEvidence(cas.EvidencePackets))
}

func proposalPrompt(role domain.Role, cas *domain.Case, schema string) string {
	return fmt.Sprintf(`%s

%s

State your initial position on the claim. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(role), caseHeader(cas), schema)
}

func questionPrompt(asker, target domain.Role, cas *domain.Case, askerProposal, targetProposal, memo, schema string) string {
	return fmt.Sprintf(`%s

%s

Your position:
%s

%s's position:
%s

%s
Ask 1-2 pointed questions that expose the weakest part of that position. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(asker), caseHeader(cas), askerProposal, target, targetProposal, memo, schema)
}

func bothQuestionPrompt(asker domain.Role, cas *domain.Case, forProposal, againstProposal, memo, schema string) string {
	return fmt.Sprintf(`%s

%s

%s's position:
%s

%s's position:
%s

%s
Ask 1-2 questions addressed to "both" advocates, probing where their arguments are weakest. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(asker), caseHeader(cas), domain.RoleAdvocateFor, forProposal, domain.RoleAdvocateAgainst, againstProposal, memo, schema)
}

func answerPrompt(target domain.Role, cas *domain.Case, targetProposal, questions, memo, schema string) string {
	return fmt.Sprintf(`%s

%s

Your position:
%s

You have been asked:
%s

%s
Answer each question directly. If you cannot answer from the evidence, admit it. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(target), caseHeader(cas), targetProposal, questions, memo, schema)
}

func revisionPrompt(role domain.Role, cas *domain.Case, ownProposal, transcript, memo, schema string) string {
	return fmt.Sprintf(`%s

%s

Your initial position:
%s

Cross-examination transcript:
%s

%s
Revise your position in light of the cross-examination. Change your verdict only if the exchange genuinely moved you. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(role), caseHeader(cas), ownProposal, transcript, memo, schema)
}

func disputeQuestionPrompt(cas *domain.Case, revisionsText, memo, schema string) string {
	return fmt.Sprintf(`%s

%s

The debaters still disagree after revision:
%s

%s
Ask ONE decisive question that would settle the remaining disagreement. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(domain.RoleSkeptic), caseHeader(cas), revisionsText, memo, schema)
}

func disputeAnswerPrompt(role domain.Role, cas *domain.Case, ownRevision, question, schema string) string {
	return fmt.Sprintf(`%s

%s

Your revised position:
%s

The skeptic's decisive question:
%s

Answer it directly. Respond with ONLY a TOML document matching this schema:
%s`, roleBrief(role), caseHeader(cas), ownRevision, question, schema)
}

func judgePrompt(cas *domain.Case, transcript string) string {
	return fmt.Sprintf(`%s

%s

Full debate transcript:
%s

Rule on the claim. Respond with ONLY a TOML document matching this schema:
verdict = "supported" | "refuted" | "insufficient"
confidence = 0.0
evidence_used = ["e1"]
reasoning = "..."`, roleBrief(domain.RoleJudge), caseHeader(cas), transcript)
}
