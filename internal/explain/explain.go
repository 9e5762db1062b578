// Package explain turns a policy verdict into templated, deterministic
// guidance text. No model is involved: the output depends only on the
// issues, the rule summaries and the extracted fields, so the same
// verdict always explains the same way.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/receiptwise/expense-audit/internal/extraction"
	"github.com/receiptwise/expense-audit/internal/policy"
)

// Response is the guidance returned to the UI.
type Response struct {
	Explanation            string   `json:"explanation"`
	ClarificationQuestions []string `json:"clarification_questions"`
}

const noIssuesExplanation = "No policy issues were detected. All required fields are present and the extracted values " +
	"are above the confidence threshold. You can proceed to submission."

// maxBullets keeps the explanation short enough for the review panel.
const maxBullets = 6

// maxQuestions caps the clarification prompts shown at once.
const maxQuestions = 5

// Generate produces guidance for a policy verdict. FAIL findings are
// explained before WARN findings; each triggered rule contributes at
// most one clarification question.
func Generate(fields extraction.FieldMap, issues []policy.Issue, summaries []policy.RuleSummary, userQuestion string) Response {
	if len(issues) == 0 {
		return Response{
			Explanation:            noIssuesExplanation,
			ClarificationQuestions: []string{},
		}
	}

	summaryByRule := make(map[string]string, len(summaries))
	for _, s := range summaries {
		summaryByRule[s.RuleID] = s.Summary
	}

	sorted := make([]policy.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})
	if len(sorted) > maxBullets {
		sorted = sorted[:maxBullets]
	}

	var bullets []string
	var questions []string
	for _, i := range sorted {
		field := i.Field
		if field == "" {
			field = "unknown field"
		}
		rid := i.RuleID
		if rid == "" {
			rid = "UNKNOWN"
		}

		if summ, ok := summaryByRule[rid]; ok && summ != "" {
			bullets = append(bullets, fmt.Sprintf("- **%s** `%s` (%s): %s", i.Severity, rid, field, summ))
		} else {
			msg := i.Message
			if msg == "" {
				msg = "Policy check triggered."
			}
			bullets = append(bullets, fmt.Sprintf("- **%s** `%s` (%s): %s", i.Severity, rid, field, msg))
		}

		if q := clarificationFor(rid, field); q != "" {
			questions = append(questions, q)
		}
	}

	questions = dedupe(questions)
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	if questions == nil {
		questions = []string{}
	}

	explanation := "Based on the current extracted fields and deterministic policy checks, the system flagged the expense due to " +
		"the following rule(s):\n\n" + strings.Join(bullets, "\n") +
		"\n\nTo proceed, please address the requested fields or provide the required justification. " +
		"After edits, re-run the policy validation to confirm compliance."

	return Response{Explanation: explanation, ClarificationQuestions: questions}
}

func severityRank(s policy.Severity) int {
	switch s {
	case policy.SeverityFail:
		return 0
	case policy.SeverityWarn:
		return 1
	default:
		return 9
	}
}

// clarificationFor maps a rule id to the follow-up question asked of
// the user when that rule fires.
func clarificationFor(ruleID, field string) string {
	switch ruleID {
	case "POL-REQ-001":
		return fmt.Sprintf("Please provide the missing value for **%s**.", field)
	case "POL-REQ-002":
		return "Please attach a receipt image to proceed."
	case "POL-CONF-100":
		return fmt.Sprintf("Can you confirm or correct the extracted **%s** value?", field)
	case "POL-PARSE-101":
		return "Please enter the total amount manually (could not be parsed reliably)."
	case "POL-LIM-010":
		return "Was this a business meal? If yes, add business purpose and attendees (if applicable)."
	case "POL-LIM-020":
		return "Can you provide justification for exceeding the daily limit, or split into multiple lines if allowed?"
	case "POL-DATE-030":
		return "Is the receipt date correct? If yes, provide justification for late/out-of-range submission."
	case "POL-JUST-040":
		return "Please add a short business purpose (e.g., client meeting, travel, workshop)."
	case "POL-CAT-050":
		return "Does the selected category match the merchant? If not, choose the correct category."
	case "POL-DUP-060":
		return "Have you already submitted this receipt? If not, confirm it's a new expense."
	}
	return ""
}

func dedupe(xs []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		if x == "" {
			continue
		}
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
