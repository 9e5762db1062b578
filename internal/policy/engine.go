package policy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/receiptwise/expense-audit/internal/extraction"
)

// ConfidenceThreshold is the fixed extraction confidence below which a
// field needs human review.
const ConfidenceThreshold = 0.75

// mealLimit is the amount above which meal expenses need justification.
const mealLimit = 20.0

// Rule ids emitted by the engine.
const (
	RuleRequiredField  = "POL-REQ-001"
	RuleLowConfidence  = "POL-CONF-100"
	RuleMealLimit      = "POL-LIM-010"
	RuleAmountUnparsed = "POL-PARSE-101"
)

// Severity grades a single policy finding.
type Severity string

const (
	SeverityFail Severity = "FAIL"
	SeverityWarn Severity = "WARN"
)

// Compliance is the aggregate verdict for a receipt.
type Compliance string

const (
	CompliancePass Compliance = "PASS"
	ComplianceWarn Compliance = "WARN"
	ComplianceFail Compliance = "FAIL"
)

// Issue is one policy finding tied to one field and one rule.
type Issue struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule_id"`
	Message  string   `json:"message"`
}

// RuleSummary is catalog evidence for one triggered rule.
type RuleSummary struct {
	RuleID  string `json:"rule_id"`
	Summary string `json:"summary"`
}

// Metadata records the constants and rule ids behind a verdict.
type Metadata struct {
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	RulesTriggered      []string `json:"rules_triggered"`
}

// Result is the full compliance verdict for one receipt.
type Result struct {
	ReceiptID     string        `json:"receipt_id"`
	Compliance    Compliance    `json:"compliance"`
	Issues        []Issue       `json:"issues"`
	RuleSummaries []RuleSummary `json:"rule_summaries"`
	Metadata      Metadata      `json:"metadata"`
}

// ruleCheck appends zero or more issues for one rule. Checks are
// independent: every applicable rule fires, with no short-circuit.
type ruleCheck func(fields extraction.FieldMap, userContext map[string]any) []Issue

// rules holds the checks in their fixed evaluation order.
var rules = []ruleCheck{
	checkRequiredFields,
	checkConfidence,
	checkMealLimit,
}

// Validate evaluates the fixed policy rule set against extracted
// fields and aggregates the verdict. It is pure and deterministic:
// identical fields always produce an identical result.
func Validate(receiptID string, fields extraction.FieldMap, userContext map[string]any) Result {
	issues := []Issue{}
	for _, check := range rules {
		issues = append(issues, check(fields, userContext)...)
	}

	compliance := CompliancePass
	switch {
	case hasSeverity(issues, SeverityFail):
		compliance = ComplianceFail
	case hasSeverity(issues, SeverityWarn):
		compliance = ComplianceWarn
	}

	summaries := attachRuleSummaries(issues)
	triggered := make([]string, 0, len(summaries))
	for _, s := range summaries {
		triggered = append(triggered, s.RuleID)
	}

	return Result{
		ReceiptID:     receiptID,
		Compliance:    compliance,
		Issues:        issues,
		RuleSummaries: summaries,
		Metadata: Metadata{
			ConfidenceThreshold: ConfidenceThreshold,
			RulesTriggered:      triggered,
		},
	}
}

func hasSeverity(issues []Issue, sev Severity) bool {
	for _, i := range issues {
		if i.Severity == sev {
			return true
		}
	}
	return false
}

// checkRequiredFields flags every canonical field with an empty value.
func checkRequiredFields(fields extraction.FieldMap, _ map[string]any) []Issue {
	var issues []Issue
	for _, name := range extraction.FieldNames {
		if fields[name].Value == "" {
			issues = append(issues, Issue{
				Field:    name,
				Severity: SeverityFail,
				RuleID:   RuleRequiredField,
				Message:  fmt.Sprintf("%s is required.", name),
			})
		}
	}
	return issues
}

// checkConfidence flags every field extracted below the review
// threshold. Canonical fields come first, then any extra keys a client
// sent, sorted so the output stays deterministic.
func checkConfidence(fields extraction.FieldMap, _ map[string]any) []Issue {
	canonical := make(map[string]struct{}, len(extraction.FieldNames))
	for _, name := range extraction.FieldNames {
		canonical[name] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for _, name := range extraction.FieldNames {
		if _, ok := fields[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range fields {
		if _, ok := canonical[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	var issues []Issue
	for _, name := range names {
		f := fields[name]
		if f.Confidence < ConfidenceThreshold {
			issues = append(issues, Issue{
				Field:    name,
				Severity: SeverityWarn,
				RuleID:   RuleLowConfidence,
				Message:  fmt.Sprintf("%s confidence below threshold (%.2f).", name, f.Confidence),
			})
		}
	}
	return issues
}

var mealCategories = map[string]struct{}{"meals": {}, "meal": {}, "food": {}}

// checkMealLimit applies the meal amount limit. An unparseable total
// degrades to a WARN instead of the limit check; the two findings are
// mutually exclusive.
func checkMealLimit(fields extraction.FieldMap, _ map[string]any) []Issue {
	category := strings.ToLower(fields[extraction.FieldCategory].Value)
	if _, ok := mealCategories[category]; !ok {
		return nil
	}

	raw := "0"
	if f, ok := fields[extraction.FieldTotal]; ok {
		raw = f.Value
	}
	total, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return []Issue{{
			Field:    extraction.FieldTotal,
			Severity: SeverityWarn,
			RuleID:   RuleAmountUnparsed,
			Message:  "Could not parse total amount reliably.",
		}}
	}
	if total > mealLimit {
		return []Issue{{
			Field:    extraction.FieldTotal,
			Severity: SeverityFail,
			RuleID:   RuleMealLimit,
			Message:  "Meals exceed 20 EUR without justification/attendees.",
		}}
	}
	return nil
}

// attachRuleSummaries returns catalog evidence for each distinct rule
// id, deduplicated in first-seen order.
func attachRuleSummaries(issues []Issue) []RuleSummary {
	out := []RuleSummary{}
	seen := make(map[string]struct{})
	for _, i := range issues {
		if i.RuleID == "" {
			continue
		}
		if _, ok := seen[i.RuleID]; ok {
			continue
		}
		seen[i.RuleID] = struct{}{}
		out = append(out, RuleSummary{RuleID: i.RuleID, Summary: summaryFor(i.RuleID)})
	}
	return out
}
