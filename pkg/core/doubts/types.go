// Package doubts turns an underwriting result into borrower-facing
// clarification questions. Every doubt carries the evidence that raised
// it, the rule that sourced it, and a severity that drives display order.
package doubts

// Severity levels in increasing urgency.
const (
	SeverityAlert           = "Alert"
	SeverityHighRisk        = "HighRisk"
	SeverityImmediateAction = "ImmediateAction"
)

func severityRank(s string) int {
	switch s {
	case SeverityImmediateAction:
		return 3
	case SeverityHighRisk:
		return 2
	default:
		return 1
	}
}

// Doubt is one clarification question raised against the underwriting
// output. CoveredByPd marks doubts already answered in a prior
// personal-discussion round.
type Doubt struct {
	Code               string         `json:"code"`
	Severity           string         `json:"severity"`
	Category           string         `json:"category"`
	QuestionText       string         `json:"question_text"`
	AnswerType         string         `json:"answer_type"`
	RequiredUploadHint string         `json:"required_upload_hint,omitempty"`
	EvidenceJSON       map[string]any `json:"evidence_json"`
	SourceRuleID       string         `json:"source_rule_id,omitempty"`
	CoveredByPd        bool           `json:"coveredByPd"`
}

// Options tune a generation run.
type Options struct {
	// CoveredCodes are doubt codes already addressed elsewhere; matching
	// doubts are still emitted but marked CoveredByPd.
	CoveredCodes []string
}
