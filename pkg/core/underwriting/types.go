// Package underwriting turns a classified transaction list, plus optional
// GST and ITR filing summaries, into a fully explained credit decision:
// snapshot metrics, behavioral detectors, a rule run log whose deltas sum
// to the score, pricing, structure, monitoring triggers, and a verdict.
// Everything is deterministic; identical inputs produce identical output.
package underwriting

import (
	"errors"

	"credit_autopilot/pkg/core/docs"
	"credit_autopilot/pkg/core/statement"
)

var (
	// ErrNoTransactions is returned when the input list is empty.
	ErrNoTransactions = errors.New("no transactions to underwrite")
	// ErrNoUsableTransactions is returned when every row fails date
	// normalization.
	ErrNoUsableTransactions = errors.New("no usable transactions after normalization")
)

// Params are the caller-supplied deal knobs. Zero values fall back to the
// defaults applied in Run.
type Params struct {
	RequestedExposure int64 `json:"requestedExposure"`
	MaxTenureMonths   int   `json:"maxTenureMonths"`
}

// Docs carries the optional filing summaries.
type Docs struct {
	GstMonths []docs.GstMonth `json:"gstMonths,omitempty"`
	ItrYears  []docs.ItrYear  `json:"itrYears,omitempty"`
}

// Metric is one named figure in the snapshot, with an optional meta map
// for qualitative companions such as a volatility bucket.
type Metric struct {
	Key   string            `json:"key"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// RuleRun is one executed rule with its full audit context. ScoreDelta is
// zero when the rule passed; the failure delta otherwise.
type RuleRun struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"` // Snapshot | Concentration | Liquidity | Discipline | Competition | Velocity | Obligations
	Severity   string         `json:"severity"` // Low | Medium | High | Critical
	Passed     bool           `json:"passed"`
	ScoreDelta int            `json:"scoreDelta"`
	Thresholds map[string]any `json:"thresholds"`
	Evidence   map[string]any `json:"evidence"`
	Reason     string         `json:"reason"`
}

// EvidenceEntry is one suspicious transaction kept as proof for the
// private-lender detector.
type EvidenceEntry struct {
	Date      string `json:"date"`
	Narration string `json:"narration"`
	Direction string `json:"direction"` // DEBIT | CREDIT
	Amount    int64  `json:"amount"`
}

// PrivateLenderCompetition summarizes informal-lender stacking signals.
type PrivateLenderCompetition struct {
	EstimatedLenders          int             `json:"estimatedLenders"`
	ApproxMonthlyDebtLoad     int64           `json:"approxMonthlyDebtLoad"`
	WeeklyCollectionsDetected bool            `json:"weeklyCollectionsDetected"`
	RolloverRecyclingSignals  int             `json:"rolloverRecyclingSignals"`
	Evidence                  []EvidenceEntry `json:"evidence"`
	Summary                   string          `json:"summary"`
}

// CashVelocityControl describes how fast inflows leave the account and
// how the borrower should be collected.
type CashVelocityControl struct {
	SameDaySpendRatio      float64 `json:"sameDaySpendRatio"`
	TPlusOneSpendRatio     float64 `json:"tPlusOneSpendRatio"`
	IdleCashRetentionRatio float64 `json:"idleCashRetentionRatio"`
	TopInflowWeekday       string  `json:"topInflowWeekday"`
	TopInflowMonthDays     []int   `json:"topInflowMonthDays"`
	BorrowerType           string  `json:"borrowerType"`
	Commentary             string  `json:"commentary"`
}

// Structure is the disbursement and collection mechanics attached to a
// recommendation.
type Structure struct {
	ScheduleType          string `json:"schedule_type"`
	NetDisbursedEstimate  int64  `json:"net_disbursed_estimate"`
	StagedDisbursement    bool   `json:"staged_disbursement"`
	Stage1Amount          int64  `json:"stage_1_amount"`
	Stage2Amount          int64  `json:"stage_2_amount"`
	Stage2Condition       string `json:"stage_2_condition"`
	BestCollectionWeekday string `json:"best_collection_weekday"`
}

// Recommendation is the priced and structured deal.
type Recommendation struct {
	RecommendedExposure int64     `json:"recommendedExposure"`
	TenureMonths        int       `json:"tenureMonths"`
	CollectionFrequency string    `json:"collectionFrequency"` // Weekly | Monthly
	CollectionAmount    int64     `json:"collectionAmount"`
	UpfrontDeductionPct float64   `json:"upfrontDeductionPct"`
	UpfrontDeductionAmt int64     `json:"upfrontDeductionAmt"`
	PricingApr          float64   `json:"pricingApr"`
	Structure           Structure `json:"structure"`
}

// Trigger is one post-disbursal monitoring condition.
type Trigger struct {
	TriggerType string         `json:"triggerType"`
	Severity    string         `json:"severity"`
	Condition   map[string]any `json:"condition"`
	Description string         `json:"description"`
}

// Verdict is the final fit call plus the two narrative summaries.
type Verdict struct {
	RiskFit                 string `json:"riskFit"` // Accept | AcceptWithControl | Avoid
	RiskGrade               string `json:"riskGrade"`
	Score                   int    `json:"score"`
	StreetSummary           string `json:"streetSummary"`
	RecoveryLeverageSummary string `json:"recoveryLeverageSummary"`
}

// Result is the complete underwriting output.
type Result struct {
	PeriodStart              string                   `json:"periodStart"`
	PeriodEnd                string                   `json:"periodEnd"`
	StatementDays            int                      `json:"statementDays"`
	BankName                 string                   `json:"bankName"`
	AccountType              string                   `json:"accountType"`
	Metrics                  []Metric                 `json:"metrics"`
	CreditHeatMap            []statement.HeatRow      `json:"creditHeatMap"`
	DebitHeatMap             []statement.HeatRow      `json:"debitHeatMap"`
	Gst                      *docs.GstUnderwriting    `json:"gst"`
	Itr                      *docs.ItrUnderwriting    `json:"itr"`
	CrossVerification        *docs.CrossVerification  `json:"crossVerification"`
	Credibility              *docs.Credibility        `json:"credibility"`
	PrivateLenderCompetition PrivateLenderCompetition `json:"privateLenderCompetition"`
	CashVelocityControl      CashVelocityControl      `json:"cashVelocityControl"`
	Triggers                 []Trigger                `json:"triggers"`
	Recommendation           Recommendation           `json:"recommendation"`
	Verdict                  Verdict                  `json:"verdict"`
	RuleRunLog               []RuleRun                `json:"ruleRunLog"`
	AggressiveSummary        string                   `json:"aggressiveSummary"`
}
