// Package docs underwrites the optional GST and ITR filing summaries and
// cross-verifies them against bank-derived figures. Everything here is
// optional input: when a document set is absent the corresponding block,
// rules, and doubts are simply omitted downstream.
package docs

// GstMonth is one monthly GST filing summary supplied by the caller.
type GstMonth struct {
	Month    string `json:"month"` // YYYY-MM
	Turnover int64  `json:"turnover"`
	TaxPaid  int64  `json:"taxPaid"`
	DaysLate int    `json:"daysLate"`
}

// ItrYear is one yearly income-tax return summary.
type ItrYear struct {
	Year     string `json:"year"` // free-form label containing the year, e.g. "FY 2023-24"
	Turnover int64  `json:"turnover"`
	Profit   int64  `json:"profit"`
	TaxPaid  int64  `json:"taxPaid"`
}

// GstUnderwriting is the GST-side analysis block.
type GstUnderwriting struct {
	Months                []GstMonth `json:"months"`
	AvgMonthlyTurnover    int64      `json:"avgMonthlyTurnover"`
	VolatilityScore       float64    `json:"volatilityScore"`
	VolatilityBucket      string     `json:"volatilityBucket"`
	SeasonalityBucket     string     `json:"seasonalityBucket"`
	FilingGapCount        int        `json:"filingGapCount"`
	MissingMonths         []string   `json:"missingMonths"`
	LateFilingCount       int        `json:"lateFilingCount"`
	LateMonths            []string   `json:"lateMonths"`
	ConsecutiveDropMonths []string   `json:"consecutiveDropMonths"`
	Flags                 []string   `json:"flags"`
	Commentary            string     `json:"commentary"`
}

// ItrUnderwriting is the ITR-side analysis block.
type ItrUnderwriting struct {
	Years           []ItrYear `json:"years"`
	LatestTurnover  int64     `json:"latestTurnover"`
	LatestProfit    int64     `json:"latestProfit"`
	LatestMarginPct float64   `json:"latestMarginPct"`
	LatestTaxPaid   int64     `json:"latestTaxPaid"`
	YoyTurnoverPct  *float64  `json:"yoyTurnoverPct"`
	YoyProfitPct    *float64  `json:"yoyProfitPct"`
	Flags           []string  `json:"flags"`
	Commentary      string    `json:"commentary"`
}

// CrossRow is one month of the bank-vs-GST comparison table.
type CrossRow struct {
	Month           string   `json:"month"`
	BankCredits     int64    `json:"bankCredits"`
	GstTurnover     *int64   `json:"gstTurnover"`
	GstTaxPaid      *int64   `json:"gstTaxPaid"`
	GstDaysLate     *int     `json:"gstDaysLate"`
	GstFilingStatus string   `json:"gstFilingStatus"` // Filed | Late | Nil | Missing
	DiffPct         *float64 `json:"diffPct"`
}

// CrossVerification reconciles declared turnover against bank movement.
// Nil pointers mean the comparison could not be computed, never zero.
type CrossVerification struct {
	BankVsGstAvgDiffPct            *float64   `json:"bankVsGstAvgDiffPct"`
	BankVsItrAvgDiffPct            *float64   `json:"bankVsItrAvgDiffPct"`
	ItrVsGstAnnualDiffPct          *float64   `json:"itrVsGstAnnualDiffPct"`
	ItrVsGstAnnualEstimated        *int64     `json:"itrVsGstAnnualEstimated"`
	NilReturnMonthsWithBankCredits []string   `json:"nilReturnMonthsWithBankCredits"`
	Rows                           []CrossRow `json:"rows"`
	MismatchFlags                  []string   `json:"mismatchFlags"`
	Commentary                     string     `json:"commentary"`
}

// Credibility is the combined document trust score: two 100-based
// sub-scores minus capped penalties, blended 40/40/20 with the mismatch
// complement.
type Credibility struct {
	Score           int      `json:"score"`
	Band            string   `json:"band"` // Strong | Moderate | Weak
	GstScore        int      `json:"gstScore"`
	ItrScore        int      `json:"itrScore"`
	MismatchPenalty int      `json:"mismatchPenalty"`
	Reasons         []string `json:"reasons"`
}
