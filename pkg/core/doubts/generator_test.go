package doubts

import (
	"testing"

	"credit_autopilot/pkg/core/docs"
	"credit_autopilot/pkg/core/statement"
	"credit_autopilot/pkg/core/underwriting"
)

func fp(v float64) *float64 { return &v }

func resultFixture() *underwriting.Result {
	return &underwriting.Result{
		CreditHeatMap: []statement.HeatRow{
			{Counterparty: "RAMESH TRADERS", PctOfTotal: 65, TotalAmt: 650_000},
			{Counterparty: "GUPTA STEELS", PctOfTotal: 35, TotalAmt: 350_000},
		},
		RuleRunLog: []underwriting.RuleRun{
			{ID: "R010", Passed: false, ScoreDelta: -18},
			{ID: "R020", Passed: true},
			{ID: "R030", Passed: true},
			{ID: "R040", Passed: true},
			{ID: "R050", Passed: true},
			{ID: "R060", Passed: true},
		},
	}
}

func codes(ds []Doubt) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestGenerateNilResult(t *testing.T) {
	if got := Generate(nil, Options{}); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestGenerateConcentrationSeverityEscalation(t *testing.T) {
	uw := resultFixture()
	ds := Generate(uw, Options{})
	if len(ds) != 1 {
		t.Fatalf("doubts = %v", codes(ds))
	}
	d := ds[0]
	if d.Code != "D010_TOP1_CREDIT_CONCENTRATION" {
		t.Fatalf("code = %s", d.Code)
	}
	// 65% is past the 60% escalation line.
	if d.Severity != SeverityImmediateAction {
		t.Errorf("severity = %s", d.Severity)
	}
	if d.SourceRuleID != "R010" {
		t.Errorf("source rule = %s", d.SourceRuleID)
	}
	if d.AnswerType != "text" {
		t.Errorf("answer type = %s", d.AnswerType)
	}
	if d.EvidenceJSON["top_counterparty"] != "RAMESH TRADERS" {
		t.Errorf("evidence = %v", d.EvidenceJSON)
	}

	// At 45% the same doubt stays one notch lower.
	uw.CreditHeatMap[0].PctOfTotal = 45
	ds = Generate(uw, Options{})
	if len(ds) != 1 || ds[0].Severity != SeverityHighRisk {
		t.Errorf("severity = %s", ds[0].Severity)
	}

	// Below 40% it is not raised at all.
	uw.CreditHeatMap[0].PctOfTotal = 30
	if ds = Generate(uw, Options{}); len(ds) != 0 {
		t.Errorf("doubts = %v", codes(ds))
	}
}

func TestGenerateOrderingAndCoverage(t *testing.T) {
	uw := resultFixture()
	uw.Gst = &docs.GstUnderwriting{
		FilingGapCount:  2,
		MissingMonths:   []string{"2024-02", "2024-05"},
		LateFilingCount: 3,
		LateMonths:      []string{"2024-01", "2024-03", "2024-04"},
	}
	uw.CrossVerification = &docs.CrossVerification{
		NilReturnMonthsWithBankCredits: []string{"2024-06"},
	}
	ds := Generate(uw, Options{CoveredCodes: []string{"D201_GST_LATE_FILINGS"}})

	want := []string{
		// Immediate action first, codes ascending inside the tier.
		"D010_TOP1_CREDIT_CONCENTRATION",
		"D204_GST_NIL_WITH_BANK_CREDITS",
		// High risk tier.
		"D200_GST_MISSED_FILINGS",
		// Alert tier.
		"D201_GST_LATE_FILINGS",
	}
	got := codes(ds)
	if len(got) != len(want) {
		t.Fatalf("doubts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("doubts = %v, want %v", got, want)
		}
	}
	for _, d := range ds {
		wantCovered := d.Code == "D201_GST_LATE_FILINGS"
		if d.CoveredByPd != wantCovered {
			t.Errorf("%s covered = %v", d.Code, d.CoveredByPd)
		}
	}
}

func TestGenerateLenderStackingEvidenceCap(t *testing.T) {
	uw := resultFixture()
	uw.CreditHeatMap[0].PctOfTotal = 30 // keep the concentration doubt out
	evidence := make([]underwriting.EvidenceEntry, 14)
	for i := range evidence {
		evidence[i] = underwriting.EvidenceEntry{Date: "2024-04-01", Narration: "HAND LOAN REPAY", Direction: "DEBIT", Amount: 25_000}
	}
	uw.PrivateLenderCompetition = underwriting.PrivateLenderCompetition{
		EstimatedLenders:          3,
		WeeklyCollectionsDetected: true,
		Evidence:                  evidence,
	}
	ds := Generate(uw, Options{})
	if len(ds) != 1 || ds[0].Code != "D030_PRIVATE_LENDER_STACKING" {
		t.Fatalf("doubts = %v", codes(ds))
	}
	if ds[0].Severity != SeverityImmediateAction {
		t.Errorf("severity = %s", ds[0].Severity)
	}
	txs, ok := ds[0].EvidenceJSON["evidence_txs"].([]underwriting.EvidenceEntry)
	if !ok {
		t.Fatalf("evidence_txs = %T", ds[0].EvidenceJSON["evidence_txs"])
	}
	if len(txs) != 10 {
		t.Errorf("evidence txs = %d, want cap of 10", len(txs))
	}
}

func TestGenerateItrDoubts(t *testing.T) {
	uw := resultFixture()
	uw.CreditHeatMap[0].PctOfTotal = 30
	uw.Itr = &docs.ItrUnderwriting{
		LatestMarginPct: 1.5,
		LatestTurnover:  5_000_000,
		LatestProfit:    -75_000,
		YoyTurnoverPct:  fp(-42),
	}
	ds := Generate(uw, Options{})
	want := map[string]string{
		"D070_ITR_MARGIN_THIN":    SeverityAlert,
		"D210_ITR_LOSS_BUSINESS":  SeverityHighRisk,
		"D211_ITR_INCOME_DECLINE": SeverityHighRisk,
	}
	for _, d := range ds {
		sev, ok := want[d.Code]
		if !ok {
			t.Errorf("unexpected doubt %s", d.Code)
			continue
		}
		if d.Severity != sev {
			t.Errorf("%s severity = %s, want %s", d.Code, d.Severity, sev)
		}
		delete(want, d.Code)
	}
	if len(want) != 0 {
		t.Errorf("missing doubts %v", want)
	}
}

func TestGenerateFailedBankRulesRaiseDoubts(t *testing.T) {
	uw := resultFixture()
	uw.CreditHeatMap[0].PctOfTotal = 30
	for i := range uw.RuleRunLog {
		switch uw.RuleRunLog[i].ID {
		case "R020", "R030", "R060":
			uw.RuleRunLog[i].Passed = false
		}
	}
	ds := Generate(uw, Options{})
	want := map[string]bool{
		"D050_PENALTY_BOUNCE_RETURN":      true,
		"D060_FIXED_OBLIGATIONS_PRESSURE": true,
		"D061_LIQUIDITY_STRESS":           true,
	}
	for _, d := range ds {
		delete(want, d.Code)
	}
	if len(want) != 0 {
		t.Errorf("missing doubts %v from %v", want, codes(ds))
	}
	// Liquidity stress outranks the other two.
	if ds[0].Code != "D061_LIQUIDITY_STRESS" {
		t.Errorf("first doubt = %s", ds[0].Code)
	}
}
