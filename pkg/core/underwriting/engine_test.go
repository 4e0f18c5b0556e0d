package underwriting

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/docs"
	"credit_autopilot/pkg/core/statement"
)

// concentratedFixture spans 92 days with the top buyer carrying 65% of
// all credits.
func concentratedFixture() []statement.Transaction {
	return []statement.Transaction{
		{Date: "2024-01-01", Credit: 212_341, Balance: i64(212_341), Counterparty: "RAMESH TRADERS", Narration: "UPI/RAMESH TRADERS"},
		{Date: "2024-01-20", Credit: 151_237, Balance: i64(363_578), Counterparty: "GUPTA STEELS", Narration: "NEFT/GUPTA STEELS"},
		{Date: "2024-02-01", Credit: 201_157, Balance: i64(564_735), Counterparty: "RAMESH TRADERS", Narration: "UPI/RAMESH TRADERS"},
		{Date: "2024-02-14", Debit: 120_007, Balance: i64(444_728), Counterparty: "SUPPLIER ONE", Narration: "IMPS/SUPPLIER ONE"},
		{Date: "2024-02-20", Credit: 98_763, Balance: i64(543_491), Counterparty: "GUPTA STEELS", Narration: "NEFT/GUPTA STEELS"},
		{Date: "2024-03-01", Credit: 189_273, Balance: i64(732_764), Counterparty: "RAMESH TRADERS", Narration: "UPI/RAMESH TRADERS"},
		{Date: "2024-03-10", Credit: 100_003, Balance: i64(832_767), Counterparty: "KIRANA SALES", Narration: "UPI/KIRANA SALES"},
		{Date: "2024-03-20", Debit: 90_011, Balance: i64(742_756), Counterparty: "SUPPLIER ONE", Narration: "IMPS/SUPPLIER ONE"},
		{Date: "2024-04-01", Credit: 47_229, Balance: i64(789_985), Counterparty: "RAMESH TRADERS", Narration: "UPI/RAMESH TRADERS"},
	}
}

func TestRunErrors(t *testing.T) {
	cfg := config.Default()
	if _, err := Run(nil, Params{}, Docs{}, statement.Meta{}, cfg); !errors.Is(err, ErrNoTransactions) {
		t.Errorf("err = %v", err)
	}
	bad := []statement.Transaction{{Date: "not-a-date", Credit: 100}}
	if _, err := Run(bad, Params{}, Docs{}, statement.Meta{}, cfg); !errors.Is(err, ErrNoUsableTransactions) {
		t.Errorf("err = %v", err)
	}
}

func TestRunConcentrationDominatesVerdict(t *testing.T) {
	cfg := config.Default()
	res, err := Run(concentratedFixture(), Params{}, Docs{}, statement.Meta{BankName: "HDFC", AccountType: "CURRENT"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.PeriodStart != "2024-01-01" || res.PeriodEnd != "2024-04-01" || res.StatementDays != 92 {
		t.Fatalf("period = %s..%s (%d days)", res.PeriodStart, res.PeriodEnd, res.StatementDays)
	}
	if res.BankName != "HDFC" || res.AccountType != "CURRENT" {
		t.Errorf("meta = %s/%s", res.BankName, res.AccountType)
	}
	if len(res.CreditHeatMap) == 0 {
		t.Fatal("empty credit heat map")
	}
	top := res.CreditHeatMap[0]
	if top.Counterparty != "RAMESH TRADERS" {
		t.Fatalf("top source = %s", top.Counterparty)
	}
	// 6,50,000 of 10,00,000 credits.
	if top.PctOfTotal < 64.9 || top.PctOfTotal > 65.1 {
		t.Errorf("top pct = %v", top.PctOfTotal)
	}
	if top.Dependency != "High" {
		t.Errorf("dependency = %s", top.Dependency)
	}

	var r010 *RuleRun
	for i := range res.RuleRunLog {
		if res.RuleRunLog[i].ID == "R010" {
			r010 = &res.RuleRunLog[i]
		}
	}
	if r010 == nil {
		t.Fatal("R010 missing from the rule log")
	}
	if r010.Passed {
		t.Error("65% single-source concentration must fail R010")
	}
	if !strings.Contains(res.Verdict.RecoveryLeverageSummary, "RAMESH TRADERS") {
		t.Errorf("recovery summary = %q", res.Verdict.RecoveryLeverageSummary)
	}
}

func TestRunScoreIsDeltaSum(t *testing.T) {
	cfg := config.Default()
	res, err := Run(concentratedFixture(), Params{}, Docs{}, statement.Meta{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, r := range res.RuleRunLog {
		sum += r.ScoreDelta
	}
	want := 100 + sum
	if want < 0 {
		want = 0
	}
	if want > 100 {
		want = 100
	}
	if res.Verdict.Score != want {
		t.Errorf("score = %d, want %d from the rule log", res.Verdict.Score, want)
	}
	if res.Verdict.RiskGrade != riskGrade(res.Verdict.Score) {
		t.Errorf("grade = %s for score %d", res.Verdict.RiskGrade, res.Verdict.Score)
	}
}

func TestRunDeterministic(t *testing.T) {
	cfg := config.Default()
	d := Docs{
		GstMonths: []docs.GstMonth{
			{Month: "2024-01", Turnover: 900_000},
			{Month: "2024-02", Turnover: 950_000, DaysLate: 3},
			{Month: "2024-03", Turnover: 0},
		},
		ItrYears: []docs.ItrYear{
			{Year: "FY 2022-23", Turnover: 10_000_000, Profit: 500_000, TaxPaid: 40_000},
			{Year: "FY 2023-24", Turnover: 11_000_000, Profit: 200_000, TaxPaid: 0},
		},
	}
	run := func() string {
		res, err := Run(concentratedFixture(), Params{RequestedExposure: 8_000_000}, d, statement.Meta{BankName: "AXIS"}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		b, err := json.Marshal(res)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	if run() != run() {
		t.Fatal("repeated runs produced different serialized output")
	}
}

func TestRunWithDocumentsAddsBlocks(t *testing.T) {
	cfg := config.Default()
	d := Docs{
		GstMonths: []docs.GstMonth{
			{Month: "2024-01", Turnover: 300_000},
			{Month: "2024-02", Turnover: 320_000},
			{Month: "2024-03", Turnover: 0},
		},
		ItrYears: []docs.ItrYear{
			{Year: "FY 2023-24", Turnover: 4_000_000, Profit: 50_000, TaxPaid: 4_000},
		},
	}
	res, err := Run(concentratedFixture(), Params{}, d, statement.Meta{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Gst == nil || res.Itr == nil || res.CrossVerification == nil || res.Credibility == nil {
		t.Fatal("document blocks missing")
	}
	// The March NIL filing collides with live bank credits.
	var gst06 bool
	for _, r := range res.RuleRunLog {
		if r.ID == "GST-06" {
			gst06 = true
			if r.Passed {
				t.Error("GST-06 can never pass")
			}
		}
	}
	if !gst06 {
		t.Error("GST-06 missing for a NIL month with bank credits")
	}
	var nilTrigger bool
	for _, tr := range res.Triggers {
		if tr.TriggerType == "GST_NIL_WITH_BANK_CREDITS" {
			nilTrigger = true
			if tr.Severity != "Critical" {
				t.Errorf("severity = %s", tr.Severity)
			}
		}
	}
	if !nilTrigger {
		t.Error("nil-return trigger missing")
	}
	seen := make(map[string]bool)
	for _, m := range res.Metrics {
		seen[m.Key] = true
	}
	for _, key := range []string{"total_credits", "gst_avg_monthly_turnover", "itr_latest_turnover", "credibility_score"} {
		if !seen[key] {
			t.Errorf("metric %s missing", key)
		}
	}
}

func TestRunBankOnlyOmitsDocBlocks(t *testing.T) {
	cfg := config.Default()
	res, err := Run(concentratedFixture(), Params{}, Docs{}, statement.Meta{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Gst != nil || res.Itr != nil || res.CrossVerification != nil || res.Credibility != nil {
		t.Error("document blocks should be nil without inputs")
	}
	for _, r := range res.RuleRunLog {
		if r.ID[0] != 'R' {
			t.Errorf("doc rule %s ran without documents", r.ID)
		}
	}
	want := map[string]bool{"BALANCE_HARD_STOP": true, "BALANCE_WARN": true, "COLLECTION_MISS": true}
	for _, tr := range res.Triggers {
		delete(want, tr.TriggerType)
	}
	if len(want) != 0 {
		t.Errorf("always-on triggers missing: %v", want)
	}
}
