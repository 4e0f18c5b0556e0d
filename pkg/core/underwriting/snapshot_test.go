package underwriting

import (
	"math"
	"testing"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/statement"
)

func i64(v int64) *int64 { return &v }

func snapshotFixture() []statement.Transaction {
	return []statement.Transaction{
		{Date: "2024-04-01", Credit: 300_000, Balance: i64(300_000), Counterparty: "RAMESH TRADERS", Narration: "UPI/RAMESH TRADERS"},
		{Date: "2024-04-10", Debit: 50_000, Balance: i64(250_000), Counterparty: "RENT LANDLORD", Narration: "RENT APRIL"},
		{Date: "2024-04-15", Credit: 300_000, Balance: i64(550_000), Counterparty: "RAMESH TRADERS", Narration: "UPI/RAMESH TRADERS"},
		{Date: "2024-04-20", Debit: 1_000, Balance: i64(549_000), Counterparty: "HDFC BANK", Narration: "SMS CHARGES"},
		{Date: "2024-04-25", Debit: 5_000, Balance: i64(544_000), Counterparty: "CHQ", Narration: "CHQ RETURN NOT REP"},
		{Date: "2024-04-30", Debit: 50_000, Balance: i64(494_000), Counterparty: "RENT LANDLORD", Narration: "RENT MAY ADV"},
	}
}

func TestNormalizeRows(t *testing.T) {
	cfg := config.Default()
	txns := []statement.Transaction{
		{Date: "2024-04-15", Credit: 100, Counterparty: "B CO"},
		{Date: "garbage", Credit: 999},
		{Date: "2024-04-01", Debit: 50, Narration: "UPI/PAYTM/A TRADERS"},
	}
	rows := normalizeRows(txns, cfg)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (bad date dropped)", len(rows))
	}
	if rows[0].dateIso != "2024-04-01" || rows[1].dateIso != "2024-04-15" {
		t.Errorf("order = %s, %s", rows[0].dateIso, rows[1].dateIso)
	}
	// Missing counterparty is resolved from the narration.
	if rows[0].counterparty != "A TRADERS" {
		t.Errorf("counterparty = %q", rows[0].counterparty)
	}
}

func TestDaysBetweenInclusive(t *testing.T) {
	rows := normalizeRows(snapshotFixture(), config.Default())
	if got := daysBetweenInclusive(rows[0].date, rows[len(rows)-1].date); got != 30 {
		t.Errorf("days = %d, want 30", got)
	}
}

func TestBuildSnapshot(t *testing.T) {
	cfg := config.Default()
	rows := normalizeRows(snapshotFixture(), cfg)
	s := buildSnapshot(rows, cfg)

	if s.periodStart != "2024-04-01" || s.periodEnd != "2024-04-30" || s.statementDays != 30 {
		t.Fatalf("period = %s..%s (%d days)", s.periodStart, s.periodEnd, s.statementDays)
	}
	if s.totalCredits != 600_000 || s.totalDebits != 106_000 {
		t.Errorf("totals = %d/%d", s.totalCredits, s.totalDebits)
	}
	if math.Abs(s.avgDailyCredits-20_000) > 1e-9 {
		t.Errorf("avg daily = %v", s.avgDailyCredits)
	}
	if math.Abs(s.avgMonthlyCredits-600_000) > 1e-9 {
		t.Errorf("avg monthly = %v", s.avgMonthlyCredits)
	}
	if s.minBalance != 250_000 {
		t.Errorf("min balance = %d", s.minBalance)
	}
	wantAvgBal := 2_687_000.0 / 6
	if math.Abs(s.avgUsableBalance-wantAvgBal) > 1e-6 {
		t.Errorf("avg balance = %v, want %v", s.avgUsableBalance, wantAvgBal)
	}
	// Two credit days of 3,00,000 each: no spread at all.
	if s.creditCV != 0 || s.creditVolatility != "Low" {
		t.Errorf("cv = %v bucket = %s", s.creditCV, s.creditVolatility)
	}
	// max(25,000 floor, 5% of 6,00,000).
	if s.lowBalanceThreshold != 30_000 {
		t.Errorf("low balance threshold = %d", s.lowBalanceThreshold)
	}
	if s.lowBalanceDays != 0 || s.lowBalanceRatio != 0 {
		t.Errorf("low balance = %d days ratio %v", s.lowBalanceDays, s.lowBalanceRatio)
	}
	if s.penaltyChargeCount != 1 {
		t.Errorf("penalties = %d", s.penaltyChargeCount)
	}
	if s.bounceReturnCount != 1 {
		t.Errorf("bounces = %d", s.bounceReturnCount)
	}
	// Rent recurs twice at the same amount: 1,00,000 over 30 days.
	if math.Abs(s.fixedObligationMonthly-100_000) > 1e-6 {
		t.Errorf("fixed obligations = %v", s.fixedObligationMonthly)
	}
}

func TestEstimateFixedObligationsDeviationGate(t *testing.T) {
	cfg := config.Default()
	// Same counterparty, amounts 30% apart: too irregular to count.
	txns := []statement.Transaction{
		{Date: "2024-04-01", Debit: 100_000, Counterparty: "SUPPLIER"},
		{Date: "2024-04-15", Debit: 130_000, Counterparty: "SUPPLIER"},
		{Date: "2024-04-30", Credit: 1_000_000, Counterparty: "BUYER"},
	}
	rows := normalizeRows(txns, cfg)
	if got := estimateFixedObligations(rows, 30, 1_000_000, cfg); got != 0 {
		t.Errorf("fixed obligations = %v, want 0", got)
	}
}

func TestEstimateFixedObligationsCap(t *testing.T) {
	cfg := config.Default()
	txns := []statement.Transaction{
		{Date: "2024-04-01", Debit: 500_000, Counterparty: "LENDER"},
		{Date: "2024-04-15", Debit: 500_000, Counterparty: "LENDER"},
	}
	rows := normalizeRows(txns, cfg)
	// Raw projection is 10,00,000; the cap is 80% of 2,00,000 credits.
	if got := estimateFixedObligations(rows, 30, 200_000, cfg); math.Abs(got-160_000) > 1e-9 {
		t.Errorf("fixed obligations = %v, want 160000", got)
	}
}

func TestPenaltyAndBounceMatchers(t *testing.T) {
	if !isPenaltyCharge("CONSOLIDATED CHARGES Q1") || !isPenaltyCharge("PENAL INT") || isPenaltyCharge("UPI/RAMESH") {
		t.Error("penalty matcher")
	}
	if !isBounceOrReturn("NACH REVERSAL") || !isBounceOrReturn("CHQ RETURN") || isBounceOrReturn("RENT APRIL") {
		t.Error("bounce matcher")
	}
}
