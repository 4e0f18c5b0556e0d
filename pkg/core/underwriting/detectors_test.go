package underwriting

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/statement"
)

func TestIsRoundFigure(t *testing.T) {
	cases := []struct {
		amount int64
		want   bool
	}{
		{10_000, true},
		{25_000, true},
		{7_000, true},
		{1_234, false},
		{0, false},
		{-5_000, false},
	}
	for _, c := range cases {
		if got := isRoundFigure(c.amount); got != c.want {
			t.Errorf("isRoundFigure(%d) = %v, want %v", c.amount, got, c.want)
		}
	}
}

func TestDetectPrivateLendersStacking(t *testing.T) {
	cfg := config.Default()
	txns := []statement.Transaction{
		{Date: "2024-04-01", Debit: 25_000, Counterparty: "SHETTY FINANCE", Narration: "HAND LOAN REPAY SHETTY"},
		{Date: "2024-04-08", Debit: 25_000, Counterparty: "SHETTY FINANCE", Narration: "HAND LOAN REPAY SHETTY"},
		{Date: "2024-04-15", Debit: 25_000, Counterparty: "SHETTY FINANCE", Narration: "HAND LOAN REPAY SHETTY"},
		{Date: "2024-04-03", Debit: 30_000, Counterparty: "MANI COLLECTIONS", Narration: "WEEKLY COLLECT MANI"},
		{Date: "2024-04-10", Debit: 30_000, Counterparty: "MANI COLLECTIONS", Narration: "WEEKLY COLLECT MANI"},
		{Date: "2024-04-20", Debit: 12_345, Counterparty: "GROCERY", Narration: "UPI/GROCERY STORE"},
	}
	rows := normalizeRows(txns, cfg)
	got := detectPrivateLenders(rows, 30, cfg)
	if got.EstimatedLenders != 2 {
		t.Fatalf("estimated lenders = %d, want 2", got.EstimatedLenders)
	}
	// Five suspicious debits, 1,35,000 over 30 days.
	if got.ApproxMonthlyDebtLoad != 135_000 {
		t.Errorf("debt load = %d", got.ApproxMonthlyDebtLoad)
	}
	if len(got.Evidence) != 5 {
		t.Errorf("evidence = %d entries", len(got.Evidence))
	}
	for _, e := range got.Evidence {
		if e.Direction != "DEBIT" || e.Amount <= 0 || e.Date == "" {
			t.Errorf("evidence entry = %+v", e)
		}
	}
	if !strings.Contains(got.Summary, "Estimated private lenders: 2") {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestDetectPrivateLendersEvidenceNarrationTruncation(t *testing.T) {
	cfg := config.Default()
	// Narration longer than the evidence cap, made of multi-byte runes so a
	// byte-position cut would split a character.
	long := "HAND LOAN REPAY " + strings.Repeat("₹", 200)
	txns := []statement.Transaction{
		{Date: "2024-04-01", Debit: 25_000, Counterparty: "SHETTY FINANCE", Narration: long},
		{Date: "2024-04-08", Debit: 25_000, Counterparty: "SHETTY FINANCE", Narration: long},
	}
	rows := normalizeRows(txns, cfg)
	got := detectPrivateLenders(rows, 30, cfg)
	if len(got.Evidence) == 0 {
		t.Fatal("expected evidence entries")
	}
	for _, e := range got.Evidence {
		if !utf8.ValidString(e.Narration) {
			t.Errorf("evidence narration is not valid UTF-8: %q", e.Narration)
		}
		if n := utf8.RuneCountInString(e.Narration); n > 140 {
			t.Errorf("evidence narration = %d runes, want <= 140", n)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"SHORT", 140, "SHORT"},
		{"ABCDE", 3, "ABC"},
		{"₹₹₹₹₹", 3, "₹₹₹"},
		{"", 5, ""},
	}
	for _, c := range cases {
		if got := truncateRunes(c.in, c.n); got != c.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestDetectPrivateLendersRollover(t *testing.T) {
	cfg := config.Default()
	txns := []statement.Transaction{
		{Date: "2024-04-01", Credit: 200_000, Counterparty: "RAJU", Narration: "HAND LOAN RECD RAJU"},
		{Date: "2024-04-02", Debit: 195_000, Counterparty: "RAJU", Narration: "REPAY RAJU"},
	}
	rows := normalizeRows(txns, cfg)
	got := detectPrivateLenders(rows, 30, cfg)
	if got.RolloverRecyclingSignals != 1 {
		t.Errorf("rollover signals = %d", got.RolloverRecyclingSignals)
	}
	if !strings.Contains(got.Summary, "Rollover/recycling signals: 1") {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestDetectPrivateLendersQuietAccount(t *testing.T) {
	cfg := config.Default()
	txns := []statement.Transaction{
		{Date: "2024-04-02", Debit: 12_345, Counterparty: "GROCERY", Narration: "UPI/GROCERY STORE"},
		{Date: "2024-04-17", Credit: 98_765, Counterparty: "BUYER", Narration: "NEFT/BUYER PAYMENT"},
	}
	rows := normalizeRows(txns, cfg)
	got := detectPrivateLenders(rows, 30, cfg)
	if got.EstimatedLenders != 0 || got.RolloverRecyclingSignals != 0 || len(got.Evidence) != 0 {
		t.Errorf("got %+v", got)
	}
	if got.WeeklyCollectionsDetected {
		t.Error("weekly collections on a quiet account")
	}
}

func TestWeeklyCollectionsDetected(t *testing.T) {
	cfg := config.Default()
	weekly := []statement.Transaction{
		{Date: "2024-04-01", Debit: 10_000},
		{Date: "2024-04-08", Debit: 10_000},
		{Date: "2024-04-15", Debit: 10_000},
		{Date: "2024-04-22", Debit: 10_000},
		{Date: "2024-04-29", Debit: 10_000},
	}
	if !weeklyCollectionsDetected(normalizeRows(weekly, cfg), cfg) {
		t.Error("five debits on a 7-day cadence should flag")
	}
	daily := []statement.Transaction{
		{Date: "2024-04-01", Debit: 10_000},
		{Date: "2024-04-02", Debit: 10_000},
		{Date: "2024-04-03", Debit: 10_000},
		{Date: "2024-04-04", Debit: 10_000},
		{Date: "2024-04-05", Debit: 10_000},
	}
	if weeklyCollectionsDetected(normalizeRows(daily, cfg), cfg) {
		t.Error("daily debits are not a weekly cadence")
	}
}

func TestDetectCashVelocity(t *testing.T) {
	cfg := config.Default()
	// 2024-04-01 is a Monday.
	txns := []statement.Transaction{
		{Date: "2024-04-01", Credit: 100_000, Counterparty: "BUYER A"},
		{Date: "2024-04-01", Debit: 100_000, Counterparty: "SUPPLIER"},
		{Date: "2024-04-02", Credit: 100_000, Counterparty: "BUYER B"},
		{Date: "2024-04-02", Debit: 50_000, Counterparty: "SUPPLIER"},
	}
	rows := normalizeRows(txns, cfg)
	s := snapshot{avgUsableBalance: 30_000, avgMonthlyCredits: 1_000_000, creditVolatility: "Low"}
	got := detectCashVelocity(rows, s, cfg)

	if math.Abs(got.SameDaySpendRatio-0.75) > 1e-9 {
		t.Errorf("same day ratio = %v", got.SameDaySpendRatio)
	}
	if math.Abs(got.TPlusOneSpendRatio-0.25) > 1e-9 {
		t.Errorf("t+1 ratio = %v", got.TPlusOneSpendRatio)
	}
	if math.Abs(got.IdleCashRetentionRatio-0.03) > 1e-9 {
		t.Errorf("idle ratio = %v", got.IdleCashRetentionRatio)
	}
	// Equal weekday totals: the earliest weekday index wins the tie.
	if got.TopInflowWeekday != "Mon" {
		t.Errorf("top weekday = %s", got.TopInflowWeekday)
	}
	if len(got.TopInflowMonthDays) != 2 || got.TopInflowMonthDays[0] != 1 || got.TopInflowMonthDays[1] != 2 {
		t.Errorf("top month days = %v", got.TopInflowMonthDays)
	}
	if got.BorrowerType != "Stable earner / salary-like" {
		t.Errorf("borrower type = %s", got.BorrowerType)
	}
}

func TestDetectCashVelocityPassThrough(t *testing.T) {
	cfg := config.Default()
	txns := []statement.Transaction{
		{Date: "2024-04-01", Credit: 500_000, Counterparty: "BUYER"},
		{Date: "2024-04-01", Debit: 500_000, Counterparty: "HAND LOAN"},
	}
	rows := normalizeRows(txns, cfg)
	s := snapshot{avgUsableBalance: 10_000, avgMonthlyCredits: 500_000, creditVolatility: "High"}
	got := detectCashVelocity(rows, s, cfg)
	if got.SameDaySpendRatio != 1 {
		t.Errorf("same day ratio = %v", got.SameDaySpendRatio)
	}
	if got.BorrowerType != "Pass-through operator (low control, thin margin)" {
		t.Errorf("borrower type = %s", got.BorrowerType)
	}
}
