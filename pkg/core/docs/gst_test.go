package docs

import (
	"testing"

	"credit_autopilot/pkg/core/config"
)

func TestMonthIndexRoundTrip(t *testing.T) {
	cases := []struct {
		ym   string
		ok   bool
		next string
	}{
		{"2024-01", true, "2024-02"},
		{"2023-12", true, "2024-01"},
		{"2024-13", false, ""},
		{"garbage", false, ""},
		{"", false, ""},
	}
	for _, c := range cases {
		i, ok := MonthIndex(c.ym)
		if ok != c.ok {
			t.Errorf("MonthIndex(%q) ok = %v, want %v", c.ym, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		if got := MonthIndexToYM(i); got != c.ym {
			t.Errorf("round trip %q = %q", c.ym, got)
		}
		if got := MonthIndexToYM(i + 1); got != c.next {
			t.Errorf("next of %q = %q, want %q", c.ym, got, c.next)
		}
	}
}

func TestComputeGstUnderwritingEmpty(t *testing.T) {
	if got := ComputeGstUnderwriting(nil, config.Default()); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
	// Months with unparseable labels are dropped entirely.
	if got := ComputeGstUnderwriting([]GstMonth{{Month: "Q1 FY24", Turnover: 100}}, config.Default()); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestComputeGstUnderwritingGapsAndLate(t *testing.T) {
	months := []GstMonth{
		{Month: "2024-01", Turnover: 1_000_000},
		{Month: "2024-02", Turnover: 1_100_000, DaysLate: 5},
		// 2024-03 missing.
		{Month: "2024-04", Turnover: 900_000, DaysLate: 12},
		{Month: "2024-05", Turnover: 1_050_000},
	}
	g := ComputeGstUnderwriting(months, config.Default())
	if g == nil {
		t.Fatal("nil result")
	}
	if g.FilingGapCount != 1 {
		t.Errorf("gaps = %d", g.FilingGapCount)
	}
	if len(g.MissingMonths) != 1 || g.MissingMonths[0] != "2024-03" {
		t.Errorf("missing = %v", g.MissingMonths)
	}
	if g.LateFilingCount != 2 || len(g.LateMonths) != 2 {
		t.Errorf("late = %d %v", g.LateFilingCount, g.LateMonths)
	}
	wantFlags := map[string]bool{"GST_MISSED_FILINGS": true, "GST_LATE_FILINGS": true}
	for _, f := range g.Flags {
		delete(wantFlags, f)
	}
	if len(wantFlags) != 0 {
		t.Errorf("flags %v missing from %v", wantFlags, g.Flags)
	}
	if g.AvgMonthlyTurnover != 1_012_500 {
		t.Errorf("avg turnover = %d", g.AvgMonthlyTurnover)
	}
	if g.VolatilityBucket != "Low" {
		t.Errorf("volatility = %s (cv %v)", g.VolatilityBucket, g.VolatilityScore)
	}
}

func TestComputeGstUnderwritingVolatilityBuckets(t *testing.T) {
	// Alternating 2,00,000 and 18,00,000 gives CV 0.8.
	months := []GstMonth{
		{Month: "2024-01", Turnover: 200_000},
		{Month: "2024-02", Turnover: 1_800_000},
		{Month: "2024-03", Turnover: 200_000},
		{Month: "2024-04", Turnover: 1_800_000},
	}
	g := ComputeGstUnderwriting(months, config.Default())
	if g.VolatilityBucket != "High" {
		t.Errorf("bucket = %s (cv %v)", g.VolatilityBucket, g.VolatilityScore)
	}
	found := false
	for _, f := range g.Flags {
		if f == "GST_VOLATILITY_HIGH" {
			found = true
		}
	}
	if !found {
		t.Errorf("flags = %v", g.Flags)
	}
}

func TestComputeGstUnderwritingConsecutiveDrops(t *testing.T) {
	// Two back-to-back drops of more than 30 percent.
	months := []GstMonth{
		{Month: "2024-01", Turnover: 1_000_000},
		{Month: "2024-02", Turnover: 600_000},
		{Month: "2024-03", Turnover: 300_000},
		{Month: "2024-04", Turnover: 150_000},
	}
	g := ComputeGstUnderwriting(months, config.Default())
	if len(g.ConsecutiveDropMonths) != 2 {
		t.Fatalf("consecutive drops = %v", g.ConsecutiveDropMonths)
	}
	if g.ConsecutiveDropMonths[0] != "2024-03" || g.ConsecutiveDropMonths[1] != "2024-04" {
		t.Errorf("drop months = %v", g.ConsecutiveDropMonths)
	}
	found := false
	for _, f := range g.Flags {
		if f == "GST_CONSECUTIVE_DROP" {
			found = true
		}
	}
	if !found {
		t.Errorf("flags = %v", g.Flags)
	}
}

func TestComputeGstUnderwritingSeasonality(t *testing.T) {
	// Three festival months carry well over half the year.
	months := []GstMonth{
		{Month: "2024-01", Turnover: 100_000},
		{Month: "2024-02", Turnover: 100_000},
		{Month: "2024-03", Turnover: 100_000},
		{Month: "2024-04", Turnover: 100_000},
		{Month: "2024-05", Turnover: 100_000},
		{Month: "2024-06", Turnover: 100_000},
		{Month: "2024-07", Turnover: 100_000},
		{Month: "2024-08", Turnover: 100_000},
		{Month: "2024-09", Turnover: 100_000},
		{Month: "2024-10", Turnover: 2_000_000},
		{Month: "2024-11", Turnover: 2_000_000},
		{Month: "2024-12", Turnover: 2_000_000},
	}
	g := ComputeGstUnderwriting(months, config.Default())
	if g.SeasonalityBucket != "High" {
		t.Errorf("seasonality = %s", g.SeasonalityBucket)
	}
}
