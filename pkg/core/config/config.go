// Package config holds the business tuning constants used across the
// statement and underwriting engines. The values are unexplained lender
// policy numbers carried over from production; they are deliberately kept
// as named, overridable fields rather than literals so a domain expert can
// review and retune them without touching scoring logic.
package config

import (
	"fmt"
	"os"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// Thresholds is the full set of tuning constants. Zero values are never
// meaningful; always start from Default() and override.
type Thresholds struct {
	// Statement normalization and classification.
	HighValueAmount    int64   `yaml:"high_value_amount"` // HIGH_VALUE flag, DOUBT floor, spike credit floor
	OddFigureFloor     int64   `yaml:"odd_figure_floor"`  // ODD FIG category / flag floor
	SpikeDrainRatio    float64 `yaml:"spike_drain_ratio"` // next debit vs credit for SPIKE_DRAIN
	BalanceTolerance   int64   `yaml:"balance_tolerance"` // continuity check slack, currency units
	CounterpartyMaxLen int     `yaml:"counterparty_max_len"`

	// Snapshot.
	LowBalanceFloor       int64   `yaml:"low_balance_floor"`
	LowBalancePctOfCredit float64 `yaml:"low_balance_pct_of_credit"`
	VolatilityLowCV       float64 `yaml:"volatility_low_cv"`
	VolatilityHighCV      float64 `yaml:"volatility_high_cv"`
	FixedObligationMaxDev float64 `yaml:"fixed_obligation_max_dev"` // deviation from group mean
	FixedObligationCapPct float64 `yaml:"fixed_obligation_cap_pct"` // cap vs avg monthly credits

	// Private-lender detector.
	SuspicionScoreMin    int     `yaml:"suspicion_score_min"`
	SuspicionEvidenceCap int     `yaml:"suspicion_evidence_cap"`
	LenderHitsMin        int     `yaml:"lender_hits_min"`
	EstimatedLendersCap  int     `yaml:"estimated_lenders_cap"`
	RoundFigureBandMin   int64   `yaml:"round_figure_band_min"`
	RoundFigureBandMax   int64   `yaml:"round_figure_band_max"`
	RolloverMaxGapDays   int     `yaml:"rollover_max_gap_days"`
	RolloverAmountTol    float64 `yaml:"rollover_amount_tol"`
	WeeklyGapMinDays     int     `yaml:"weekly_gap_min_days"`
	WeeklyGapMaxDays     int     `yaml:"weekly_gap_max_days"`
	WeeklyGapHitsMin     int     `yaml:"weekly_gap_hits_min"`
	DebitEventsWindow    int     `yaml:"debit_events_window"` // cadence scan window, most recent debits

	// Velocity / control classifier.
	SameDayPassThroughRatio float64 `yaml:"same_day_pass_through_ratio"`
	IdleRetentionLow        float64 `yaml:"idle_retention_low"`
	IdleRetentionHigh       float64 `yaml:"idle_retention_high"`

	// Document cross-verification.
	SeasonalityHighShare  float64 `yaml:"seasonality_high_share"`
	SeasonalityMedShare   float64 `yaml:"seasonality_med_share"`
	ConsecutiveDropPct    float64 `yaml:"consecutive_drop_pct"`
	MismatchBandLow       float64 `yaml:"mismatch_band_low"` // diff pct band edges for credibility penalties
	MismatchBandMid       float64 `yaml:"mismatch_band_mid"`
	MismatchBandHigh      float64 `yaml:"mismatch_band_high"`
	CrossRowsCap          int     `yaml:"cross_rows_cap"`
	MissingMonthsCap      int     `yaml:"missing_months_cap"`
	GstAnnualizeMinMonths int     `yaml:"gst_annualize_min_months"`

	// Pricing and structuring.
	BaseAPR                float64 `yaml:"base_apr"`
	MinAPR                 float64 `yaml:"min_apr"`
	MaxAPR                 float64 `yaml:"max_apr"`
	RequestedExposureMin   int64   `yaml:"requested_exposure_min"`
	RequestedExposureMax   int64   `yaml:"requested_exposure_max"`
	RecommendedExposureMin int64   `yaml:"recommended_exposure_min"`
	CashCapFloor           int64   `yaml:"cash_cap_floor"`
	CashCapMultiple        float64 `yaml:"cash_cap_multiple"`
	UpfrontPctMin          float64 `yaml:"upfront_pct_min"`
	UpfrontPctMax          float64 `yaml:"upfront_pct_max"`
	CollectionFloor        int64   `yaml:"collection_floor"`
	StageOneShare          float64 `yaml:"stage_one_share"`

	// Triggers.
	BalanceHardStopFloor int64   `yaml:"balance_hard_stop_floor"`
	BalanceHardStopPct   float64 `yaml:"balance_hard_stop_pct"` // of avg weekly credits
	BalanceWarnFloor     int64   `yaml:"balance_warn_floor"`
	BalanceWarnPct       float64 `yaml:"balance_warn_pct"`
}

// Default returns the production tuning values.
func Default() *Thresholds {
	return &Thresholds{
		HighValueAmount:    500_000,
		OddFigureFloor:     1_000_000,
		SpikeDrainRatio:    0.7,
		BalanceTolerance:   5,
		CounterpartyMaxLen: 42,

		LowBalanceFloor:       25_000,
		LowBalancePctOfCredit: 0.05,
		VolatilityLowCV:       0.35,
		VolatilityHighCV:      0.75,
		FixedObligationMaxDev: 0.12,
		FixedObligationCapPct: 0.80,

		SuspicionScoreMin:    2,
		SuspicionEvidenceCap: 30,
		LenderHitsMin:        2,
		EstimatedLendersCap:  12,
		RoundFigureBandMin:   25_000,
		RoundFigureBandMax:   500_000,
		RolloverMaxGapDays:   2,
		RolloverAmountTol:    0.08,
		WeeklyGapMinDays:     5,
		WeeklyGapMaxDays:     9,
		WeeklyGapHitsMin:     4,
		DebitEventsWindow:    60,

		SameDayPassThroughRatio: 0.85,
		IdleRetentionLow:        0.10,
		IdleRetentionHigh:       0.25,

		SeasonalityHighShare:  0.50,
		SeasonalityMedShare:   0.35,
		ConsecutiveDropPct:    30,
		MismatchBandLow:       10,
		MismatchBandMid:       25,
		MismatchBandHigh:      40,
		CrossRowsCap:          36,
		MissingMonthsCap:      24,
		GstAnnualizeMinMonths: 6,

		BaseAPR:                30,
		MinAPR:                 18,
		MaxAPR:                 72,
		RequestedExposureMin:   5_000_000,
		RequestedExposureMax:   100_000_000,
		RecommendedExposureMin: 1_000_000,
		CashCapFloor:           500_000,
		CashCapMultiple:        1.1,
		UpfrontPctMin:          0.10,
		UpfrontPctMax:          0.60,
		CollectionFloor:        1_000,
		StageOneShare:          0.60,

		BalanceHardStopFloor: 50_000,
		BalanceHardStopPct:   0.15,
		BalanceWarnFloor:     100_000,
		BalanceWarnPct:       0.25,
	}
}

// Load reads overrides from a yaml or hjson file on top of Default().
// Missing file is not an error when path is empty.
func Load(path string) (*Thresholds, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds config: %w", err)
	}
	if strings.HasSuffix(path, ".hjson") {
		// hjson tolerates comments and trailing commas; normalize to a plain
		// map first so the same snake_case keys work for both formats.
		var m map[string]interface{}
		if err := hjson.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse thresholds hjson: %w", err)
		}
		buf, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("normalize thresholds hjson: %w", err)
		}
		data = buf
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse thresholds yaml: %w", err)
	}
	return t, nil
}
