package underwriting

import (
	"fmt"
	"math"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/docs"
	"credit_autopilot/pkg/core/utils"
)

// buildTriggers emits the post-disbursal monitoring conditions. The two
// balance triggers and the collection-miss trigger always fire; the rest
// are conditional on the detectors and document blocks.
func buildTriggers(s snapshot, lenders PrivateLenderCompetition, velocity CashVelocityControl,
	gst *docs.GstUnderwriting, itr *docs.ItrUnderwriting, cross *docs.CrossVerification,
	cfg *config.Thresholds) []Trigger {

	hardStop := maxInt64(cfg.BalanceHardStopFloor, int64(math.Round(s.avgWeeklyCredits*cfg.BalanceHardStopPct)))
	warn := maxInt64(cfg.BalanceWarnFloor, int64(math.Round(s.avgWeeklyCredits*cfg.BalanceWarnPct)))

	triggers := []Trigger{
		{
			TriggerType: "BALANCE_HARD_STOP",
			Severity:    "Critical",
			Condition:   map[string]any{"balance_lt": hardStop},
			Description: fmt.Sprintf("Hard-stop: if balance drops below ₹%s, freeze disbursal/stop rolling and collect immediately.", utils.FormatINR(hardStop)),
		},
		{
			TriggerType: "BALANCE_WARN",
			Severity:    "High",
			Condition:   map[string]any{"balance_lt": warn},
			Description: fmt.Sprintf("Warning: if balance stays below ₹%s for 2 consecutive days, switch to daily follow-up + tighten collections.", utils.FormatINR(warn)),
		},
	}

	if lenders.EstimatedLenders >= 3 || lenders.WeeklyCollectionsDetected {
		triggers = append(triggers, Trigger{
			TriggerType: "NEW_LENDER_SIGNAL",
			Severity:    "High",
			Condition:   map[string]any{"estimated_lenders": lenders.EstimatedLenders, "weekly_collections_detected": lenders.WeeklyCollectionsDetected},
			Description: "Private-lender stacking detected. Any new lender entry/interest payment → immediately re-price + reduce exposure / stop stage-2.",
		})
	}
	if s.bounceReturnCount > 0 {
		triggers = append(triggers, Trigger{
			TriggerType: "BOUNCE_OR_RETURN",
			Severity:    "High",
			Condition:   map[string]any{"bounce_return_count": s.bounceReturnCount},
			Description: "Bounce/return detected. Treat as stress: tighten collection frequency and demand bank-day evidence.",
		})
	}
	if velocity.SameDaySpendRatio >= cfg.SameDayPassThroughRatio {
		triggers = append(triggers, Trigger{
			TriggerType: "SPIKE_THEN_DRAIN",
			Severity:    "Medium",
			Condition:   map[string]any{"same_day_spend_ratio_gte": cfg.SameDayPassThroughRatio},
			Description: "Spike-then-drain pattern. Collections must align with peak inflow day(s) only.",
		})
	}
	triggers = append(triggers, Trigger{
		TriggerType: "COLLECTION_MISS",
		Severity:    "Critical",
		Condition:   map[string]any{"miss_count_gte": 1},
		Description: "Any 1 missed collection → classify as early default risk and move to recovery mode (no comfort).",
	})

	if gst != nil && (gst.FilingGapCount > 0 || gst.LateFilingCount >= 2) {
		severity := "Medium"
		if gst.FilingGapCount > 0 {
			severity = "High"
		}
		triggers = append(triggers, Trigger{
			TriggerType: "GST_DISCIPLINE",
			Severity:    severity,
			Condition:   map[string]any{"filing_gap_count": gst.FilingGapCount, "late_filing_count": gst.LateFilingCount},
			Description: "GST discipline risk: gaps/late filings. Any further non-compliance → freeze enhancements and move to control collections.",
		})
	}
	if cross != nil && cross.BankVsGstAvgDiffPct != nil && *cross.BankVsGstAvgDiffPct > 25 {
		v := *cross.BankVsGstAvgDiffPct
		severity := "High"
		if v > 35 {
			severity = "Critical"
		}
		triggers = append(triggers, Trigger{
			TriggerType: "BANK_GST_MISMATCH",
			Severity:    severity,
			Condition:   map[string]any{"avg_abs_diff_pct": v},
			Description: "Bank vs GST mismatch elevated. Any new lender/cash-recycling signal → reduce exposure immediately.",
		})
	}
	if cross != nil && cross.BankVsItrAvgDiffPct != nil && *cross.BankVsItrAvgDiffPct > 25 {
		v := *cross.BankVsItrAvgDiffPct
		severity := "High"
		if v > 40 {
			severity = "Critical"
		}
		triggers = append(triggers, Trigger{
			TriggerType: "BANK_ITR_MISMATCH",
			Severity:    severity,
			Condition:   map[string]any{"avg_abs_diff_pct": v},
			Description: "Bank vs ITR mismatch elevated. Treat ITR as weak evidence and rely on cash-control collections.",
		})
	}
	if cross != nil && cross.ItrVsGstAnnualDiffPct != nil && *cross.ItrVsGstAnnualDiffPct > 25 {
		v := *cross.ItrVsGstAnnualDiffPct
		severity := "High"
		if v > 40 {
			severity = "Critical"
		}
		var gstAnnual int64
		if cross.ItrVsGstAnnualEstimated != nil {
			gstAnnual = *cross.ItrVsGstAnnualEstimated
		}
		triggers = append(triggers, Trigger{
			TriggerType: "ITR_GST_MISMATCH",
			Severity:    severity,
			Condition:   map[string]any{"annual_abs_diff_pct": v, "gst_annual_estimated": gstAnnual},
			Description: "ITR vs GST mismatch elevated. Reported numbers are unreliable → tighten structure and demand reconciliation proof.",
		})
	}
	if cross != nil && len(cross.NilReturnMonthsWithBankCredits) > 0 {
		triggers = append(triggers, Trigger{
			TriggerType: "GST_NIL_WITH_BANK_CREDITS",
			Severity:    "Critical",
			Condition:   map[string]any{"months": cross.NilReturnMonthsWithBankCredits},
			Description: "NIL GST returns conflict with active bank credits. Demand breakup + compliance proof before any exposure enhancement.",
		})
	}
	if itr != nil && itr.LatestMarginPct < 3 {
		triggers = append(triggers, Trigger{
			TriggerType: "ITR_MARGIN_THIN",
			Severity:    "Medium",
			Condition:   map[string]any{"latest_margin_pct_lt": 3, "latest_margin_pct": itr.LatestMarginPct},
			Description: "Thin margin: small shocks can trigger missed collections. Keep exposure capped; collect weekly.",
		})
	}

	return triggers
}
