package underwriting

import (
	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/docs"
)

// Fixed rule catalog thresholds. These define the catalog itself and do
// not move with deployment config.
const (
	minStatementDays       = 90
	top1CreditPctMax       = 40.0
	top3CreditPctMax       = 70.0
	lowBalanceRatioMax     = 0.2
	penaltyCountMax        = 2
	bounceCountMax         = 1
	estimatedLendersMax    = 2
	fixedObligationPctMax  = 0.55
	docMismatchPctMax      = 25.0
	itrMarginPctMin        = 3.0
	itrYoyTurnoverPctFloor = -30.0
)

func rule(id, name, category, severity string, passed bool, deltaFail int,
	thresholds, evidence map[string]any, reasonFail, reasonPass string) RuleRun {
	delta := 0
	reason := reasonPass
	if !passed {
		delta = deltaFail
		reason = reasonFail
	}
	if thresholds == nil {
		thresholds = map[string]any{}
	}
	if evidence == nil {
		evidence = map[string]any{}
	}
	return RuleRun{
		ID:         id,
		Name:       name,
		Category:   category,
		Severity:   severity,
		Passed:     passed,
		ScoreDelta: delta,
		Thresholds: thresholds,
		Evidence:   evidence,
		Reason:     reason,
	}
}

// EvidenceKeys lists, per rule id, exactly the evidence keys that rule
// emits. Kept next to the catalog so tests can verify the audit payload
// never drifts.
var EvidenceKeys = map[string][]string{
	"R001":   {"statement_days"},
	"R010":   {"top1_credit_pct"},
	"R011":   {"top3_credit_pct"},
	"R020":   {"low_balance_days", "ratio", "statement_days"},
	"R030":   {"bounce_returns", "penalty_charges"},
	"R040":   {"estimated_lenders", "weekly_collections_detected"},
	"R050":   {"same_day_spend_ratio"},
	"R060":   {"avg_monthly_credits", "fixed_obligation_estimate_monthly", "ratio"},
	"GST-01": {"missed_months_count", "missing_months"},
	"GST-02": {"late_months", "late_months_count"},
	"GST-03": {"seasonality_bucket", "volatility_bucket", "volatility_score"},
	"GST-04": {"consecutive_drop_months"},
	"GST-05": {"bank_vs_gst_avg_abs_diff_pct"},
	"GST-06": {"months"},
	"ITR-01": {"latest_margin_pct", "latest_profit", "latest_turnover"},
	"ITR-02": {"latest_profit", "latest_turnover"},
	"ITR-03": {"yoy_turnover_pct"},
	"ITR-04": {"gst_annual_estimated", "itr_vs_gst_annual_abs_diff_pct"},
	"ITR-05": {"bank_vs_itr_avg_abs_diff_pct"},
	"ITR-06": {"latest_profit", "latest_tax_paid"},
}

// runRules executes the fixed catalog against the snapshot, detectors,
// and document blocks. Bank rules always run; document rules run only
// when their input block exists. The order of the returned log is the
// catalog order.
func runRules(s snapshot, top1Pct, top3Pct float64, lenders PrivateLenderCompetition,
	velocity CashVelocityControl, gst *docs.GstUnderwriting, itr *docs.ItrUnderwriting,
	cross *docs.CrossVerification, cfg *config.Thresholds) []RuleRun {

	obligationRatio := 0.0
	if s.avgMonthlyCredits > 0 {
		obligationRatio = s.fixedObligationMonthly / s.avgMonthlyCredits
	}

	log := []RuleRun{
		rule("R001", "Statement period length", "Snapshot", "Medium",
			s.statementDays >= minStatementDays, -10,
			map[string]any{"min_days": minStatementDays},
			map[string]any{"statement_days": s.statementDays},
			"Short statement window reduces confidence. Demand tighter structure / staged disbursal.",
			"Sufficient statement window for stability checks."),
		rule("R010", "Credit concentration (Top 1 source)", "Concentration", "High",
			top1Pct < top1CreditPctMax, -18,
			map[string]any{"top1_credit_pct_max": top1CreditPctMax},
			map[string]any{"top1_credit_pct": top1Pct},
			"Borrower survival depends on 1 inflow. Control collections + cap exposure.",
			"No single inflow dominates the account."),
		rule("R011", "Credit concentration (Top 3 sources)", "Concentration", "Medium",
			top3Pct < top3CreditPctMax, -10,
			map[string]any{"top3_credit_pct_max": top3CreditPctMax},
			map[string]any{"top3_credit_pct": top3Pct},
			"Inflow is concentrated. Stress appears quickly if 1-2 sources pause.",
			"Inflow sources are reasonably distributed."),
		rule("R020", "Liquidity stress (low-balance days)", "Liquidity", "High",
			s.lowBalanceRatio < lowBalanceRatioMax, -18,
			map[string]any{"low_balance_days_ratio_max": lowBalanceRatioMax},
			map[string]any{"low_balance_days": s.lowBalanceDays, "statement_days": s.statementDays, "ratio": s.lowBalanceRatio},
			"Account frequently hits near-zero. Weekly collections + high upfront deduction required.",
			"Liquidity buffer exists most days."),
		rule("R030", "Banking discipline (penalties/bounces)", "Discipline", "Medium",
			s.penaltyChargeCount <= penaltyCountMax && s.bounceReturnCount <= bounceCountMax, -12,
			map[string]any{"penalty_max": penaltyCountMax, "bounce_max": bounceCountMax},
			map[string]any{"penalty_charges": s.penaltyChargeCount, "bounce_returns": s.bounceReturnCount},
			"Discipline issues indicate payment instability. Price up + shorten tenure.",
			"No major penalty/bounce signal."),
		rule("R040", "Private lender competition", "Competition", "High",
			lenders.EstimatedLenders <= estimatedLendersMax && !lenders.WeeklyCollectionsDetected, -22,
			map[string]any{"estimated_lenders_max": estimatedLendersMax, "weekly_collections_allowed": false},
			map[string]any{"estimated_lenders": lenders.EstimatedLenders, "weekly_collections_detected": lenders.WeeklyCollectionsDetected},
			"Borrower is likely already stacked with private lenders. Reduce exposure + enforce weekly control.",
			"No strong stacking/weekly-collection signal."),
		rule("R050", "Cash velocity (same-day spend)", "Velocity", "Medium",
			velocity.SameDaySpendRatio < cfg.SameDayPassThroughRatio, -10,
			map[string]any{"same_day_spend_ratio_max": cfg.SameDayPassThroughRatio},
			map[string]any{"same_day_spend_ratio": velocity.SameDaySpendRatio},
			"Pass-through behavior: inflows get drained fast. Collections must hit the inflow window.",
			"Cash retention is acceptable."),
		rule("R060", "Fixed obligations pressure", "Obligations", "Medium",
			s.fixedObligationMonthly <= s.avgMonthlyCredits*fixedObligationPctMax, -12,
			map[string]any{"fixed_obligation_pct_max": fixedObligationPctMax},
			map[string]any{
				"fixed_obligation_estimate_monthly": s.fixedObligationMonthly,
				"avg_monthly_credits":               s.avgMonthlyCredits,
				"ratio":                             obligationRatio,
			},
			"High fixed outflows reduce survivability. Keep tenure short + collect weekly.",
			"Obligation load appears manageable."),
	}

	if gst != nil {
		log = append(log,
			rule("GST-01", "Missed GST filings (gaps)", "Discipline", "High",
				gst.FilingGapCount == 0, -18,
				map[string]any{"missed_months_max": 0},
				map[string]any{"missed_months_count": gst.FilingGapCount, "missing_months": gst.MissingMonths},
				"Missed GST filings weaken enforceability and signal compliance risk. Structure tighter and demand proof before exposure.",
				"No obvious missed GST filing gaps in the provided months range."),
			rule("GST-02", "Repeated late GST filings", "Discipline", "Medium",
				gst.LateFilingCount <= 1, -10,
				map[string]any{"late_months_max": 1},
				map[string]any{"late_months_count": gst.LateFilingCount, "late_months": gst.LateMonths},
				"Repeated late filing indicates weak compliance discipline. Increase control (weekly collections) and reduce discretionary exposure.",
				"Late filing count is within tolerance."),
			rule("GST-03", "GST turnover volatility (high)", "Snapshot", "High",
				gst.VolatilityBucket != "High", -12,
				map[string]any{"volatility_bucket_max": "Medium"},
				map[string]any{"volatility_score": gst.VolatilityScore, "volatility_bucket": gst.VolatilityBucket, "seasonality_bucket": gst.SeasonalityBucket},
				"High turnover volatility increases collection miss probability. Prefer weekly collections and staged disbursement.",
				"GST turnover volatility is not flagged as high."),
			rule("GST-04", "Consecutive turnover drop (>30%)", "Snapshot", "Critical",
				len(gst.ConsecutiveDropMonths) < 2, -22,
				map[string]any{"drop_pct_min": 30, "consecutive_months_min": 2},
				map[string]any{"consecutive_drop_months": gst.ConsecutiveDropMonths},
				"Consecutive sharp turnover drop indicates active stress. Treat as immediate action: cut exposure, shorten tenure, and demand proof of recovery.",
				"No consecutive sharp turnover drop detected."),
		)
	}

	if cross != nil && cross.BankVsGstAvgDiffPct != nil {
		v := *cross.BankVsGstAvgDiffPct
		log = append(log,
			rule("GST-05", "GST vs Bank mismatch", "Discipline", "Critical",
				v <= docMismatchPctMax, -18,
				map[string]any{"avg_abs_diff_pct_max": docMismatchPctMax},
				map[string]any{"bank_vs_gst_avg_abs_diff_pct": v},
				"GST vs Bank mismatch is materially high. Treat as control risk (unreported/cash/recycling). Reduce exposure + increase upfront deduction.",
				"GST vs Bank mismatch is within tolerance."))
	}

	if cross != nil && len(cross.NilReturnMonthsWithBankCredits) > 0 {
		log = append(log,
			rule("GST-06", "NIL GST return with active bank credits", "Discipline", "Critical",
				false, -25,
				map[string]any{"nil_return_months_with_bank_credits_max": 0},
				map[string]any{"months": cross.NilReturnMonthsWithBankCredits},
				"NIL GST returns conflict with active bank credits. This is a hard control red flag. Demand full breakup + compliance proof before any exposure.",
				"N/A"))
	}

	if itr != nil {
		log = append(log,
			rule("ITR-01", "ITR margin low", "Snapshot", "Medium",
				itr.LatestMarginPct >= itrMarginPctMin, -10,
				map[string]any{"margin_pct_min": itrMarginPctMin},
				map[string]any{"latest_margin_pct": itr.LatestMarginPct, "latest_turnover": itr.LatestTurnover, "latest_profit": itr.LatestProfit},
				"Declared margin is low. Any disruption will hit collections quickly. Prefer weekly collections and cap exposure.",
				"Margin is not critically low."),
			rule("ITR-02", "ITR loss business", "Snapshot", "High",
				itr.LatestProfit >= 0, -20,
				map[string]any{"latest_profit_min": 0},
				map[string]any{"latest_profit": itr.LatestProfit, "latest_turnover": itr.LatestTurnover},
				"Declared loss in ITR. Collections must be control-first (tight tenure, high upfront, staged).",
				"No loss declared in latest ITR input."),
		)
		if itr.YoyTurnoverPct != nil {
			log = append(log,
				rule("ITR-03", "YoY turnover decline >30%", "Snapshot", "High",
					*itr.YoyTurnoverPct > itrYoyTurnoverPctFloor, -16,
					map[string]any{"yoy_turnover_pct_min": itrYoyTurnoverPctFloor},
					map[string]any{"yoy_turnover_pct": *itr.YoyTurnoverPct},
					"YoY turnover decline is severe. Treat as stress; reduce exposure and shorten tenure aggressively.",
					"YoY turnover decline not flagged as severe."))
		}
		if itr.LatestProfit > 0 && itr.LatestTaxPaid == 0 {
			log = append(log,
				rule("ITR-06", "Tax anomaly (profit but tax paid = 0)", "Discipline", "High",
					false, -12,
					map[string]any{"tax_paid_min_if_profit": 1},
					map[string]any{"latest_profit": itr.LatestProfit, "latest_tax_paid": itr.LatestTaxPaid},
					"Profit declared but tax paid is zero. Treat declared statements as weak evidence; demand computation and proof.",
					"N/A"))
		}
	}

	if cross != nil && cross.ItrVsGstAnnualDiffPct != nil {
		v := *cross.ItrVsGstAnnualDiffPct
		var gstAnnual int64
		if cross.ItrVsGstAnnualEstimated != nil {
			gstAnnual = *cross.ItrVsGstAnnualEstimated
		}
		log = append(log,
			rule("ITR-04", "ITR vs GST mismatch (annualized)", "Discipline", "Critical",
				v <= docMismatchPctMax, -18,
				map[string]any{"annual_abs_diff_pct_max": docMismatchPctMax},
				map[string]any{"itr_vs_gst_annual_abs_diff_pct": v, "gst_annual_estimated": gstAnnual},
				"ITR vs GST mismatch is high. Treat reported numbers as unreliable; restructure with tighter control and documentary proof.",
				"ITR vs GST mismatch is within tolerance."))
	}

	if cross != nil && cross.BankVsItrAvgDiffPct != nil {
		v := *cross.BankVsItrAvgDiffPct
		log = append(log,
			rule("ITR-05", "ITR vs Bank mismatch", "Discipline", "High",
				v <= docMismatchPctMax, -12,
				map[string]any{"avg_abs_diff_pct_max": docMismatchPctMax},
				map[string]any{"bank_vs_itr_avg_abs_diff_pct": v},
				"ITR does not match bank cash power. Treat declared financials as unreliable. Tighten tenure + collections.",
				"ITR vs Bank mismatch is within tolerance."))
	}

	return log
}
