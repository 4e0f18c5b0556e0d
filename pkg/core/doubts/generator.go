package doubts

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"credit_autopilot/pkg/core/underwriting"
	"credit_autopilot/pkg/core/utils"
)

func pickRule(uw *underwriting.Result, ids ...string) *underwriting.RuleRun {
	for _, id := range ids {
		for i := range uw.RuleRunLog {
			if uw.RuleRunLog[i].ID == id {
				return &uw.RuleRunLog[i]
			}
		}
	}
	return nil
}

func ruleID(r *underwriting.RuleRun) string {
	if r == nil {
		return ""
	}
	return r.ID
}

func ruleEvidence(r *underwriting.RuleRun) any {
	if r == nil {
		return nil
	}
	return *r
}

func pctStr(v float64) string {
	return fmt.Sprintf("%g%%", math.Round(v*10)/10)
}

func capList(in []string, limit int) []string {
	if len(in) > limit {
		return in[:limit]
	}
	return in
}

// Generate walks the underwriting result and emits every doubt whose
// trigger condition holds. Output is sorted by severity descending, then
// code ascending, so identical inputs always produce the same list.
func Generate(uw *underwriting.Result, opts Options) []Doubt {
	if uw == nil {
		return nil
	}
	covered := make(map[string]bool, len(opts.CoveredCodes))
	for _, c := range opts.CoveredCodes {
		covered[c] = true
	}

	var out []Doubt
	add := func(d Doubt) {
		d.AnswerType = "text"
		d.CoveredByPd = covered[d.Code]
		out = append(out, d)
	}

	if len(uw.CreditHeatMap) > 0 && uw.CreditHeatMap[0].PctOfTotal >= 40 {
		top := uw.CreditHeatMap[0]
		r := pickRule(uw, "R010")
		severity := SeverityHighRisk
		if top.PctOfTotal >= 60 {
			severity = SeverityImmediateAction
		}
		add(Doubt{
			Code:     "D010_TOP1_CREDIT_CONCENTRATION",
			Severity: severity,
			Category: "Concentration",
			QuestionText: fmt.Sprintf("Top inflow source contributes ~%d%% of credits (%s). Explain the relationship and provide contract/order proof. What happens if this inflow stops for 30 days?",
				int(math.Round(top.PctOfTotal)), top.Counterparty),
			RequiredUploadHint: "Upload contract / work order / invoice proof",
			EvidenceJSON:       map[string]any{"top_counterparty": top.Counterparty, "top_credit_pct": top.PctOfTotal, "rule": ruleEvidence(r)},
			SourceRuleID:       ruleID(r),
		})
	}

	if gst := uw.Gst; gst != nil {
		if gst.FilingGapCount > 0 {
			r := pickRule(uw, "GST-01")
			missing := capList(gst.MissingMonths, 12)
			label := strings.Join(missing, ", ")
			if label == "" {
				label = "(unknown months)"
			}
			add(Doubt{
				Code:     "D200_GST_MISSED_FILINGS",
				Severity: SeverityHighRisk,
				Category: "GST",
				QuestionText: fmt.Sprintf("Missing GST filings detected for months: %s. Explain why these months were missed. Confirm current compliance status and share filing acknowledgements/challans.",
					label),
				RequiredUploadHint: "Upload GSTR-3B filing acknowledgements + tax payment challans",
				EvidenceJSON:       map[string]any{"missed_months_count": gst.FilingGapCount, "missing_months": gst.MissingMonths, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if gst.LateFilingCount >= 2 {
			r := pickRule(uw, "GST-02")
			late := strings.Join(capList(gst.LateMonths, 12), ", ")
			if late == "" {
				late = "unknown"
			}
			add(Doubt{
				Code:     "D201_GST_LATE_FILINGS",
				Severity: SeverityAlert,
				Category: "GST",
				QuestionText: fmt.Sprintf("Repeated late GST filings detected (late months: %s). Why repeated delays? Confirm how you will avoid delays going forward.",
					late),
				RequiredUploadHint: "Upload CA note / compliance plan (optional)",
				EvidenceJSON:       map[string]any{"late_months_count": gst.LateFilingCount, "late_months": gst.LateMonths, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if gst.VolatilityBucket == "High" {
			r := pickRule(uw, "GST-03")
			add(Doubt{
				Code:     "D202_GST_VOLATILITY_HIGH",
				Severity: SeverityHighRisk,
				Category: "GST",
				QuestionText: fmt.Sprintf("GST turnover volatility is HIGH (CV ~%g). Explain seasonality/contract cycles. Provide top customer list and expected inflow rhythm for the next 3 months.",
					utils.Round2(gst.VolatilityScore)),
				RequiredUploadHint: "Upload top customer list / contracts (optional)",
				EvidenceJSON:       map[string]any{"volatility_score": gst.VolatilityScore, "volatility_bucket": gst.VolatilityBucket, "seasonality_bucket": gst.SeasonalityBucket, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if len(gst.ConsecutiveDropMonths) >= 2 {
			r := pickRule(uw, "GST-04")
			add(Doubt{
				Code:     "D203_GST_CONSECUTIVE_DROP",
				Severity: SeverityImmediateAction,
				Category: "GST",
				QuestionText: fmt.Sprintf("Turnover dropped >30%% for consecutive months (%s). Explain root cause and recovery plan. Provide proof of current month stabilization (orders/invoices).",
					strings.Join(gst.ConsecutiveDropMonths, ", ")),
				RequiredUploadHint: "Upload latest orders / invoices / work orders (recommended)",
				EvidenceJSON:       map[string]any{"consecutive_drop_months": gst.ConsecutiveDropMonths, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
	}

	if cross := uw.CrossVerification; cross != nil {
		if cross.BankVsGstAvgDiffPct != nil && *cross.BankVsGstAvgDiffPct > 25 {
			diff := *cross.BankVsGstAvgDiffPct
			r := pickRule(uw, "GST-05")
			severity := SeverityHighRisk
			if diff > 35 {
				severity = SeverityImmediateAction
			}
			add(Doubt{
				Code:     "D021_BANK_VS_GST_MISMATCH",
				Severity: severity,
				Category: "Cross Verification",
				QuestionText: fmt.Sprintf("Bank credits diverge from GST turnover by ~%s. Break-up: cash sales? inter-account transfers? loan inflows? Provide supporting documents and explain the variance.",
					pctStr(diff)),
				RequiredUploadHint: "Upload sales register / cash sales proof / transfer mapping",
				EvidenceJSON:       map[string]any{"bank_vs_gst_avg_abs_diff_pct": diff, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if len(cross.NilReturnMonthsWithBankCredits) > 0 {
			r := pickRule(uw, "GST-06")
			add(Doubt{
				Code:     "D204_GST_NIL_WITH_BANK_CREDITS",
				Severity: SeverityImmediateAction,
				Category: "GST",
				QuestionText: fmt.Sprintf("NIL GST returns but active bank credits detected for months: %s. Explain nature of receipts (cash sales/transfers/loans/refunds) and confirm compliance position with proof.",
					strings.Join(cross.NilReturnMonthsWithBankCredits, ", ")),
				RequiredUploadHint: "Upload reconciliation + GST filing proof / CA note",
				EvidenceJSON:       map[string]any{"months": cross.NilReturnMonthsWithBankCredits, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if cross.BankVsItrAvgDiffPct != nil && *cross.BankVsItrAvgDiffPct > 25 {
			diff := *cross.BankVsItrAvgDiffPct
			r := pickRule(uw, "ITR-05")
			severity := SeverityHighRisk
			if diff > 40 {
				severity = SeverityImmediateAction
			}
			add(Doubt{
				Code:     "D022_BANK_VS_ITR_MISMATCH",
				Severity: severity,
				Category: "Cross Verification",
				QuestionText: fmt.Sprintf("Bank cash power diverges from ITR by ~%s. Explain declared turnover/profit vs actual bank movement. Provide computation summary and reconciliations.",
					pctStr(diff)),
				RequiredUploadHint: "Upload ITR computation + financials + reconciliation notes",
				EvidenceJSON:       map[string]any{"bank_vs_itr_avg_abs_diff_pct": diff, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if cross.ItrVsGstAnnualDiffPct != nil && *cross.ItrVsGstAnnualDiffPct > 25 {
			diff := *cross.ItrVsGstAnnualDiffPct
			r := pickRule(uw, "ITR-04")
			var gstAnnual int64
			if cross.ItrVsGstAnnualEstimated != nil {
				gstAnnual = *cross.ItrVsGstAnnualEstimated
			}
			add(Doubt{
				Code:     "D212_ITR_VS_GST_MISMATCH",
				Severity: SeverityImmediateAction,
				Category: "Cross Verification",
				QuestionText: fmt.Sprintf("ITR vs GST turnover mismatch is ~%s (annualized). Provide reconciliation and explanation. Upload supporting working/CA note.",
					pctStr(diff)),
				RequiredUploadHint: "Upload reconciliation + CA note",
				EvidenceJSON:       map[string]any{"itr_vs_gst_annual_abs_diff_pct": diff, "gst_annual_estimated": gstAnnual, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
	}

	if plc := uw.PrivateLenderCompetition; plc.EstimatedLenders >= 2 || plc.WeeklyCollectionsDetected || plc.RolloverRecyclingSignals >= 2 {
		r := pickRule(uw, "R040")
		severity := SeverityHighRisk
		if plc.EstimatedLenders >= 3 || plc.WeeklyCollectionsDetected {
			severity = SeverityImmediateAction
		}
		evidenceTxs := plc.Evidence
		if len(evidenceTxs) > 10 {
			evidenceTxs = evidenceTxs[:10]
		}
		add(Doubt{
			Code:               "D030_PRIVATE_LENDER_STACKING",
			Severity:           severity,
			Category:           "Competition",
			QuestionText:       "We detected private-lender competition/repayment signals. List ALL lenders, outstanding, weekly/monthly commitments and next due dates. Confirm if any rollovers/recycling are happening.",
			RequiredUploadHint: "Upload lender list / promissory notes / repayment schedule proof",
			EvidenceJSON: map[string]any{
				"estimated_lenders":           plc.EstimatedLenders,
				"approx_monthly_debt_load":    plc.ApproxMonthlyDebtLoad,
				"weekly_collections_detected": plc.WeeklyCollectionsDetected,
				"rollover_recycling_signals":  plc.RolloverRecyclingSignals,
				"evidence_txs":                evidenceTxs,
				"rule":                        ruleEvidence(r),
			},
			SourceRuleID: ruleID(r),
		})
	}

	if vel := uw.CashVelocityControl; vel.SameDaySpendRatio >= 0.85 {
		r := pickRule(uw, "R050")
		add(Doubt{
			Code:     "D040_SPIKE_THEN_DRAIN",
			Severity: SeverityHighRisk,
			Category: "Cash Control",
			QuestionText: fmt.Sprintf("Spike-then-drain behavior detected (same-day spend ~%s). Who controls outflows? Is this pass-through trading? Share top suppliers + payment terms and confirm margin buffer.",
				pctStr(vel.SameDaySpendRatio*100)),
			EvidenceJSON: map[string]any{
				"same_day_spend_ratio":      vel.SameDaySpendRatio,
				"idle_cash_retention_ratio": vel.IdleCashRetentionRatio,
				"borrower_type":             vel.BorrowerType,
				"rule":                      ruleEvidence(r),
			},
			SourceRuleID: ruleID(r),
		})
	}

	if r := pickRule(uw, "R030"); r != nil && !r.Passed {
		add(Doubt{
			Code:         "D050_PENALTY_BOUNCE_RETURN",
			Severity:     SeverityHighRisk,
			Category:     "Discipline",
			QuestionText: "Penalty/bounce/return indicators present. Explain root cause and corrective actions taken. Provide proof of settlement and updated discipline.",
			EvidenceJSON: map[string]any{"rule": ruleEvidence(r)},
			SourceRuleID: "R030",
		})
	}

	if r := pickRule(uw, "R060"); r != nil && !r.Passed {
		add(Doubt{
			Code:         "D060_FIXED_OBLIGATIONS_PRESSURE",
			Severity:     SeverityHighRisk,
			Category:     "Obligations",
			QuestionText: "Fixed debits appear high versus inflows. Which obligations are non-negotiable? Can any be deferred for the next 90 days to protect collections?",
			EvidenceJSON: map[string]any{"rule": ruleEvidence(r)},
			SourceRuleID: "R060",
		})
	}

	if r := pickRule(uw, "R020"); r != nil && !r.Passed {
		add(Doubt{
			Code:         "D061_LIQUIDITY_STRESS",
			Severity:     SeverityImmediateAction,
			Category:     "Liquidity",
			QuestionText: "Account hits near-zero too often. Explain cash buffer plan and what will ensure weekly/monthly collections do not miss. Confirm emergency funding options and backup inflow sources.",
			EvidenceJSON: map[string]any{"rule": ruleEvidence(r)},
			SourceRuleID: "R020",
		})
	}

	if itr := uw.Itr; itr != nil {
		if itr.LatestMarginPct < 3 {
			r := pickRule(uw, "ITR-01")
			add(Doubt{
				Code:     "D070_ITR_MARGIN_THIN",
				Severity: SeverityAlert,
				Category: "ITR",
				QuestionText: fmt.Sprintf("Declared margin is thin (latest ~%s). Explain how you will absorb collection pressure without disrupting business. Provide gross margin and supplier credit terms.",
					pctStr(itr.LatestMarginPct)),
				EvidenceJSON: map[string]any{
					"itr_latest_turnover":   itr.LatestTurnover,
					"itr_latest_profit":     itr.LatestProfit,
					"itr_latest_margin_pct": itr.LatestMarginPct,
					"rule":                  ruleEvidence(r),
				},
				SourceRuleID: ruleID(r),
			})
		}
		if itr.LatestProfit < 0 {
			r := pickRule(uw, "ITR-02")
			add(Doubt{
				Code:               "D210_ITR_LOSS_BUSINESS",
				Severity:           SeverityHighRisk,
				Category:           "ITR",
				QuestionText:       "Declared loss in ITR. Explain how repayments will be serviced. Provide current month proof of profitability and cash buffer plan.",
				RequiredUploadHint: "Upload latest management accounts / invoices / bank proof",
				EvidenceJSON:       map[string]any{"itr_latest_turnover": itr.LatestTurnover, "itr_latest_profit": itr.LatestProfit, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if itr.YoyTurnoverPct != nil && *itr.YoyTurnoverPct <= -30 {
			r := pickRule(uw, "ITR-03")
			add(Doubt{
				Code:     "D211_ITR_INCOME_DECLINE",
				Severity: SeverityHighRisk,
				Category: "ITR",
				QuestionText: fmt.Sprintf("YoY turnover declined >30%% (%g%%). Explain decline and current stabilization plan. Provide proof of current month recovery.",
					utils.Round1(*itr.YoyTurnoverPct)),
				RequiredUploadHint: "Upload current month invoices/orders (recommended)",
				EvidenceJSON:       map[string]any{"yoy_turnover_pct": *itr.YoyTurnoverPct, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
		if itr.LatestProfit > 0 && itr.LatestTaxPaid == 0 {
			r := pickRule(uw, "ITR-06")
			add(Doubt{
				Code:               "D213_ITR_TAX_ANOMALY",
				Severity:           SeverityHighRisk,
				Category:           "ITR",
				QuestionText:       "Profit exists but tax paid = 0 (as per provided ITR inputs). Explain reason and provide computation/proof.",
				RequiredUploadHint: "Upload ITR computation / CA note",
				EvidenceJSON:       map[string]any{"itr_latest_profit": itr.LatestProfit, "itr_latest_tax_paid": itr.LatestTaxPaid, "rule": ruleEvidence(r)},
				SourceRuleID:       ruleID(r),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return out[i].Code < out[j].Code
	})
	return out
}
