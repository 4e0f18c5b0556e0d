package underwriting

import (
	"time"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/docs"
	"credit_autopilot/pkg/core/statement"
	"credit_autopilot/pkg/core/utils"
)

// Run underwrites a transaction list end to end. Meta is optional bank
// identification carried through to the result. The function is pure:
// same inputs, byte-identical output.
func Run(txns []statement.Transaction, params Params, d Docs, meta statement.Meta, cfg *config.Thresholds) (*Result, error) {
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}
	if cfg == nil {
		cfg = config.Default()
	}

	rows := normalizeRows(txns, cfg)
	if len(rows) == 0 {
		return nil, ErrNoUsableTransactions
	}
	s := buildSnapshot(rows, cfg)

	usable := usableTransactions(txns, cfg)
	creditHeat := statement.BuildHeatMap(usable, statement.TxnCredit)
	debitHeat := statement.BuildHeatMap(usable, statement.TxnDebit)
	var top1Pct, top3Pct float64
	if len(creditHeat) > 0 {
		top1Pct = creditHeat[0].PctOfTotal
	}
	for i := 0; i < len(creditHeat) && i < 3; i++ {
		top3Pct += creditHeat[i].PctOfTotal
	}

	lenders := detectPrivateLenders(rows, s.statementDays, cfg)
	velocity := detectCashVelocity(rows, s, cfg)

	var gst *docs.GstUnderwriting
	if len(d.GstMonths) > 0 {
		gst = docs.ComputeGstUnderwriting(d.GstMonths, cfg)
	}
	var itr *docs.ItrUnderwriting
	if len(d.ItrYears) > 0 {
		itr = docs.ComputeItrUnderwriting(d.ItrYears)
	}
	cross := docs.ComputeCrossVerification(bankFigures(rows, s), gst, itr, cfg)
	credibility := docs.ComputeCredibilityScore(gst, itr, cross)

	ruleLog := runRules(s, top1Pct, top3Pct, lenders, velocity, gst, itr, cross, cfg)
	deltaSum := 0
	for _, r := range ruleLog {
		deltaSum += r.ScoreDelta
	}
	score := int(utils.ClampInt(int64(100+deltaSum), 0, 100))
	grade := riskGrade(score)
	apr := pricingApr(grade, s, lenders, velocity, cfg)
	rec := buildRecommendation(score, grade, apr, params, s, lenders, velocity, cfg)
	triggers := buildTriggers(s, lenders, velocity, gst, itr, cross, cfg)

	facts := computeNarrativeFacts(score, creditHeat, lenders, s.lowBalanceDays)
	verdict := Verdict{
		RiskFit:                 facts.riskFit,
		RiskGrade:               grade,
		Score:                   score,
		StreetSummary:           renderStreetSummary(facts, rec),
		RecoveryLeverageSummary: renderRecoveryLeverage(facts),
	}

	return &Result{
		PeriodStart:              s.periodStart,
		PeriodEnd:                s.periodEnd,
		StatementDays:            s.statementDays,
		BankName:                 meta.BankName,
		AccountType:              meta.AccountType,
		Metrics:                  buildMetrics(s, gst, itr, cross, credibility),
		CreditHeatMap:            creditHeat,
		DebitHeatMap:             debitHeat,
		Gst:                      gst,
		Itr:                      itr,
		CrossVerification:        cross,
		Credibility:              credibility,
		PrivateLenderCompetition: lenders,
		CashVelocityControl:      velocity,
		Triggers:                 triggers,
		Recommendation:           rec,
		Verdict:                  verdict,
		RuleRunLog:               ruleLog,
		AggressiveSummary:        renderAggressiveSummary(facts, grade, score, rec, s, lenders, cross, credibility),
	}, nil
}

// usableTransactions keeps rows with a parseable date and a resolved
// counterparty so the heat maps line up with the snapshot rows.
func usableTransactions(txns []statement.Transaction, cfg *config.Thresholds) []statement.Transaction {
	out := make([]statement.Transaction, 0, len(txns))
	for _, t := range txns {
		if _, err := time.Parse("2006-01-02", t.Date); err != nil {
			continue
		}
		if t.Counterparty == "" {
			t.Counterparty = statement.ExtractCounterparty(t.Narration, cfg.CounterpartyMaxLen)
		}
		out = append(out, t)
	}
	return out
}

func bankFigures(rows []row, s snapshot) docs.BankFigures {
	monthly := make(map[string]int64)
	for _, r := range rows {
		if r.credit > 0 && len(r.dateIso) >= 7 {
			monthly[r.dateIso[:7]] += r.credit
		}
	}
	return docs.BankFigures{MonthlyCredits: monthly, AvgMonthlyCredits: s.avgMonthlyCredits}
}

func buildMetrics(s snapshot, gst *docs.GstUnderwriting, itr *docs.ItrUnderwriting,
	cross *docs.CrossVerification, credibility *docs.Credibility) []Metric {

	metrics := []Metric{
		{Key: "total_credits", Value: float64(s.totalCredits), Unit: "INR"},
		{Key: "total_debits", Value: float64(s.totalDebits), Unit: "INR"},
		{Key: "avg_monthly_credits", Value: s.avgMonthlyCredits, Unit: "INR"},
		{Key: "avg_monthly_debits", Value: s.avgMonthlyDebits, Unit: "INR"},
		{Key: "avg_weekly_credits", Value: s.avgWeeklyCredits, Unit: "INR"},
		{Key: "avg_usable_balance", Value: s.avgUsableBalance, Unit: "INR"},
		{Key: "min_balance", Value: float64(s.minBalance), Unit: "INR"},
		{Key: "low_balance_days", Value: float64(s.lowBalanceDays), Unit: "DAYS"},
		{Key: "credit_volatility_score", Value: s.creditCV, Unit: "", Meta: map[string]string{"bucket": s.creditVolatility}},
		{Key: "penalty_charge_count", Value: float64(s.penaltyChargeCount), Unit: "COUNT"},
		{Key: "bounce_return_count", Value: float64(s.bounceReturnCount), Unit: "COUNT"},
		{Key: "fixed_obligation_estimate_monthly", Value: s.fixedObligationMonthly, Unit: "INR"},
	}

	if gst != nil {
		var gstTaxPaidTotal int64
		for _, m := range gst.Months {
			if m.TaxPaid > 0 {
				gstTaxPaidTotal += m.TaxPaid
			}
		}
		metrics = append(metrics,
			Metric{Key: "gst_avg_monthly_turnover", Value: float64(gst.AvgMonthlyTurnover), Unit: "INR"},
			Metric{Key: "gst_volatility_score", Value: gst.VolatilityScore, Unit: "", Meta: map[string]string{"bucket": gst.VolatilityBucket, "seasonality": gst.SeasonalityBucket}},
			Metric{Key: "gst_filing_gap_count", Value: float64(gst.FilingGapCount), Unit: "COUNT"},
			Metric{Key: "gst_missing_months_count", Value: float64(len(gst.MissingMonths)), Unit: "COUNT"},
			Metric{Key: "gst_late_filing_count", Value: float64(gst.LateFilingCount), Unit: "COUNT"},
			Metric{Key: "gst_consecutive_drop_months_count", Value: float64(len(gst.ConsecutiveDropMonths)), Unit: "COUNT"},
			Metric{Key: "gst_tax_paid_total", Value: float64(gstTaxPaidTotal), Unit: "INR"},
		)
	}

	if itr != nil {
		metrics = append(metrics,
			Metric{Key: "itr_latest_turnover", Value: float64(itr.LatestTurnover), Unit: "INR"},
			Metric{Key: "itr_latest_profit", Value: float64(itr.LatestProfit), Unit: "INR"},
			Metric{Key: "itr_latest_margin_pct", Value: itr.LatestMarginPct, Unit: "PCT"},
			Metric{Key: "itr_latest_tax_paid", Value: float64(itr.LatestTaxPaid), Unit: "INR"},
		)
		if itr.YoyTurnoverPct != nil {
			metrics = append(metrics, Metric{Key: "itr_yoy_turnover_pct", Value: *itr.YoyTurnoverPct, Unit: "PCT"})
		}
		if itr.YoyProfitPct != nil {
			metrics = append(metrics, Metric{Key: "itr_yoy_profit_pct", Value: *itr.YoyProfitPct, Unit: "PCT"})
		}
	}

	if cross != nil {
		if cross.BankVsGstAvgDiffPct != nil {
			metrics = append(metrics, Metric{Key: "bank_vs_gst_avg_diff_pct", Value: *cross.BankVsGstAvgDiffPct, Unit: "PCT"})
		}
		if cross.BankVsItrAvgDiffPct != nil {
			metrics = append(metrics, Metric{Key: "bank_vs_itr_avg_diff_pct", Value: *cross.BankVsItrAvgDiffPct, Unit: "PCT"})
		}
		if cross.ItrVsGstAnnualDiffPct != nil {
			metrics = append(metrics, Metric{Key: "itr_vs_gst_annual_diff_pct", Value: *cross.ItrVsGstAnnualDiffPct, Unit: "PCT"})
		}
		if cross.ItrVsGstAnnualEstimated != nil {
			metrics = append(metrics, Metric{Key: "gst_annual_estimated_from_months", Value: float64(*cross.ItrVsGstAnnualEstimated), Unit: "INR"})
		}
		metrics = append(metrics, Metric{Key: "gst_nil_months_with_bank_credits_count", Value: float64(len(cross.NilReturnMonthsWithBankCredits)), Unit: "COUNT"})
	}

	if credibility != nil {
		metrics = append(metrics,
			Metric{Key: "credibility_score", Value: float64(credibility.Score), Unit: "SCORE", Meta: map[string]string{"band": credibility.Band}},
			Metric{Key: "credibility_gst_score", Value: float64(credibility.GstScore), Unit: "SCORE"},
			Metric{Key: "credibility_itr_score", Value: float64(credibility.ItrScore), Unit: "SCORE"},
			Metric{Key: "credibility_mismatch_penalty", Value: float64(credibility.MismatchPenalty), Unit: "SCORE"},
		)
	}

	return metrics
}
