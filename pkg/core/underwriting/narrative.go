package underwriting

import (
	"fmt"
	"math"
	"strings"

	"credit_autopilot/pkg/core/docs"
	"credit_autopilot/pkg/core/statement"
	"credit_autopilot/pkg/core/utils"
)

// narrativeFacts are the figures the summaries are rendered from,
// computed once so every summary quotes the same numbers.
type narrativeFacts struct {
	topSource      string
	topPct         float64
	stressDays     int
	riskFit        string
	concentrated   bool
	stackedLenders bool
	thinLiquidity  bool
}

func computeNarrativeFacts(score int, creditHeat []statement.HeatRow,
	lenders PrivateLenderCompetition, lowBalanceDays int) narrativeFacts {
	f := narrativeFacts{topSource: "primary inflow"}
	if len(creditHeat) > 0 {
		f.topSource = creditHeat[0].Counterparty
		f.topPct = creditHeat[0].PctOfTotal
	}
	switch {
	case score >= 70:
		f.riskFit = "Accept"
	case score >= 50:
		f.riskFit = "AcceptWithControl"
	default:
		f.riskFit = "Avoid"
	}
	switch {
	case f.topPct >= 60:
		f.stressDays = 7
	case f.topPct >= 40:
		f.stressDays = 10
	default:
		f.stressDays = 14
	}
	f.concentrated = f.topPct >= 40
	f.stackedLenders = lenders.EstimatedLenders >= 3
	f.thinLiquidity = lowBalanceDays > 0
	return f
}

func renderRecoveryLeverage(f narrativeFacts) string {
	var b strings.Builder
	if f.concentrated {
		fmt.Fprintf(&b, "Recovery leverage weak: inflow concentrated in %s (%d%% of credits).",
			f.topSource, int(math.Round(f.topPct)))
	} else {
		b.WriteString("Recovery leverage moderate: no single inflow dominates.")
	}
	if f.stackedLenders {
		b.WriteString(" Competition high: stacked with private lenders → recovery contest likely.")
	}
	if f.thinLiquidity {
		b.WriteString(" Liquidity buffer thin → faster default if inflow pauses.")
	}
	return b.String()
}

func renderStreetSummary(f narrativeFacts, rec Recommendation) string {
	return fmt.Sprintf("Borrower survives on %s inflow (~%d%% of credits). If disrupted, stress appears within ~%d days. %s collections must align on %s. Exposure beyond ₹%s materially increases recovery risk.",
		f.topSource, int(math.Round(f.topPct)), f.stressDays,
		rec.CollectionFrequency, rec.Structure.BestCollectionWeekday,
		utils.FormatINR(rec.RecommendedExposure))
}

func renderAggressiveSummary(f narrativeFacts, grade string, score int, rec Recommendation,
	s snapshot, lenders PrivateLenderCompetition, cross *docs.CrossVerification,
	credibility *docs.Credibility) string {

	fit := f.riskFit
	if fit == "AcceptWithControl" {
		fit = "Accept with Control"
	}
	lines := []string{
		fmt.Sprintf("AGGRESSIVE VERDICT: %s | Grade %s | Score %d", fit, grade, score),
		fmt.Sprintf("Recommended Exposure: ₹%s | Pricing: %g%% APR | Collections: %s ₹%s",
			utils.FormatINR(rec.RecommendedExposure), rec.PricingApr,
			rec.CollectionFrequency, utils.FormatINR(rec.CollectionAmount)),
	}

	cash := fmt.Sprintf("Cash power: avg monthly credits ₹%s. Top inflow source: %s (%d%%).",
		utils.FormatINR(int64(math.Round(s.avgMonthlyCredits))), f.topSource, int(math.Round(f.topPct)))
	if lenders.EstimatedLenders > 0 {
		cash += fmt.Sprintf(" Private lenders estimated: %d.", lenders.EstimatedLenders)
	}
	cash += fmt.Sprintf(" Upfront interest deduction: %d%% (₹%s).",
		int(math.Round(rec.UpfrontDeductionPct*100)), utils.FormatINR(rec.UpfrontDeductionAmt))
	lines = append(lines, cash)

	if cross != nil && len(cross.MismatchFlags) > 0 {
		var b strings.Builder
		b.WriteString("Cross-check: ")
		if cross.BankVsGstAvgDiffPct != nil {
			fmt.Fprintf(&b, "Bank↔GST avg diff %s; ", utils.Pct1(*cross.BankVsGstAvgDiffPct/100))
		}
		if cross.BankVsItrAvgDiffPct != nil {
			fmt.Fprintf(&b, "Bank↔ITR avg diff %s; ", utils.Pct1(*cross.BankVsItrAvgDiffPct/100))
		}
		fmt.Fprintf(&b, "Flags: %s.", strings.Join(cross.MismatchFlags, ", "))
		lines = append(lines, b.String())
	}
	if credibility != nil {
		line := fmt.Sprintf("Credibility: %d/100 (%s).", credibility.Score, credibility.Band)
		if len(credibility.Reasons) > 0 {
			line += fmt.Sprintf(" Reasons: %s.", strings.Join(credibility.Reasons, ", "))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
