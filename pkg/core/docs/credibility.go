package docs

import (
	"math"

	"credit_autopilot/pkg/core/utils"
)

// ComputeCredibilityScore blends the GST, ITR, and cross-verification
// findings into a 0-100 filing-credibility score. Each leg starts at 100
// and sheds penalty points for its own defects; the blend weights the two
// document legs at 0.4 each and the mismatch leg at 0.2.
func ComputeCredibilityScore(gst *GstUnderwriting, itr *ItrUnderwriting, cross *CrossVerification) *Credibility {
	if gst == nil && itr == nil && cross == nil {
		return nil
	}

	gstPenalty := 0.0
	var reasons []string
	if gst != nil {
		if gst.FilingGapCount > 0 {
			gstPenalty += math.Min(40, float64(gst.FilingGapCount)*10)
			reasons = append(reasons, "GST missed filings")
		}
		if gst.LateFilingCount >= 2 {
			gstPenalty += math.Min(20, float64(gst.LateFilingCount)*5)
			reasons = append(reasons, "Repeated GST late filings")
		}
		if gst.VolatilityBucket == "High" {
			gstPenalty += 15
			reasons = append(reasons, "High GST volatility")
		}
		if len(gst.ConsecutiveDropMonths) >= 2 {
			gstPenalty += 20
			reasons = append(reasons, "GST consecutive turnover drop")
		}
	}

	itrPenalty := 0.0
	if itr != nil {
		if itr.LatestMarginPct < 3 {
			if itr.LatestMarginPct < 1 {
				itrPenalty += 20
			} else {
				itrPenalty += 10
			}
			reasons = append(reasons, "Low ITR margin")
		}
		if itr.LatestProfit < 0 {
			itrPenalty += 25
			reasons = append(reasons, "ITR loss")
		}
		if itr.YoyTurnoverPct != nil && *itr.YoyTurnoverPct <= -30 {
			itrPenalty += 15
			reasons = append(reasons, "Severe YoY turnover decline")
		}
		if itr.LatestProfit > 0 && itr.LatestTaxPaid == 0 {
			itrPenalty += 10
			reasons = append(reasons, "Tax anomaly")
		}
	}

	mismatchPenalty := 0.0
	if cross != nil {
		if cross.BankVsGstAvgDiffPct != nil {
			v := *cross.BankVsGstAvgDiffPct
			if v > 10 {
				mismatchPenalty += 10
				reasons = append(reasons, "GST vs Bank mismatch")
			}
			if v > 25 {
				mismatchPenalty += 15
			}
			if v > 40 {
				mismatchPenalty += 15
			}
		}
		if cross.BankVsItrAvgDiffPct != nil {
			v := *cross.BankVsItrAvgDiffPct
			if v > 25 {
				mismatchPenalty += 10
				reasons = append(reasons, "ITR vs Bank mismatch")
			}
			if v > 40 {
				mismatchPenalty += 10
			}
		}
		if cross.ItrVsGstAnnualDiffPct != nil {
			v := *cross.ItrVsGstAnnualDiffPct
			if v > 25 {
				mismatchPenalty += 10
				reasons = append(reasons, "ITR vs GST mismatch")
			}
			if v > 40 {
				mismatchPenalty += 10
			}
		}
		if len(cross.NilReturnMonthsWithBankCredits) > 0 {
			mismatchPenalty += 25
			reasons = append(reasons, "NIL GST with bank credits")
		}
	}
	mismatchPenalty = utils.Clamp(mismatchPenalty, 0, 100)

	gstScore := int(utils.Clamp(100-gstPenalty, 0, 100))
	itrScore := int(utils.Clamp(100-itrPenalty, 0, 100))
	overall := int(utils.ClampInt(int64(math.Round(float64(gstScore)*0.4+float64(itrScore)*0.4+(100-mismatchPenalty)*0.2)), 0, 100))

	band := "Weak"
	switch {
	case overall >= 75:
		band = "Strong"
	case overall >= 55:
		band = "Moderate"
	}

	return &Credibility{
		Score:           overall,
		Band:            band,
		GstScore:        gstScore,
		ItrScore:        itrScore,
		MismatchPenalty: int(mismatchPenalty),
		Reasons:         dedupeCap(reasons, 5),
	}
}

func dedupeCap(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
