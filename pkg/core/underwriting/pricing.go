package underwriting

import (
	"math"
	"strings"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/utils"
)

func riskGrade(score int) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 65:
		return "B"
	case score >= 50:
		return "C"
	default:
		return "D"
	}
}

// pricingApr stacks risk premiums on the base rate: grade, lender
// competition, banking discipline, credit volatility, and cash velocity.
func pricingApr(grade string, s snapshot, lenders PrivateLenderCompetition,
	velocity CashVelocityControl, cfg *config.Thresholds) float64 {
	var gradePremium float64
	switch grade {
	case "A":
		gradePremium = 0
	case "B":
		gradePremium = 6
	case "C":
		gradePremium = 12
	default:
		gradePremium = 18
	}
	var competitionPremium float64
	if lenders.EstimatedLenders >= 3 || lenders.WeeklyCollectionsDetected {
		competitionPremium = 6
	}
	var disciplinePremium float64
	if s.bounceReturnCount >= 2 || s.penaltyChargeCount >= 4 {
		disciplinePremium = 6
	}
	var volatilityPremium float64
	if s.creditVolatility == "High" {
		volatilityPremium = 4
	}
	var velocityPremium float64
	if velocity.SameDaySpendRatio >= 0.9 {
		velocityPremium = 4
	}
	return utils.Clamp(cfg.BaseAPR+gradePremium+competitionPremium+disciplinePremium+volatilityPremium+velocityPremium,
		cfg.MinAPR, cfg.MaxAPR)
}

// buildRecommendation sizes, prices, and structures the deal. Exposure is
// capped by cash power and shrunk by grade; weak grades and lender
// stacking force weekly collections and staged disbursement.
func buildRecommendation(score int, grade string, apr float64, params Params, s snapshot,
	lenders PrivateLenderCompetition, velocity CashVelocityControl, cfg *config.Thresholds) Recommendation {

	requested := params.RequestedExposure
	if requested == 0 {
		requested = cfg.RequestedExposureMin
	}
	requested = utils.ClampInt(requested, cfg.RequestedExposureMin, cfg.RequestedExposureMax)

	maxTenure := params.MaxTenureMonths
	if maxTenure == 0 {
		maxTenure = 12
	}
	maxTenure = int(utils.ClampInt(int64(maxTenure), 1, 12))

	monthlyRate := apr / 12 / 100
	var exposureFactor float64
	switch grade {
	case "A":
		exposureFactor = 1.0
	case "B":
		exposureFactor = 0.85
	case "C":
		exposureFactor = 0.7
	default:
		exposureFactor = 0.55
	}
	cashCap := maxInt64(cfg.CashCapFloor, int64(math.Round(s.avgMonthlyCredits*cfg.CashCapMultiple)))
	baseRecommended := minInt64(requested, maxInt64(cfg.RequestedExposureMin, minInt64(cashCap, requested)))
	recommended := utils.ClampInt(int64(math.Round(float64(baseRecommended)*exposureFactor)),
		cfg.RecommendedExposureMin, cfg.RequestedExposureMax)

	var tenureCap int
	switch {
	case score >= 80:
		tenureCap = 12
	case score >= 65:
		tenureCap = 10
	case score >= 50:
		tenureCap = 8
	default:
		tenureCap = 6
	}
	tenure := maxTenure
	if tenureCap < tenure {
		tenure = tenureCap
	}

	frequency := "Monthly"
	if grade == "C" || grade == "D" || lenders.WeeklyCollectionsDetected || lenders.EstimatedLenders >= 3 {
		frequency = "Weekly"
	}

	var upfrontBase float64
	switch grade {
	case "A":
		upfrontBase = 0.12
	case "B":
		upfrontBase = 0.18
	case "C":
		upfrontBase = 0.28
	default:
		upfrontBase = 0.38
	}
	if lenders.EstimatedLenders >= 3 {
		upfrontBase += 0.07
	}
	if s.lowBalanceDays > 0 {
		upfrontBase += 0.03
	}
	upfrontPct := utils.Clamp(upfrontBase, cfg.UpfrontPctMin, cfg.UpfrontPctMax)

	totalInterest := int64(math.Round(float64(recommended) * monthlyRate * float64(tenure)))
	upfrontAmt := int64(math.Round(float64(totalInterest) * upfrontPct))
	remainingInterest := maxInt64(0, totalInterest-upfrontAmt)
	periods := tenure
	if frequency == "Weekly" {
		periods = tenure * 4
		if periods < 1 {
			periods = 1
		}
	}
	principalPerPeriod := int64(math.Round(float64(recommended) / float64(periods)))
	interestPerPeriod := int64(math.Round(float64(remainingInterest) / float64(periods)))
	collectionAmount := maxInt64(cfg.CollectionFloor, principalPerPeriod+interestPerPeriod)

	staged := grade == "C" || grade == "D" || lenders.EstimatedLenders >= 3 || lenders.RolloverRecyclingSignals >= 2
	stage1 := recommended
	var stage2 int64
	stage2Condition := ""
	if staged {
		stage1 = int64(math.Round(float64(recommended) * cfg.StageOneShare))
		stage2 = maxInt64(0, recommended-stage1)
		stage2Condition = "Release only after 2 clean collection cycles + no new lender signals."
	}

	return Recommendation{
		RecommendedExposure: recommended,
		TenureMonths:        tenure,
		CollectionFrequency: frequency,
		CollectionAmount:    collectionAmount,
		UpfrontDeductionPct: upfrontPct,
		UpfrontDeductionAmt: upfrontAmt,
		PricingApr:          apr,
		Structure: Structure{
			ScheduleType:          "amortized_simple",
			NetDisbursedEstimate:  recommended - upfrontAmt,
			StagedDisbursement:    staged,
			Stage1Amount:          stage1,
			Stage2Amount:          stage2,
			Stage2Condition:       stage2Condition,
			BestCollectionWeekday: strings.ToUpper(velocity.TopInflowWeekday),
		},
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
