package docs

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/utils"
)

var ymRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// MonthIndex maps "YYYY-MM" to a continuous month number for gap math.
func MonthIndex(ym string) (int, bool) {
	m := ymRe.FindStringSubmatch(strings.TrimSpace(ym))
	if m == nil {
		return 0, false
	}
	y, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm < 1 || mm > 12 {
		return 0, false
	}
	return y*12 + (mm - 1), true
}

// MonthIndexToYM is the inverse of MonthIndex.
func MonthIndexToYM(index int) string {
	y := index / 12
	m := index%12 + 1
	return fmt.Sprintf("%04d-%02d", y, m)
}

// ComputeGstUnderwriting analyzes the monthly GST filing summaries:
// turnover volatility and seasonality, filing gaps, late filings, and
// consecutive sharp drops.
func ComputeGstUnderwriting(monthsRaw []GstMonth, cfg *config.Thresholds) *GstUnderwriting {
	if cfg == nil {
		cfg = config.Default()
	}
	var months []GstMonth
	for _, m := range monthsRaw {
		if _, ok := MonthIndex(m.Month); ok {
			months = append(months, m)
		}
	}
	if len(months) == 0 {
		return nil
	}
	sort.SliceStable(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	var values []float64
	var mean float64
	for _, m := range months {
		if m.Turnover > 0 {
			values = append(values, float64(m.Turnover))
		}
	}
	if len(values) > 0 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean = sum / float64(len(values))
	}
	cv := utils.CoefficientOfVariation(values)
	volatilityBucket := bucketCV(cv, cfg)

	var totalTurnover float64
	tops := make([]float64, 0, len(months))
	for _, m := range months {
		v := math.Max(0, float64(m.Turnover))
		totalTurnover += v
		tops = append(tops, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(tops)))
	var top3 float64
	for i := 0; i < len(tops) && i < 3; i++ {
		top3 += tops[i]
	}
	seasonality := "Low"
	if totalTurnover > 0 {
		switch ratio := top3 / totalTurnover; {
		case ratio >= cfg.SeasonalityHighShare:
			seasonality = "High"
		case ratio >= cfg.SeasonalityMedShare:
			seasonality = "Medium"
		}
	}

	gapCount, missing := filingGaps(months, cfg.MissingMonthsCap)

	var lateMonths []string
	for _, m := range months {
		if m.DaysLate > 0 {
			lateMonths = append(lateMonths, m.Month)
		}
	}

	dropMonths := consecutiveDrops(months, cfg.ConsecutiveDropPct, cfg.MissingMonthsCap)

	var flags []string
	if gapCount > 0 {
		flags = append(flags, "GST_MISSED_FILINGS")
	}
	if len(lateMonths) >= 2 {
		flags = append(flags, "GST_LATE_FILINGS")
	}
	if volatilityBucket == "High" {
		flags = append(flags, "GST_VOLATILITY_HIGH")
	}
	if len(dropMonths) >= 2 {
		flags = append(flags, "GST_CONSECUTIVE_DROP")
	}

	avgTurnover := int64(math.Max(0, math.Round(mean)))

	var c []string
	c = append(c, fmt.Sprintf("GST avg monthly turnover ₹%s.", utils.FormatINR(avgTurnover)))
	if gapCount > 0 {
		c = append(c, fmt.Sprintf("Missed filings: %d.", gapCount))
	}
	if len(lateMonths) > 0 {
		c = append(c, fmt.Sprintf("Late filings: %d.", len(lateMonths)))
	}
	if volatilityBucket == "High" {
		c = append(c, fmt.Sprintf("High turnover volatility (CV %g).", utils.Round2(cv)))
	}
	if len(dropMonths) >= 2 {
		c = append(c, "Consecutive turnover drop risk detected.")
	}

	return &GstUnderwriting{
		Months:                months,
		AvgMonthlyTurnover:    avgTurnover,
		VolatilityScore:       cv,
		VolatilityBucket:      volatilityBucket,
		SeasonalityBucket:     seasonality,
		FilingGapCount:        gapCount,
		MissingMonths:         missing,
		LateFilingCount:       len(lateMonths),
		LateMonths:            lateMonths,
		ConsecutiveDropMonths: dropMonths,
		Flags:                 flags,
		Commentary:            strings.Join(c, " "),
	}
}

func bucketCV(cv float64, cfg *config.Thresholds) string {
	switch {
	case cv < cfg.VolatilityLowCV:
		return "Low"
	case cv < cfg.VolatilityHighCV:
		return "Medium"
	default:
		return "High"
	}
}

// filingGaps counts holes in the month-index continuity between the
// first and last observed month and lists them, capped.
func filingGaps(months []GstMonth, limit int) (int, []string) {
	present := make(map[int]bool)
	minI, maxI := 0, 0
	n := 0
	for _, m := range months {
		i, ok := MonthIndex(m.Month)
		if !ok {
			continue
		}
		if n == 0 || i < minI {
			minI = i
		}
		if n == 0 || i > maxI {
			maxI = i
		}
		present[i] = true
		n++
	}
	if n < 2 {
		return 0, nil
	}
	var missing []string
	for i := minI; i <= maxI; i++ {
		if !present[i] {
			missing = append(missing, MonthIndexToYM(i))
			if len(missing) >= limit {
				break
			}
		}
	}
	gap := (maxI - minI + 1) - len(present)
	if gap < 0 {
		gap = 0
	}
	return gap, missing
}

// consecutiveDrops flags a month only when both it and the month before
// dropped at least dropPct versus their predecessors.
func consecutiveDrops(months []GstMonth, dropPct float64, limit int) []string {
	dropSet := make(map[string]bool)
	var drops []string
	for i := 1; i < len(months); i++ {
		prev := math.Max(0, float64(months[i-1].Turnover))
		cur := math.Max(0, float64(months[i].Turnover))
		if prev == 0 {
			continue
		}
		if (prev-cur)/prev*100 >= dropPct {
			drops = append(drops, months[i].Month)
			dropSet[months[i].Month] = true
		}
	}
	var consecutive []string
	seen := make(map[string]bool)
	for _, m := range drops {
		mi, ok := MonthIndex(m)
		if !ok {
			continue
		}
		if dropSet[MonthIndexToYM(mi-1)] && !seen[m] {
			seen[m] = true
			consecutive = append(consecutive, m)
			if len(consecutive) >= limit {
				break
			}
		}
	}
	return consecutive
}
