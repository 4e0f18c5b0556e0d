package docs

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"credit_autopilot/pkg/core/utils"
)

var itrYearRe = regexp.MustCompile(`(20\d{2})`)

// itrYearKey extracts the sortable year from a free-form label
// ("FY 2023-24", "AY2024"). Zero when no year is present.
func itrYearKey(label string) int {
	m := itrYearRe.FindString(label)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// ComputeItrUnderwriting analyzes the yearly ITR summaries: latest
// margin, year-over-year movement, and the profit-without-tax anomaly.
func ComputeItrUnderwriting(yearsRaw []ItrYear) *ItrUnderwriting {
	var years []ItrYear
	for _, y := range yearsRaw {
		if y.Turnover >= 0 {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return nil
	}
	sort.SliceStable(years, func(i, j int) bool { return itrYearKey(years[i].Year) < itrYearKey(years[j].Year) })

	latest := years[len(years)-1]
	var prev *ItrYear
	for i := len(years) - 2; i >= 0; i-- {
		if itrYearKey(years[i].Year) < itrYearKey(latest.Year) {
			prev = &years[i]
			break
		}
	}

	marginPct := 0.0
	if latest.Turnover > 0 {
		marginPct = float64(latest.Profit) / float64(latest.Turnover) * 100
	}

	var yoyTurnover, yoyProfit *float64
	if prev != nil && prev.Turnover > 0 {
		v := float64(latest.Turnover-prev.Turnover) / float64(prev.Turnover) * 100
		yoyTurnover = &v
	}
	if prev != nil && prev.Profit != 0 {
		denom := float64(prev.Profit)
		if denom < 0 {
			denom = -denom
		}
		v := float64(latest.Profit-prev.Profit) / denom * 100
		yoyProfit = &v
	}

	var flags []string
	if marginPct < 3 {
		flags = append(flags, "ITR_MARGIN_THIN")
	}
	if latest.Profit < 0 {
		flags = append(flags, "ITR_LOSS")
	}
	if yoyTurnover != nil && *yoyTurnover <= -30 {
		flags = append(flags, "ITR_INCOME_DECLINE_30")
	}
	if yoyTurnover != nil && *yoyTurnover <= -15 {
		flags = append(flags, "ITR_TURNOVER_DROP")
	}
	if yoyProfit != nil && *yoyProfit <= -20 {
		flags = append(flags, "ITR_PROFIT_DROP")
	}
	if latest.Profit > 0 && latest.TaxPaid == 0 {
		flags = append(flags, "ITR_TAX_ANOMALY")
	}

	var c []string
	c = append(c, fmt.Sprintf("ITR latest turnover ₹%s, profit ₹%s (margin %g%%).",
		utils.FormatINR(latest.Turnover), utils.FormatINR(latest.Profit), utils.Round1(marginPct)))
	if yoyTurnover != nil {
		c = append(c, fmt.Sprintf("YoY turnover %g%%.", utils.Round1(*yoyTurnover)))
	}
	if yoyProfit != nil {
		c = append(c, fmt.Sprintf("YoY profit %g%%.", utils.Round1(*yoyProfit)))
	}
	if marginPct < 3 {
		c = append(c, "Margin is thin → higher default sensitivity to any inflow disruption.")
	}
	if latest.Profit < 0 {
		c = append(c, "Loss declared → collections must be control-first.")
	}

	return &ItrUnderwriting{
		Years:           years,
		LatestTurnover:  latest.Turnover,
		LatestProfit:    latest.Profit,
		LatestMarginPct: marginPct,
		LatestTaxPaid:   latest.TaxPaid,
		YoyTurnoverPct:  yoyTurnover,
		YoyProfitPct:    yoyProfit,
		Flags:           flags,
		Commentary:      strings.Join(c, " "),
	}
}
