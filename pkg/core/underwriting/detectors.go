package underwriting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/utils"
)

var privateLenderKeywords = []string{
	"HAND LOAN", "H LOAN", "INTEREST", "INT ", "RETURN", "ROLL", "REPAY",
	"LOAN", "LENDER", "FINANCE", "DAILY", "WEEKLY", "COLLECT", "SETTLE",
}

// truncateRunes shortens s to at most n runes, never splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func isPrivateLenderKeyword(narration string) bool {
	t := strings.ToUpper(narration)
	for _, k := range privateLenderKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func isRoundFigure(amount int64) bool {
	if amount <= 0 {
		return false
	}
	return amount%10000 == 0 || amount%5000 == 0 || amount%1000 == 0
}

// detectPrivateLenders scores every transaction for informal-lender
// markers (keyword hits, round figures, mid-band amounts) and keeps the
// evidence. A counterparty with repeated suspicious hits counts as one
// estimated lender. Rollover recycling is a credit followed within a
// couple of days by a near-equal keyword debit.
func detectPrivateLenders(rows []row, statementDays int, cfg *config.Thresholds) PrivateLenderCompetition {
	var evidence []EvidenceEntry
	hitsByCp := make(map[string]int)
	rolloverSignals := 0

	for i, r := range rows {
		amount := r.amount()
		direction := "OTHER"
		if r.debit > 0 {
			direction = "DEBIT"
		} else if r.credit > 0 {
			direction = "CREDIT"
		}

		score := 0
		if isPrivateLenderKeyword(r.narration) {
			score += 2
		}
		if isRoundFigure(amount) {
			score++
		}
		if amount >= cfg.RoundFigureBandMin && amount <= cfg.RoundFigureBandMax && amount%5000 == 0 {
			score++
		}
		if score >= cfg.SuspicionScoreMin && amount > 0 {
			hitsByCp[r.counterparty]++
			if len(evidence) < cfg.SuspicionEvidenceCap {
				narration := truncateRunes(r.narration, 140)
				evidence = append(evidence, EvidenceEntry{
					Date:      r.dateIso,
					Narration: narration,
					Direction: direction,
					Amount:    amount,
				})
			}
		}

		if r.credit > 0 && i+1 < len(rows) {
			next := rows[i+1]
			gap := int(next.date.Sub(r.date).Hours() / 24)
			if gap >= 0 && gap <= cfg.RolloverMaxGapDays && next.debit > 0 {
				delta := math.Abs(float64(next.debit)-float64(r.credit)) / math.Max(1, float64(r.credit))
				if delta <= cfg.RolloverAmountTol && (isPrivateLenderKeyword(next.narration) || isPrivateLenderKeyword(r.narration)) {
					rolloverSignals++
				}
			}
		}
	}

	lenderLike := 0
	for _, c := range hitsByCp {
		if c >= cfg.LenderHitsMin {
			lenderLike++
		}
	}
	estimatedLenders := int(utils.ClampInt(int64(lenderLike), 0, int64(cfg.EstimatedLendersCap)))

	var suspiciousDebitSum int64
	for _, e := range evidence {
		if e.Direction == "DEBIT" {
			suspiciousDebitSum += e.Amount
		}
	}
	approxMonthlyDebtLoad := suspiciousDebitSum
	if statementDays > 0 {
		approxMonthlyDebtLoad = int64(math.Round(float64(suspiciousDebitSum) / float64(statementDays) * 30))
	}

	weekly := weeklyCollectionsDetected(rows, cfg)

	summary := fmt.Sprintf("Estimated private lenders: %d. Approx monthly debt load: ₹%s.",
		estimatedLenders, utils.FormatINR(approxMonthlyDebtLoad))
	if weekly {
		summary += " Weekly collections pattern detected."
	}
	if rolloverSignals > 0 {
		summary += fmt.Sprintf(" Rollover/recycling signals: %d.", rolloverSignals)
	}

	return PrivateLenderCompetition{
		EstimatedLenders:          estimatedLenders,
		ApproxMonthlyDebtLoad:     approxMonthlyDebtLoad,
		WeeklyCollectionsDetected: weekly,
		RolloverRecyclingSignals:  rolloverSignals,
		Evidence:                  evidence,
		Summary:                   summary,
	}
}

// weeklyCollectionsDetected looks at gaps between the most recent debit
// events and flags a repeated 5-9 day cadence, the signature of informal
// weekly collections.
func weeklyCollectionsDetected(rows []row, cfg *config.Thresholds) bool {
	var debitDates []row
	for _, r := range rows {
		if r.debit > 0 {
			debitDates = append(debitDates, r)
		}
	}
	if cfg.DebitEventsWindow > 0 && len(debitDates) > cfg.DebitEventsWindow {
		debitDates = debitDates[len(debitDates)-cfg.DebitEventsWindow:]
	}
	hits := 0
	for i := 1; i < len(debitDates); i++ {
		gap := int(math.Round(debitDates[i].date.Sub(debitDates[i-1].date).Hours() / 24))
		if gap >= cfg.WeeklyGapMinDays && gap <= cfg.WeeklyGapMaxDays {
			hits++
		}
	}
	return hits >= cfg.WeeklyGapHitsMin
}

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// detectCashVelocity measures how fast credits leave the account. The
// same-day ratio averages min(dayDebits/dayCredits, 1) over credit days;
// the T+1 ratio does the same against the following active day.
func detectCashVelocity(rows []row, s snapshot, cfg *config.Thresholds) CashVelocityControl {
	type daySum struct{ c, d int64 }
	daily := make(map[string]daySum)
	for _, r := range rows {
		v := daily[r.dateIso]
		v.c += r.credit
		v.d += r.debit
		daily[r.dateIso] = v
	}
	days := sortedKeys(daily)

	var sameDaySpend, tPlusOneSpend float64
	creditDays := 0
	for i, day := range days {
		v := daily[day]
		if v.c <= 0 {
			continue
		}
		creditDays++
		sameDaySpend += math.Min(float64(v.d)/float64(v.c), 1)
		if i+1 < len(days) {
			n := daily[days[i+1]]
			tPlusOneSpend += math.Min(float64(n.d)/float64(v.c), 1)
		}
	}
	var sameDayRatio, tPlusOneRatio float64
	if creditDays > 0 {
		sameDayRatio = sameDaySpend / float64(creditDays)
		tPlusOneRatio = tPlusOneSpend / float64(creditDays)
	}
	var idleRatio float64
	if s.avgMonthlyCredits > 0 {
		idleRatio = s.avgUsableBalance / s.avgMonthlyCredits
	}

	weekdayTotals := make(map[int]int64)
	monthDayTotals := make(map[int]int64)
	for _, r := range rows {
		if r.credit <= 0 {
			continue
		}
		weekdayTotals[int(r.date.Weekday())] += r.credit
		monthDayTotals[r.date.Day()] += r.credit
	}
	topWeekday := 1 // Monday when no credits at all
	var topWeekdayTotal int64 = -1
	for wd := 0; wd < 7; wd++ {
		if t, ok := weekdayTotals[wd]; ok && t > topWeekdayTotal {
			topWeekday = wd
			topWeekdayTotal = t
		}
	}
	type dayTotal struct {
		day   int
		total int64
	}
	var monthDays []dayTotal
	for d, t := range monthDayTotals {
		monthDays = append(monthDays, dayTotal{d, t})
	}
	sort.Slice(monthDays, func(i, j int) bool {
		if monthDays[i].total != monthDays[j].total {
			return monthDays[i].total > monthDays[j].total
		}
		return monthDays[i].day < monthDays[j].day
	})
	var topMonthDays []int
	for i := 0; i < len(monthDays) && i < 3; i++ {
		topMonthDays = append(topMonthDays, monthDays[i].day)
	}

	var borrowerType string
	switch {
	case sameDayRatio >= cfg.SameDayPassThroughRatio && idleRatio < cfg.IdleRetentionLow:
		borrowerType = "Pass-through operator (low control, thin margin)"
	case idleRatio >= cfg.IdleRetentionHigh:
		borrowerType = "Cash-retainer (higher control/retention)"
	case s.creditVolatility == "Low":
		borrowerType = "Stable earner / salary-like"
	default:
		borrowerType = "Trader / variable inflow operator"
	}

	return CashVelocityControl{
		SameDaySpendRatio:      sameDayRatio,
		TPlusOneSpendRatio:     tPlusOneRatio,
		IdleCashRetentionRatio: idleRatio,
		TopInflowWeekday:       weekdayNames[topWeekday],
		TopInflowMonthDays:     topMonthDays,
		BorrowerType:           borrowerType,
		Commentary: fmt.Sprintf("Same-day spend ratio %s; T+1 spend ratio %s; idle retention %s. Classified as: %s.",
			utils.Pct1(sameDayRatio), utils.Pct1(tPlusOneRatio), utils.Pct1(idleRatio), borrowerType),
	}
}
