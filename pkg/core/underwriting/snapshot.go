package underwriting

import (
	"math"
	"sort"
	"strings"
	"time"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/statement"
	"credit_autopilot/pkg/core/utils"
)

// row is one date-normalized transaction inside the engine. Rows are kept
// sorted by date; the sort is stable so same-day rows keep input order.
type row struct {
	date         time.Time
	dateIso      string
	narration    string
	debit        int64
	credit       int64
	balance      *int64
	counterparty string
}

func (r row) amount() int64 {
	if r.debit > r.credit {
		return r.debit
	}
	return r.credit
}

// snapshot holds every statement-derived figure the rules, pricing, and
// triggers read. Computed once per run.
type snapshot struct {
	rows          []row
	periodStart   string
	periodEnd     string
	statementDays int

	totalCredits int64
	totalDebits  int64

	avgDailyCredits   float64
	avgWeeklyCredits  float64
	avgMonthlyCredits float64
	avgMonthlyDebits  float64

	avgUsableBalance float64
	minBalance       int64

	creditCV         float64
	creditVolatility string // Low | Medium | High

	lowBalanceThreshold int64
	lowBalanceDays      int
	lowBalanceRatio     float64

	penaltyChargeCount int
	bounceReturnCount  int

	fixedObligationMonthly float64
}

func normalizeRows(txns []statement.Transaction, cfg *config.Thresholds) []row {
	rows := make([]row, 0, len(txns))
	for _, t := range txns {
		d, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			continue
		}
		narration := strings.TrimSpace(t.Narration)
		if narration == "" {
			narration = "-"
		}
		cp := t.Counterparty
		if cp == "" {
			cp = statement.ExtractCounterparty(narration, cfg.CounterpartyMaxLen)
		}
		rows = append(rows, row{
			date:         d,
			dateIso:      t.Date,
			narration:    narration,
			debit:        maxInt64(0, t.Debit),
			credit:       maxInt64(0, t.Credit),
			balance:      t.Balance,
			counterparty: cp,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
	return rows
}

func daysBetweenInclusive(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days + 1
}

func isPenaltyCharge(narration string) bool {
	t := strings.ToUpper(narration)
	return strings.Contains(t, "CHARGE") || strings.Contains(t, "PENAL") ||
		strings.Contains(t, "FEE") || strings.Contains(t, "SMS")
}

func isBounceOrReturn(narration string) bool {
	t := strings.ToUpper(narration)
	return strings.Contains(t, "BOUNCE") || strings.Contains(t, "RETURN") ||
		strings.Contains(t, "REVERS") || strings.Contains(t, "FAILED")
}

func buildSnapshot(rows []row, cfg *config.Thresholds) snapshot {
	s := snapshot{rows: rows}
	s.periodStart = rows[0].dateIso
	s.periodEnd = rows[len(rows)-1].dateIso
	s.statementDays = daysBetweenInclusive(rows[0].date, rows[len(rows)-1].date)

	for _, r := range rows {
		s.totalCredits += r.credit
		s.totalDebits += r.debit
	}
	days := float64(s.statementDays)
	s.avgDailyCredits = float64(s.totalCredits) / days
	s.avgWeeklyCredits = s.avgDailyCredits * 7
	s.avgMonthlyCredits = s.avgDailyCredits * 30
	s.avgMonthlyDebits = float64(s.totalDebits) / days * 30

	var balSum int64
	balCount := 0
	for _, r := range rows {
		if r.balance == nil {
			continue
		}
		if balCount == 0 || *r.balance < s.minBalance {
			s.minBalance = *r.balance
		}
		balSum += *r.balance
		balCount++
	}
	if balCount > 0 {
		s.avgUsableBalance = float64(balSum) / float64(balCount)
	}

	dailyCredits := make(map[string]int64)
	dailyMinBalance := make(map[string]int64)
	for _, r := range rows {
		dailyCredits[r.dateIso] += r.credit
		if r.balance != nil {
			if prev, ok := dailyMinBalance[r.dateIso]; !ok || *r.balance < prev {
				dailyMinBalance[r.dateIso] = *r.balance
			}
		}
	}

	var positive []float64
	for _, day := range sortedKeys(dailyCredits) {
		if v := dailyCredits[day]; v > 0 {
			positive = append(positive, float64(v))
		}
	}
	s.creditCV = utils.CoefficientOfVariation(positive)
	switch {
	case s.creditCV < cfg.VolatilityLowCV:
		s.creditVolatility = "Low"
	case s.creditCV < cfg.VolatilityHighCV:
		s.creditVolatility = "Medium"
	default:
		s.creditVolatility = "High"
	}

	s.lowBalanceThreshold = maxInt64(cfg.LowBalanceFloor, int64(math.Round(s.avgMonthlyCredits*cfg.LowBalancePctOfCredit)))
	for _, day := range sortedKeys(dailyMinBalance) {
		if dailyMinBalance[day] < s.lowBalanceThreshold {
			s.lowBalanceDays++
		}
	}
	s.lowBalanceRatio = float64(s.lowBalanceDays) / days

	for _, r := range rows {
		if isPenaltyCharge(r.narration) {
			s.penaltyChargeCount++
		}
		if isBounceOrReturn(r.narration) {
			s.bounceReturnCount++
		}
	}

	s.fixedObligationMonthly = estimateFixedObligations(rows, s.statementDays, s.avgMonthlyCredits, cfg)
	return s
}

// estimateFixedObligations projects recurring same-counterparty debits
// (at least two hits, amounts within the allowed deviation of their mean)
// onto a 30-day month, capped at a share of average monthly credits.
func estimateFixedObligations(rows []row, statementDays int, avgMonthlyCredits float64, cfg *config.Thresholds) float64 {
	if statementDays == 0 {
		return 0
	}
	groups := make(map[string][]int64)
	for _, r := range rows {
		if r.debit > 0 {
			groups[r.counterparty] = append(groups[r.counterparty], r.debit)
		}
	}
	var recurring float64
	for _, cp := range sortedKeys(groups) {
		amounts := groups[cp]
		if len(amounts) < 2 {
			continue
		}
		var sum int64
		for _, a := range amounts {
			sum += a
		}
		mean := float64(sum) / float64(len(amounts))
		var maxDev float64
		for _, a := range amounts {
			if d := math.Abs(float64(a) - mean); d > maxDev {
				maxDev = d
			}
		}
		if maxDev/math.Max(1, mean) <= cfg.FixedObligationMaxDev {
			recurring += float64(sum) / float64(statementDays) * 30
		}
	}
	return math.Min(recurring, avgMonthlyCredits*cfg.FixedObligationCapPct)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
