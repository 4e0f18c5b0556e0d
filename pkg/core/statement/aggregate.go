package statement

import (
	"math"
	"sort"

	"credit_autopilot/pkg/core/utils"
)

// BuildMonthlyAggregates computes the per-month rollups. Months are
// emitted in ascending order so repeated runs serialize identically.
func BuildMonthlyAggregates(txns []Transaction) []MonthlyAggregate {
	byMonth := make(map[string][]Transaction)
	for _, t := range txns {
		byMonth[t.Month] = append(byMonth[t.Month], t)
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthlyAggregate, 0, len(months))
	for _, month := range months {
		rows := byMonth[month]
		agg := MonthlyAggregate{Month: month}
		dailyCredits := make(map[string]int64)
		var lastBalance *int64
		for _, r := range rows {
			if r.Credit > 0 {
				agg.CreditCount++
				agg.CreditTotal += r.Credit
				dailyCredits[r.Date] += r.Credit
				if r.Category == CatCash {
					agg.CashDeposits += r.Credit
				}
			}
			if r.Debit > 0 {
				agg.DebitCount++
				agg.DebitTotal += r.Debit
				if r.Category == CatCash {
					agg.CashWithdrawals += r.Debit
				}
			}
			if r.Category == CatBankFin && r.HasFlag(FlagPenalty) {
				agg.PenaltyCharges++
			}
			if r.Category == CatReturn {
				agg.Bounces++
			}
			if r.Balance != nil {
				lastBalance = r.Balance
				if *r.Balance < 0 {
					agg.OverdrawnDays++
				}
			}
		}
		agg.BalanceOn10th = balanceOnDay(rows, "10")
		agg.BalanceOn20th = balanceOnDay(rows, "20")
		agg.BalanceOnLast = lastBalance

		var daySums []float64
		for _, v := range dailyCredits {
			if v > 0 {
				daySums = append(daySums, float64(v))
			}
		}
		agg.VolatilityScore = utils.CoefficientOfVariation(daySums)
		out = append(out, agg)
	}
	return out
}

func balanceOnDay(rows []Transaction, day string) *int64 {
	for _, r := range rows {
		if len(r.Date) == 10 && r.Date[8:] == day && r.Balance != nil {
			return r.Balance
		}
	}
	return nil
}

// BuildHeatMap ranks counterparties on one side of the ledger: total
// descending, capped at 15 rows, each row carrying its share of the
// side's total. Credit rows get a dependency bucket; debit rows get the
// spend classification triple.
func BuildHeatMap(txns []Transaction, side TxnType) []HeatRow {
	type acc struct {
		sum  int64
		freq int
	}
	var total int64
	buckets := make(map[string]*acc)
	for _, t := range txns {
		amt := t.Credit
		if side == TxnDebit {
			amt = t.Debit
		}
		if amt <= 0 {
			continue
		}
		total += amt
		cp := t.Counterparty
		if cp == "" {
			cp = "-"
		}
		b := buckets[cp]
		if b == nil {
			b = &acc{}
			buckets[cp] = b
		}
		b.sum += amt
		b.freq++
	}
	if total == 0 {
		return nil
	}

	names := make([]string, 0, len(buckets))
	for cp := range buckets {
		names = append(names, cp)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := buckets[names[i]], buckets[names[j]]
		if a.sum != b.sum {
			return a.sum > b.sum
		}
		return names[i] < names[j]
	})
	if len(names) > 15 {
		names = names[:15]
	}

	rows := make([]HeatRow, 0, len(names))
	for _, cp := range names {
		b := buckets[cp]
		row := HeatRow{
			Counterparty: cp,
			Freq:         b.freq,
			AvgAmt:       int64(math.Round(float64(b.sum) / float64(b.freq))),
			TotalAmt:     b.sum,
			PctOfTotal:   float64(b.sum) / float64(total) * 100,
		}
		if side == TxnDebit {
			nature, priority, flexi := ClassifyDebitType(cp)
			row.Nature = nature
			row.PriorityLevel = priority
			row.Flexi = flexi
		} else {
			row.Nature = ClassifyCreditNature(cp)
			switch {
			case row.PctOfTotal >= 40:
				row.Dependency = "High"
			case row.PctOfTotal >= 20:
				row.Dependency = "Medium"
			default:
				row.Dependency = "Low"
			}
		}
		rows = append(rows, row)
	}
	return rows
}
