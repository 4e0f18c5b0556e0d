package docs

import (
	"fmt"
	"math"
	"strings"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/utils"
)

// BankFigures are the statement-derived numbers the documents are
// verified against.
type BankFigures struct {
	MonthlyCredits    map[string]int64 // YYYY-MM -> credit total
	AvgMonthlyCredits float64
}

// ComputeCrossVerification walks every month in the GST range, compares
// bank credits with declared turnover, and derives the three mismatch
// percentages (bank-vs-GST, bank-vs-ITR, ITR-vs-GST annualized). Returns
// nil when neither document block is present.
func ComputeCrossVerification(bank BankFigures, gst *GstUnderwriting, itr *ItrUnderwriting, cfg *config.Thresholds) *CrossVerification {
	if gst == nil && itr == nil {
		return nil
	}
	if cfg == nil {
		cfg = config.Default()
	}

	var rows []CrossRow
	if gst != nil {
		byMonth := make(map[string]GstMonth, len(gst.Months))
		minI, maxI, n := 0, 0, 0
		for _, m := range gst.Months {
			i, ok := MonthIndex(m.Month)
			if !ok {
				continue
			}
			byMonth[m.Month] = m
			if n == 0 || i < minI {
				minI = i
			}
			if n == 0 || i > maxI {
				maxI = i
			}
			n++
		}
		if n > 0 {
			for i := minI; i <= maxI && len(rows) < cfg.CrossRowsCap; i++ {
				ym := MonthIndexToYM(i)
				bankCredits := bank.MonthlyCredits[ym]
				row := CrossRow{Month: ym, BankCredits: bankCredits, GstFilingStatus: "Missing"}
				if m, ok := byMonth[ym]; ok {
					turnover := m.Turnover
					taxPaid := m.TaxPaid
					daysLate := m.DaysLate
					row.GstTurnover = &turnover
					row.GstTaxPaid = &taxPaid
					row.GstDaysLate = &daysLate
					switch {
					case daysLate > 0:
						row.GstFilingStatus = "Late"
					case turnover == 0:
						row.GstFilingStatus = "Nil"
					default:
						row.GstFilingStatus = "Filed"
					}
					if turnover > 0 {
						diff := float64(bankCredits-turnover) / float64(turnover) * 100
						row.DiffPct = &diff
					}
				}
				rows = append(rows, row)
			}
		}
	}

	var nilMonths []string
	var absDiffs []float64
	for _, r := range rows {
		if r.GstTurnover != nil && *r.GstTurnover == 0 && r.BankCredits > 0 {
			nilMonths = append(nilMonths, r.Month)
		}
		if r.DiffPct != nil {
			absDiffs = append(absDiffs, math.Abs(*r.DiffPct))
		}
	}

	var bankVsGst *float64
	if len(absDiffs) > 0 {
		var sum float64
		for _, d := range absDiffs {
			sum += d
		}
		v := sum / float64(len(absDiffs))
		bankVsGst = &v
	}

	var bankVsItr *float64
	if itr != nil && itr.LatestTurnover > 0 {
		itrMonthly := float64(itr.LatestTurnover) / 12
		if itrMonthly > 0 {
			v := math.Abs(bank.AvgMonthlyCredits-itrMonthly) / itrMonthly * 100
			bankVsItr = &v
		}
	}

	var gstAnnualEstimated *int64
	if gst != nil && len(gst.Months) > 0 {
		var sum float64
		for _, m := range gst.Months {
			sum += math.Max(0, float64(m.Turnover))
		}
		count := len(gst.Months)
		var est int64
		if count >= cfg.GstAnnualizeMinMonths {
			est = int64(math.Round(sum / float64(count) * 12))
		} else {
			est = int64(math.Round(sum))
		}
		gstAnnualEstimated = &est
	}

	var itrVsGst *float64
	if itr != nil && itr.LatestTurnover > 0 && gstAnnualEstimated != nil && *gstAnnualEstimated > 0 {
		v := math.Abs(float64(itr.LatestTurnover)-float64(*gstAnnualEstimated)) / float64(*gstAnnualEstimated) * 100
		itrVsGst = &v
	}

	var mismatchFlags []string
	if bankVsGst != nil && *bankVsGst > 20 {
		mismatchFlags = append(mismatchFlags, "BANK_VS_GST_MISMATCH")
	}
	if bankVsItr != nil && *bankVsItr > 25 {
		mismatchFlags = append(mismatchFlags, "BANK_VS_ITR_MISMATCH")
	}
	if itrVsGst != nil && *itrVsGst > 25 {
		mismatchFlags = append(mismatchFlags, "ITR_VS_GST_MISMATCH")
	}
	if len(nilMonths) > 0 {
		mismatchFlags = append(mismatchFlags, "GST_NIL_WITH_BANK_CREDITS")
	}

	var c []string
	if bankVsGst != nil {
		c = append(c, fmt.Sprintf("Bank vs GST avg mismatch ~%g%%.", utils.Round1(*bankVsGst)))
	}
	if bankVsItr != nil {
		c = append(c, fmt.Sprintf("Bank vs ITR avg mismatch ~%g%%.", utils.Round1(*bankVsItr)))
	}
	if itrVsGst != nil {
		c = append(c, fmt.Sprintf("ITR vs GST (annualized) mismatch ~%g%%.", utils.Round1(*itrVsGst)))
	}
	if len(mismatchFlags) > 0 {
		c = append(c, fmt.Sprintf("Mismatch flags: %s.", strings.Join(mismatchFlags, ", ")))
	}

	return &CrossVerification{
		BankVsGstAvgDiffPct:            bankVsGst,
		BankVsItrAvgDiffPct:            bankVsItr,
		ItrVsGstAnnualDiffPct:          itrVsGst,
		ItrVsGstAnnualEstimated:        gstAnnualEstimated,
		NilReturnMonthsWithBankCredits: nilMonths,
		Rows:                           rows,
		MismatchFlags:                  mismatchFlags,
		Commentary:                     strings.Join(c, " "),
	}
}
