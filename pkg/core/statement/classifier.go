package statement

import (
	"regexp"
	"strings"

	"credit_autopilot/pkg/core/config"
)

var (
	cpSplitRe = regexp.MustCompile(`[/\-|]`)
	spaceRe   = regexp.MustCompile(`\s+`)
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
)

// ExtractCounterparty pulls the most name-like token out of a narration.
// The narration is split on the rails separators and scanned right to
// left: statement formats put the payee near the end, after the
// UPI/IMPS/NEFT plumbing. Returns "-" when nothing usable exists; that
// value is treated as an unknown counterparty by Categorize.
func ExtractCounterparty(narration string, maxLen int) string {
	clean := spaceRe.ReplaceAllString(strings.TrimSpace(narration), " ")
	if clean == "" {
		return "-"
	}
	var parts []string
	for _, p := range cpSplitRe.Split(clean, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	best := ""
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		up := strings.ToUpper(p)
		if len(p) >= 3 && hasLetter.MatchString(p) &&
			!strings.HasPrefix(up, "UPI") && !strings.HasPrefix(up, "IMPS") && !strings.HasPrefix(up, "NEFT") {
			best = p
			break
		}
	}
	if best == "" && len(parts) > 0 {
		best = parts[len(parts)-1]
	}
	if best == "" {
		best = clean
	}
	if maxLen > 0 && len(best) > maxLen {
		best = best[:maxLen]
	}
	return best
}

// IsUnknownCounterparty reports whether the extractor found nothing usable.
func IsUnknownCounterparty(cp string) bool {
	return cp == "" || cp == "-"
}

// Categorize assigns the single category bucket. The chain is a fixed
// priority order checked top-down on the uppercased narration.
func Categorize(narration string, dr, cr int64, counterparty string, cfg *config.Thresholds) Category {
	n := strings.ToUpper(narration)
	amt := dr
	if cr > amt {
		amt = cr
	}
	switch {
	case containsAny(n, "RTN", "RETURN", "CHQ RET", "NOT REP"):
		return CatReturn
	case containsAny(n, "GST", "TAX", "CBDT", "ITD"):
		return CatTax
	case containsAny(n, "ATM", "CASH", "SELF"):
		return CatCash
	case containsAny(n, "EMI", "LOAN", "INTEREST", "OD INTEREST", "PROC FEE", "LEGAL FEE"):
		return CatBankFin
	case containsAny(n, "HAND LOAN", "PVT", "WEEKLY"):
		return CatPvtFin
	case IsUnknownCounterparty(counterparty) && amt >= cfg.HighValueAmount:
		return CatDoubt
	case amt >= cfg.OddFigureFloor && amt%1000 != 0:
		return CatOddFig
	case dr > 0 && cr > 0:
		return CatCons
	default:
		return CatFinal
	}
}

// BuildFlags returns the independent marker set for a transaction.
func BuildFlags(narration string, dr, cr int64, cfg *config.Thresholds) []Flag {
	n := strings.ToUpper(narration)
	amt := dr
	if cr > amt {
		amt = cr
	}
	var flags []Flag
	if containsAny(n, "PENALTY", "CHARGE") {
		flags = append(flags, FlagPenalty)
	}
	if containsAny(n, "RETURN", "BOUNCE") {
		flags = append(flags, FlagBounce)
	}
	if amt > cfg.HighValueAmount {
		flags = append(flags, FlagHighValue)
	}
	if amt >= cfg.OddFigureFloor && amt%1000 != 0 {
		flags = append(flags, FlagOddFig)
	}
	return flags
}

// ClassifyCreditNature labels a credit-side counterparty for the heat map.
func ClassifyCreditNature(counterparty string) string {
	t := strings.ToUpper(counterparty)
	switch {
	case strings.Contains(t, "SALARY"):
		return "Salary"
	case containsAny(t, "UPI", "IMPS", "NEFT", "RTGS"):
		return "Transfer"
	case strings.Contains(t, "CASH"):
		return "Cash deposit"
	default:
		return "Receipts"
	}
}

// ClassifyDebitType returns the (nature, priority, flexibility) triple for
// a debit-side counterparty.
func ClassifyDebitType(counterparty string) (nature, priority, flexi string) {
	t := strings.ToUpper(counterparty)
	switch {
	case containsAny(t, "EMI", "LOAN", "INTEREST", "FINANCE"):
		return "Existing lender", "High", "No"
	case strings.Contains(t, "RENT"):
		return "Rent", "High", "No"
	case containsAny(t, "SALARY", "WAGE"):
		return "Payroll", "High", "No"
	case containsAny(t, "GST", "TDS", "PF"):
		return "Statutory", "High", "No"
	case containsAny(t, "CHARGE", "PENAL", "FEE"):
		return "Bank charges", "Medium", "No"
	default:
		return "Supplier/ops", "Medium", "Maybe"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
