package statement

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"credit_autopilot/pkg/core/config"
)

var (
	dmyDateRe  = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})`)
	isoDateRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	leadDateRe = regexp.MustCompile(`^\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)
	amountRe   = regexp.MustCompile(`-?\d{1,3}(?:,\d{2,3})*(?:\.\d{1,2})?`)
	moneyJunk  = strings.NewReplacer(",", "", "₹", "", " ", "", " ", "")
)

// NormalizeDate extracts the first recognizable date token and returns it
// as yyyy-mm-dd. Supported inputs: dd/mm/yyyy, dd-mm-yyyy (2- or 4-digit
// year, 2-digit mapped to 20yy) and yyyy-mm-dd passthrough. Empty string
// when no date token is present.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if m := dmyDateRe.FindStringSubmatch(s); m != nil {
		dd := padTwo(m[1])
		mm := padTwo(m[2])
		yyyy := m[3]
		if len(yyyy) == 2 {
			yyyy = "20" + yyyy
		}
		return yyyy + "-" + mm + "-" + dd
	}
	return isoDateRe.FindString(s)
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ParseMoney parses one amount token ("1,23,456.78", "₹5,000") into whole
// currency units. decimal keeps the paise digits exact before rounding.
func ParseMoney(raw string) (int64, bool) {
	clean := strings.TrimSpace(moneyJunk.Replace(raw))
	if clean == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}

// ExtractAmounts resolves (debit, credit, balance) for a raw line.
// Explicit sub-fields win. Otherwise every numeric token in the row is
// scanned: the last is the balance, the one before it the debit, and the
// one before that the credit. A single leftover token is a debit.
func ExtractAmounts(rawRow, rawDr, rawCr, rawBal string) (dr, cr int64, bal *int64) {
	dr, _ = ParseMoney(rawDr)
	cr, _ = ParseMoney(rawCr)
	if b, ok := ParseMoney(rawBal); ok {
		bal = &b
	}
	if dr != 0 || cr != 0 || bal != nil {
		return dr, cr, bal
	}
	var nums []int64
	for _, tok := range amountRe.FindAllString(rawRow, -1) {
		if n, ok := ParseMoney(tok); ok {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return 0, 0, nil
	}
	b := nums[len(nums)-1]
	bal = &b
	others := nums[:len(nums)-1]
	switch {
	case len(others) == 1:
		dr = others[0]
	case len(others) >= 2:
		dr = others[len(others)-1]
		cr = others[len(others)-2]
	}
	return dr, cr, bal
}

// StripLeadingDate removes a dd/mm/yyyy-style prefix from a narration.
func StripLeadingDate(narration string) string {
	return strings.TrimSpace(leadDateRe.ReplaceAllString(strings.TrimSpace(narration), ""))
}

// DetectBankMeta scans statement text for bank and account-type markers.
func DetectBankMeta(text string) Meta {
	t := strings.ToUpper(text)
	var bank string
	switch {
	case strings.Contains(t, "HDFC"):
		bank = "HDFC"
	case strings.Contains(t, "ICICI"):
		bank = "ICICI"
	case strings.Contains(t, "AXIS"):
		bank = "AXIS"
	case strings.Contains(t, "STATE BANK"), strings.Contains(t, "SBI"):
		bank = "SBI"
	case strings.Contains(t, "KOTAK"):
		bank = "KOTAK"
	case strings.Contains(t, "INDUSIND"):
		bank = "INDUSIND"
	case strings.Contains(t, "TMB"):
		bank = "TMB"
	}
	var acct string
	switch {
	case strings.Contains(t, "SAVINGS"):
		acct = "SAVINGS"
	case strings.Contains(t, "CURRENT"):
		acct = "CURRENT"
	}
	return Meta{BankName: bank, AccountType: acct}
}

// pending is the open transaction accumulator threaded through the
// normalization fold. It only ever exists between a dated line and the
// next dated line.
type pending struct {
	rawLineIDs []string
	date       string
	narration  string
	dr, cr     int64
	bal        *int64
	pageNo     int
	rowNo      int
}

// close finalizes the open accumulator into a Transaction, or returns
// false when the candidate is a noise line (no debit, no credit, no
// balance).
func (p *pending) close(seq int, meta Meta, cfg *config.Thresholds) (Transaction, bool) {
	if p.dr == 0 && p.cr == 0 && p.bal == nil {
		return Transaction{}, false
	}
	narration := p.narration
	if narration == "" {
		narration = "-"
	}
	cp := ExtractCounterparty(narration, cfg.CounterpartyMaxLen)
	txType := TxnUnknown
	if p.cr > 0 {
		txType = TxnCredit
	} else if p.dr > 0 {
		txType = TxnDebit
	}
	balStr := ""
	if p.bal != nil {
		balStr = strconv.FormatInt(*p.bal, 10)
	}
	uidBase := strings.Join([]string{
		meta.BankName, meta.AccountType, p.date,
		strconv.FormatInt(p.dr, 10), strconv.FormatInt(p.cr, 10), balStr,
		narration, strconv.Itoa(p.pageNo), strconv.Itoa(p.rowNo),
	}, "|")
	return Transaction{
		ID:           fmt.Sprintf("txn_%d", seq),
		RawLineIDs:   append([]string(nil), p.rawLineIDs...),
		Date:         p.date,
		Month:        p.date[:7],
		Narration:    narration,
		Debit:        p.dr,
		Credit:       p.cr,
		Balance:      p.bal,
		Counterparty: cp,
		Type:         txType,
		Category:     Categorize(narration, p.dr, p.cr, cp, cfg),
		Flags:        BuildFlags(narration, p.dr, p.cr, cfg),
		UID:          contentHash(uidBase),
	}, true
}

// contentHash is FNV-1a 32-bit, hex encoded. Stable across runs; used
// only for caller-side de-duplication across repeated page headers.
func contentHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

// NormalizeLines folds the ordered raw lines into transactions. A dated
// line opens a transaction; dateless lines extend the open one's
// narration; closing a transaction with no amounts at all discards it and
// returns its lines to NON_TXN. The returned lines are the input re-tagged.
func NormalizeLines(rawLines []RawLine, meta Meta, cfg *config.Thresholds) ([]RawLine, []Transaction) {
	adjusted := append([]RawLine(nil), rawLines...)
	var txns []Transaction
	var open *pending

	lineIdx := make(map[string]int, len(rawLines))
	for i, l := range adjusted {
		lineIdx[l.ID] = i
	}

	closeOpen := func() {
		if open == nil {
			return
		}
		tx, ok := open.close(len(txns), meta, cfg)
		if ok {
			txns = append(txns, tx)
		} else {
			for _, id := range open.rawLineIDs {
				adjusted[lineIdx[id]].LineType = LineNonTxn
			}
		}
		open = nil
	}

	for i := range adjusted {
		line := adjusted[i]
		dateSrc := line.RawDateText
		if dateSrc == "" {
			dateSrc = line.RawRowText
		}
		date := NormalizeDate(dateSrc)
		dr, cr, bal := ExtractAmounts(line.RawRowText, line.RawDrText, line.RawCrText, line.RawBalanceText)
		narrSrc := line.RawNarrationText
		if narrSrc == "" {
			narrSrc = line.RawRowText
		}
		narration := StripLeadingDate(narrSrc)

		switch {
		case date != "":
			closeOpen()
			adjusted[i].LineType = LineTransaction
			open = &pending{
				rawLineIDs: []string{line.ID},
				date:       date,
				narration:  narration,
				dr:         dr,
				cr:         cr,
				bal:        bal,
				pageNo:     line.PageNo,
				rowNo:      line.RowNo,
			}
		case open != nil:
			adjusted[i].LineType = LineTransaction
			open.rawLineIDs = append(open.rawLineIDs, line.ID)
			if narration != "" {
				open.narration = strings.TrimSpace(open.narration + " " + narration)
			}
		default:
			adjusted[i].LineType = LineNonTxn
		}
	}
	closeOpen()
	return adjusted, txns
}

// ApplySpikeDrainFlags tags consecutive pairs where a high-value credit
// is followed by a debit draining most of it.
func ApplySpikeDrainFlags(txns []Transaction, cfg *config.Thresholds) []Transaction {
	if len(txns) < 2 {
		return txns
	}
	out := append([]Transaction(nil), txns...)
	for i := 0; i+1 < len(out); i++ {
		cur := out[i]
		next := out[i+1]
		if cur.Credit >= cfg.HighValueAmount && float64(next.Debit) >= float64(cur.Credit)*cfg.SpikeDrainRatio {
			out[i] = addFlag(out[i], FlagSpikeDrain)
			out[i+1] = addFlag(out[i+1], FlagSpikeDrain)
		}
	}
	return out
}

func addFlag(t Transaction, f Flag) Transaction {
	if t.HasFlag(f) {
		return t
	}
	t.Flags = append(append([]Flag(nil), t.Flags...), f)
	return t
}
