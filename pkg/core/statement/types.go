// Package statement turns raw positioned bank-statement text lines into
// normalized transactions, reconciles the mapping, and builds the monthly
// and counterparty rollups consumed by the underwriting engine.
package statement

// LineType tags a raw line after normalization.
type LineType string

const (
	LineTransaction LineType = "TRANSACTION"
	LineNonTxn      LineType = "NON_TXN"
)

// RawLine is one positioned text line as produced by the external
// extractor. The normalizer only ever changes LineType.
type RawLine struct {
	ID               string   `json:"id"`
	PageNo           int      `json:"pageNo"`
	RowNo            int      `json:"rowNo"`
	RawRowText       string   `json:"rawRowText"`
	RawDateText      string   `json:"rawDateText,omitempty"`
	RawNarrationText string   `json:"rawNarrationText,omitempty"`
	RawDrText        string   `json:"rawDrText,omitempty"`
	RawCrText        string   `json:"rawCrText,omitempty"`
	RawBalanceText   string   `json:"rawBalanceText,omitempty"`
	LineType         LineType `json:"rawLineType"`
}

// TxnType is the direction of a normalized transaction.
type TxnType string

const (
	TxnCredit  TxnType = "CREDIT"
	TxnDebit   TxnType = "DEBIT"
	TxnUnknown TxnType = "UNKNOWN"
)

// Category is the single bucket a transaction lands in. The chain is a
// fixed priority order, checked top-down (see Categorize).
type Category string

const (
	CatReturn  Category = "RETURN"
	CatTax     Category = "TAX"
	CatCash    Category = "CASH"
	CatBankFin Category = "BANK_FIN"
	CatPvtFin  Category = "PVT_FIN"
	CatDoubt   Category = "DOUBT"
	CatOddFig  Category = "ODD FIG"
	CatCons    Category = "CONS"
	CatFinal   Category = "FINAL"
)

// Flag markers are independent and non-exclusive.
type Flag string

const (
	FlagPenalty    Flag = "PENALTY"
	FlagBounce     Flag = "BOUNCE"
	FlagHighValue  Flag = "HIGH_VALUE"
	FlagOddFig     Flag = "ODD_FIG"
	FlagSpikeDrain Flag = "SPIKE_DRAIN"
)

// Transaction is one normalized statement entry. A transaction may span
// several raw lines (continuation narration lines). Amounts are whole
// currency units; Balance is nil when the statement row carried none.
type Transaction struct {
	ID           string   `json:"id"`
	RawLineIDs   []string `json:"rawLineIds"`
	Date         string   `json:"date"`  // ISO yyyy-mm-dd
	Month        string   `json:"month"` // date[0:7]
	Narration    string   `json:"narration"`
	Debit        int64    `json:"dr"`
	Credit       int64    `json:"cr"`
	Balance      *int64   `json:"balance"`
	Counterparty string   `json:"counterpartyNorm"`
	Type         TxnType  `json:"txnType"`
	Category     Category `json:"category"`
	Flags        []Flag   `json:"flags"`
	UID          string   `json:"transactionUid"` // content hash, caller-side dedup only
}

// Amount is the larger of debit and credit.
func (t Transaction) Amount() int64 {
	if t.Debit > t.Credit {
		return t.Debit
	}
	return t.Credit
}

// HasFlag reports whether f is set on the transaction.
func (t Transaction) HasFlag(f Flag) bool {
	for _, have := range t.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// ParseStatus gates downstream persistence and export.
type ParseStatus string

const (
	StatusReady       ParseStatus = "READY"
	StatusParseFailed ParseStatus = "PARSE_FAILED"
)

// ContinuityFailure records one balance-chain violation. Soft signal; the
// run continues.
type ContinuityFailure struct {
	Index       int   `json:"index"`
	PrevBalance int64 `json:"prevBalance"`
	Expected    int64 `json:"expected"`
	Actual      int64 `json:"actual"`
	Diff        int64 `json:"diff"`
}

// Reconciliation validates the line-to-transaction mapping. Status is
// PARSE_FAILED iff any transaction-tagged line is unclaimed; that is a
// hard gate for persistence and export.
type Reconciliation struct {
	TotalRawLines      int                 `json:"totalRawLines"`
	TotalTxnLines      int                 `json:"totalTxnLines"`
	NormalizedCount    int                 `json:"normalizedCount"`
	UnmappedLineIDs    []string            `json:"unmappedLineIds"`
	ContinuityFailures []ContinuityFailure `json:"continuityFailures"`
	ParseConfidence    float64             `json:"parseConfidence"`
	Status             ParseStatus         `json:"status"`
}

// MonthlyAggregate is a read-only per-month rollup, recomputed fully on
// each run.
type MonthlyAggregate struct {
	Month           string  `json:"month"`
	CreditCount     int     `json:"creditCount"`
	CreditTotal     int64   `json:"creditTotal"`
	DebitCount      int     `json:"debitCount"`
	DebitTotal      int64   `json:"debitTotal"`
	CashDeposits    int64   `json:"cashDeposits"`
	CashWithdrawals int64   `json:"cashWithdrawals"`
	PenaltyCharges  int     `json:"penaltyCharges"`
	Bounces         int     `json:"bounces"`
	BalanceOn10th   *int64  `json:"balanceOn10th"`
	BalanceOn20th   *int64  `json:"balanceOn20th"`
	BalanceOnLast   *int64  `json:"balanceOnLast"`
	OverdrawnDays   int     `json:"overdrawnDays"`
	VolatilityScore float64 `json:"volatilityScore"`
}

// HeatRow is one ranked counterparty aggregation entry. Credit rows carry
// Dependency; debit rows carry PriorityLevel and Flexi.
type HeatRow struct {
	Counterparty  string  `json:"counterparty"`
	Nature        string  `json:"nature"`
	Freq          int     `json:"freq"`
	AvgAmt        int64   `json:"avgAmt"`
	TotalAmt      int64   `json:"totalAmt"`
	PctOfTotal    float64 `json:"pctOfTotal"`
	Dependency    string  `json:"dependency,omitempty"`
	PriorityLevel string  `json:"priorityLevel,omitempty"`
	Flexi         string  `json:"flexi,omitempty"`
}

// Meta is bank metadata detected from the statement text. It feeds the
// transaction uid, nothing else.
type Meta struct {
	BankName    string `json:"bankName"`
	AccountType string `json:"accountType"`
}

// AutopilotResult is the full statement-side output bundle.
type AutopilotResult struct {
	RawLines          []RawLine                  `json:"rawLines"`
	Transactions      []Transaction              `json:"transactions"`
	MonthlyAggregates []MonthlyAggregate         `json:"monthlyAggregates"`
	CreditHeat        []HeatRow                  `json:"creditHeat"`
	DebitHeat         []HeatRow                  `json:"debitHeat"`
	Reconciliation    Reconciliation             `json:"reconciliation"`
	Categories        map[Category][]Transaction `json:"categories"`
	Meta              Meta                       `json:"meta"`
}
