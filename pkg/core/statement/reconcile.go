package statement

import "sort"

// Reconcile validates the line-to-transaction mapping and walks the
// balance chain. Unmapped transaction-tagged lines force PARSE_FAILED;
// continuity failures are recorded without failing the run.
func Reconcile(rawLines []RawLine, txns []Transaction, tolerance int64) Reconciliation {
	claimed := make(map[string]bool)
	for _, t := range txns {
		for _, id := range t.RawLineIDs {
			claimed[id] = true
		}
	}

	txnLines := 0
	var unmapped []string
	for _, l := range rawLines {
		if l.LineType != LineTransaction {
			continue
		}
		txnLines++
		if !claimed[l.ID] {
			unmapped = append(unmapped, l.ID)
		}
	}

	// Balance continuity is checked in date order. Statements normally
	// arrive date-sorted already; the stable sort keeps intra-day order.
	ordered := append([]Transaction(nil), txns...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	var failures []ContinuityFailure
	var prevBalance *int64
	for idx, tx := range ordered {
		if tx.Balance != nil && prevBalance != nil {
			expected := *prevBalance + tx.Credit - tx.Debit
			diff := *tx.Balance - expected
			if diff < 0 {
				diff = -diff
			}
			if diff > tolerance {
				failures = append(failures, ContinuityFailure{
					Index:       idx,
					PrevBalance: *prevBalance,
					Expected:    expected,
					Actual:      *tx.Balance,
					Diff:        diff,
				})
			}
		}
		if tx.Balance != nil {
			prevBalance = tx.Balance
		}
	}

	confidence := 0.0
	if txnLines > 0 {
		confidence = float64(txnLines-len(unmapped)) / float64(txnLines)
	}
	status := StatusReady
	if len(unmapped) > 0 {
		status = StatusParseFailed
	}
	return Reconciliation{
		TotalRawLines:      len(rawLines),
		TotalTxnLines:      txnLines,
		NormalizedCount:    len(txns),
		UnmappedLineIDs:    unmapped,
		ContinuityFailures: failures,
		ParseConfidence:    confidence,
		Status:             status,
	}
}
