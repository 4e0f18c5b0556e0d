package statement

import (
	"strings"

	"credit_autopilot/pkg/core/config"
)

// Run executes the full statement autopilot: normalization, spike-drain
// tagging, reconciliation, rollups, and category buckets. Pure function;
// identical inputs produce identical results.
func Run(rawLines []RawLine, meta Meta, cfg *config.Thresholds) *AutopilotResult {
	if cfg == nil {
		cfg = config.Default()
	}
	if meta == (Meta{}) {
		var b strings.Builder
		for _, l := range rawLines {
			b.WriteString(l.RawRowText)
			b.WriteByte('\n')
		}
		meta = DetectBankMeta(b.String())
	}

	adjusted, txns := NormalizeLines(rawLines, meta, cfg)
	txns = ApplySpikeDrainFlags(txns, cfg)

	categories := make(map[Category][]Transaction)
	for _, t := range txns {
		categories[t.Category] = append(categories[t.Category], t)
	}

	return &AutopilotResult{
		RawLines:          adjusted,
		Transactions:      txns,
		MonthlyAggregates: BuildMonthlyAggregates(txns),
		CreditHeat:        BuildHeatMap(txns, TxnCredit),
		DebitHeat:         BuildHeatMap(txns, TxnDebit),
		Reconciliation:    Reconcile(adjusted, txns, cfg.BalanceTolerance),
		Categories:        categories,
		Meta:              meta,
	}
}
