// Package pipeline chains the statement autopilot, the underwriting
// engine, and the doubts generator into one deterministic run.
package pipeline

import (
	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/doubts"
	"credit_autopilot/pkg/core/statement"
	"credit_autopilot/pkg/core/underwriting"
)

// Input is everything a full run consumes. Exactly one of RawLines or
// Transactions must be set: raw lines go through the statement autopilot
// first, pre-normalized transactions skip straight to underwriting.
type Input struct {
	RawLines     []statement.RawLine     `json:"rawLines,omitempty"`
	Transactions []statement.Transaction `json:"transactions,omitempty"`
	Meta         statement.Meta          `json:"meta,omitempty"`
	Params       underwriting.Params     `json:"params"`
	Docs         underwriting.Docs       `json:"docs"`
	CoveredCodes []string                `json:"coveredCodes,omitempty"`
}

// Result is the combined output of a full run. Autopilot is nil when the
// caller supplied pre-normalized transactions.
type Result struct {
	Autopilot    *statement.AutopilotResult `json:"autopilot,omitempty"`
	Underwriting *underwriting.Result       `json:"underwriting"`
	Doubts       []doubts.Doubt             `json:"doubts"`
}

// Run executes the full pipeline. Pure function; errors come only from
// the underwriting engine's input checks.
func Run(in Input, cfg *config.Thresholds) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var autopilot *statement.AutopilotResult
	txns := in.Transactions
	meta := in.Meta
	if len(txns) == 0 && len(in.RawLines) > 0 {
		autopilot = statement.Run(in.RawLines, in.Meta, cfg)
		txns = autopilot.Transactions
		meta = autopilot.Meta
	}

	uw, err := underwriting.Run(txns, in.Params, in.Docs, meta, cfg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Autopilot:    autopilot,
		Underwriting: uw,
		Doubts:       doubts.Generate(uw, doubts.Options{CoveredCodes: in.CoveredCodes}),
	}, nil
}
