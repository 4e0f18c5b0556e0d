// Package underwriting exposes the underwriting engine and the doubts
// generator over HTTP.
package underwriting

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/doubts"
	"credit_autopilot/pkg/core/pipeline"
	"credit_autopilot/pkg/core/statement"
	coreuw "credit_autopilot/pkg/core/underwriting"
	"credit_autopilot/pkg/logger"
)

var cfg *config.Thresholds

// InitHandler wires the loaded thresholds into the handlers.
func InitHandler(c *config.Thresholds) {
	cfg = c
}

// UnderwriteRequest underwrites pre-normalized transactions.
type UnderwriteRequest struct {
	Transactions []statement.Transaction `json:"transactions"`
	Meta         statement.Meta          `json:"meta"`
	Params       coreuw.Params           `json:"params"`
	Docs         coreuw.Docs             `json:"docs"`
}

// UnderwriteResponse is the engine output plus a run id.
type UnderwriteResponse struct {
	RunID  string         `json:"runId"`
	Result *coreuw.Result `json:"result"`
}

func HandleUnderwrite(w http.ResponseWriter, r *http.Request) {
	setCors(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req UnderwriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID := uuid.NewString()
	log := logger.FromContext(r.Context()).With().Str("run_id", runID).Logger()
	log.Info().Int("transactions", len(req.Transactions)).Msg("underwriting run")

	result, err := coreuw.Run(req.Transactions, req.Params, req.Docs, req.Meta, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, coreuw.ErrNoTransactions) || errors.Is(err, coreuw.ErrNoUsableTransactions) {
			status = http.StatusBadRequest
		}
		log.Warn().Err(err).Msg("underwriting failed")
		http.Error(w, err.Error(), status)
		return
	}
	log.Info().
		Int("score", result.Verdict.Score).
		Str("grade", result.Verdict.RiskGrade).
		Str("risk_fit", result.Verdict.RiskFit).
		Msg("underwriting done")

	writeJSON(w, log, UnderwriteResponse{RunID: runID, Result: result})
}

// PipelineRequest is the full raw-lines-to-doubts run.
type PipelineRequest pipeline.Input

// PipelineResponse wraps the combined pipeline result.
type PipelineResponse struct {
	RunID  string           `json:"runId"`
	Result *pipeline.Result `json:"result"`
}

func HandlePipeline(w http.ResponseWriter, r *http.Request) {
	setCors(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req PipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID := uuid.NewString()
	log := logger.FromContext(r.Context()).With().Str("run_id", runID).Logger()
	log.Info().
		Int("raw_lines", len(req.RawLines)).
		Int("transactions", len(req.Transactions)).
		Msg("pipeline run")

	result, err := pipeline.Run(pipeline.Input(req), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, coreuw.ErrNoTransactions) || errors.Is(err, coreuw.ErrNoUsableTransactions) {
			status = http.StatusBadRequest
		}
		log.Warn().Err(err).Msg("pipeline failed")
		http.Error(w, err.Error(), status)
		return
	}
	log.Info().
		Int("score", result.Underwriting.Verdict.Score).
		Int("doubts", len(result.Doubts)).
		Msg("pipeline done")

	writeJSON(w, log, PipelineResponse{RunID: runID, Result: result})
}

// DoubtsRequest regenerates doubts from a previously computed
// underwriting result, typically after a personal discussion marked some
// codes as covered.
type DoubtsRequest struct {
	Underwriting *coreuw.Result `json:"underwriting"`
	CoveredCodes []string       `json:"coveredCodes,omitempty"`
}

// DoubtsResponse is the sorted doubt list.
type DoubtsResponse struct {
	RunID  string         `json:"runId"`
	Doubts []doubts.Doubt `json:"doubts"`
}

func HandleDoubts(w http.ResponseWriter, r *http.Request) {
	setCors(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req DoubtsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Underwriting == nil {
		http.Error(w, "underwriting result is required", http.StatusBadRequest)
		return
	}

	runID := uuid.NewString()
	log := logger.FromContext(r.Context()).With().Str("run_id", runID).Logger()
	list := doubts.Generate(req.Underwriting, doubts.Options{CoveredCodes: req.CoveredCodes})
	log.Info().Int("doubts", len(list)).Msg("doubts generated")

	writeJSON(w, log, DoubtsResponse{RunID: runID, Doubts: list})
}

func setCors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
