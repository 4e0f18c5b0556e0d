// Package statement exposes the statement autopilot over HTTP.
package statement

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"credit_autopilot/pkg/core/config"
	corestatement "credit_autopilot/pkg/core/statement"
	"credit_autopilot/pkg/logger"
)

var cfg *config.Thresholds

// InitHandler wires the loaded thresholds into the handlers.
func InitHandler(c *config.Thresholds) {
	cfg = c
}

// AutopilotRequest carries raw statement lines plus optional bank meta.
type AutopilotRequest struct {
	RawLines []corestatement.RawLine `json:"rawLines"`
	Meta     corestatement.Meta      `json:"meta"`
}

// AutopilotResponse wraps the engine output with a run id for log
// correlation. The id never influences the result.
type AutopilotResponse struct {
	RunID  string                         `json:"runId"`
	Result *corestatement.AutopilotResult `json:"result"`
}

func HandleAutopilot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req AutopilotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.RawLines) == 0 {
		http.Error(w, "rawLines is required", http.StatusBadRequest)
		return
	}

	runID := uuid.NewString()
	log := logger.FromContext(r.Context()).With().Str("run_id", runID).Logger()
	log.Info().Int("raw_lines", len(req.RawLines)).Msg("statement autopilot run")

	result := corestatement.Run(req.RawLines, req.Meta, cfg)
	log.Info().
		Int("transactions", len(result.Transactions)).
		Str("parse_status", string(result.Reconciliation.Status)).
		Msg("statement autopilot done")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(AutopilotResponse{RunID: runID, Result: result}); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
