package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	apistatement "credit_autopilot/pkg/api/statement"
	apiunderwriting "credit_autopilot/pkg/api/underwriting"
	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/logger"
)

func main() {
	godotenv.Load()
	log := logger.New()

	cfgPath := os.Getenv("UNDERWRITING_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/underwriting.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("config load failed, using defaults")
		cfg = config.Default()
	} else {
		log.Info().Str("path", cfgPath).Msg("thresholds loaded")
	}

	apistatement.InitHandler(cfg)
	apiunderwriting.InitHandler(cfg)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(logger.WithContext(req.Context(), log)))
		})
	})
	r.HandleFunc("/api/statement/autopilot", apistatement.HandleAutopilot).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/underwriting/run", apiunderwriting.HandleUnderwrite).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/underwriting/pipeline", apiunderwriting.HandlePipeline).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/underwriting/doubts", apiunderwriting.HandleDoubts).Methods(http.MethodPost, http.MethodOptions)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Info().Str("addr", addr).Msg("API server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
