// Command pipeline runs the full underwriting pipeline once: JSON input
// on stdin or a file, JSON result on stdout. Useful for batch scoring
// and for diffing runs, since identical inputs produce identical bytes.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/joho/godotenv"

	"credit_autopilot/pkg/core/config"
	"credit_autopilot/pkg/core/pipeline"
	"credit_autopilot/pkg/logger"
)

func main() {
	godotenv.Load()
	log := logger.New()

	inPath := flag.String("in", "-", "input JSON path, - for stdin")
	cfgPath := flag.String("config", "config/underwriting.yaml", "thresholds config path")
	pretty := flag.Bool("pretty", false, "indent output JSON")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *cfgPath).Msg("config load failed, using defaults")
		cfg = config.Default()
	}

	var data []byte
	if *inPath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*inPath)
	}
	if err != nil {
		log.Error().Err(err).Msg("read input")
		os.Exit(1)
	}

	var in pipeline.Input
	if err := json.Unmarshal(data, &in); err != nil {
		log.Error().Err(err).Msg("parse input")
		os.Exit(1)
	}

	result, err := pipeline.Run(in, cfg)
	if err != nil {
		log.Error().Err(err).Msg("pipeline run")
		os.Exit(1)
	}
	log.Info().
		Int("score", result.Underwriting.Verdict.Score).
		Str("grade", result.Underwriting.Verdict.RiskGrade).
		Int("doubts", len(result.Doubts)).
		Msg("pipeline done")

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Error().Err(err).Msg("encode result")
		os.Exit(1)
	}
}
