package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.HighValueAmount != 500_000 {
		t.Errorf("HighValueAmount = %d", cfg.HighValueAmount)
	}
	if cfg.SpikeDrainRatio != 0.7 {
		t.Errorf("SpikeDrainRatio = %f", cfg.SpikeDrainRatio)
	}
	if cfg.VolatilityLowCV != 0.35 || cfg.VolatilityHighCV != 0.75 {
		t.Errorf("volatility bands = %f/%f", cfg.VolatilityLowCV, cfg.VolatilityHighCV)
	}
	if cfg.BaseAPR != 30 || cfg.MinAPR != 18 || cfg.MaxAPR != 72 {
		t.Errorf("APR bounds = %f/%f/%f", cfg.BaseAPR, cfg.MinAPR, cfg.MaxAPR)
	}
	if cfg.RequestedExposureMin != 5_000_000 || cfg.RequestedExposureMax != 100_000_000 {
		t.Errorf("exposure bounds = %d/%d", cfg.RequestedExposureMin, cfg.RequestedExposureMax)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.HighValueAmount != Default().HighValueAmount {
		t.Errorf("expected defaults, got HighValueAmount=%d", cfg.HighValueAmount)
	}
}

func TestLoadYamlOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	body := "high_value_amount: 750000\nspike_drain_ratio: 0.6\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HighValueAmount != 750_000 {
		t.Errorf("override not applied: %d", cfg.HighValueAmount)
	}
	if cfg.SpikeDrainRatio != 0.6 {
		t.Errorf("override not applied: %f", cfg.SpikeDrainRatio)
	}
	// Untouched keys keep defaults.
	if cfg.OddFigureFloor != 1_000_000 {
		t.Errorf("default lost: %d", cfg.OddFigureFloor)
	}
}

func TestLoadHjsonOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.hjson")
	body := `{
  // comments are allowed here
  low_balance_floor: 30000
  weekly_gap_hits_min: 5
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LowBalanceFloor != 30_000 {
		t.Errorf("hjson override not applied: %d", cfg.LowBalanceFloor)
	}
	if cfg.WeeklyGapHitsMin != 5 {
		t.Errorf("hjson override not applied: %d", cfg.WeeklyGapHitsMin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/thresholds.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
