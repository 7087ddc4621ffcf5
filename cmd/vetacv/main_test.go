package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Jamesybdp/VetaCV-AI/internal/config"
)

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9100
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved = %s, want %s", resolved, path)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadConfig_missingFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestBuildRepairer_configuredCorrections(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Repair.Corrections = []config.CorrectionRule{
		{Pattern: `Finanical`, Replacement: "Financial"},
	}
	r, err := buildRepairer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res := r.Repair("<p>Finanical Analyst with experience.</p>")
	if got := res.InnerHTML; got != "<p>Financial Analyst with experience.</p>" {
		t.Errorf("got %q", got)
	}
}

func TestBuildRepairer_badPattern(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Repair.Corrections = []config.CorrectionRule{
		{Pattern: `([`, Replacement: "x"},
	}
	if _, err := buildRepairer(cfg); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestBuildScorer_usesConfiguredThresholds(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Health.CriticalSignatures = 1

	s := buildScorer(cfg)
	// Two corruption signatures exceed the lowered critical threshold.
	verdict := s.Score("xAxA text xAxA")
	if !verdict.Critical() {
		t.Errorf("verdict = %+v, want critical", verdict)
	}
}
