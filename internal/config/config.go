// Package config provides configuration loading and structs for the VetaCV server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Generator GeneratorConfig `yaml:"generator"`
	Health    HealthConfig    `yaml:"health"`
	Repair    RepairConfig    `yaml:"repair"`
	Export    ExportConfig    `yaml:"export"`
	Session   SessionConfig   `yaml:"session"`
	Intake    IntakeConfig    `yaml:"intake"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, the artifact directory, and
// the archive search index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	ArtifactsDir     string `yaml:"artifacts_dir"`
	ArchiveIndexPath string `yaml:"archive_index_path"`
}

// GeneratorConfig holds settings for the LLM generation backend.
type GeneratorConfig struct {
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UseMock        bool   `yaml:"use_mock"`
}

// APIKey resolves the generation API key from the configured environment
// variable.
func (g *GeneratorConfig) APIKey() string {
	return os.Getenv(g.APIKeyEnv)
}

// HealthConfig holds the tunable health-scoring thresholds.
type HealthConfig struct {
	WarningSignatures  int `yaml:"warning_signatures"`
	CriticalSignatures int `yaml:"critical_signatures"`
	LongLineLength     int `yaml:"long_line_length"`
	MaxHyphenLines     int `yaml:"max_hyphen_lines"`
}

// RepairConfig holds deployment-specific repair additions.
type RepairConfig struct {
	// Corrections are extra garbled-word rewrites applied after the built-in
	// table. Patterns are compiled at startup; a bad pattern fails startup.
	Corrections []CorrectionRule `yaml:"corrections"`
}

// CorrectionRule is one configured pattern/replacement pair.
type CorrectionRule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// ExportConfig holds export pipeline settings.
type ExportConfig struct {
	// OutcomeHistory is how many recent export outcomes to keep in memory.
	OutcomeHistory int `yaml:"outcome_history"`
}

// SessionConfig holds refinement session settings.
type SessionConfig struct {
	// PersistDebounceMS is the quiet window before a session snapshot is
	// written out.
	PersistDebounceMS int `yaml:"persist_debounce_ms"`
}

// IntakeConfig holds drop-folder settings.
type IntakeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DropDir    string `yaml:"drop_dir"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.ArtifactsDir = expandPath(cfg.Storage.ArtifactsDir, configDir)
	cfg.Storage.ArchiveIndexPath = expandPath(cfg.Storage.ArchiveIndexPath, configDir)
	if cfg.Intake.DropDir != "" {
		cfg.Intake.DropDir = expandPath(cfg.Intake.DropDir, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
