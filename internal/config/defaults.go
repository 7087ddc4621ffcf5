package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/vetacv/data/db/vetacv.db"
	}
	if cfg.Storage.ArtifactsDir == "" {
		cfg.Storage.ArtifactsDir = "/usr/local/var/vetacv/data/artifacts"
	}
	if cfg.Storage.ArchiveIndexPath == "" {
		cfg.Storage.ArchiveIndexPath = "/usr/local/var/vetacv/data/indices/archive.bleve"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-2.0-flash"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Generator.TimeoutSeconds == 0 {
		cfg.Generator.TimeoutSeconds = 60
	}
	if cfg.Health.WarningSignatures == 0 {
		cfg.Health.WarningSignatures = 1
	}
	if cfg.Health.CriticalSignatures == 0 {
		cfg.Health.CriticalSignatures = 3
	}
	if cfg.Health.LongLineLength == 0 {
		cfg.Health.LongLineLength = 50
	}
	if cfg.Health.MaxHyphenLines == 0 {
		cfg.Health.MaxHyphenLines = 2
	}
	if cfg.Export.OutcomeHistory == 0 {
		cfg.Export.OutcomeHistory = 10
	}
	if cfg.Session.PersistDebounceMS == 0 {
		cfg.Session.PersistDebounceMS = 2000
	}
	if cfg.Intake.DebounceMS == 0 {
		cfg.Intake.DebounceMS = 400
	}
	if cfg.Intake.Enabled && cfg.Intake.DropDir == "" {
		cfg.Intake.DropDir = "/usr/local/var/vetacv/drop"
	}
}
