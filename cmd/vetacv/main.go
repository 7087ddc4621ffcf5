// Package main is the VetaCV CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/archive"
	"github.com/Jamesybdp/VetaCV-AI/internal/config"
	"github.com/Jamesybdp/VetaCV-AI/internal/export"
	"github.com/Jamesybdp/VetaCV-AI/internal/generate"
	"github.com/Jamesybdp/VetaCV-AI/internal/health"
	"github.com/Jamesybdp/VetaCV-AI/internal/intake"
	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/internal/refine"
	"github.com/Jamesybdp/VetaCV-AI/internal/repair"
	"github.com/Jamesybdp/VetaCV-AI/internal/server"
	"github.com/Jamesybdp/VetaCV-AI/internal/storage"
	"github.com/Jamesybdp/VetaCV-AI/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/vetacv/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "vetacv server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "repair":
		runRepair()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("vetacv version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (export phases, intake events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var intakeWatcher *intake.Watcher
	intakeCtx, intakeCancel := context.WithCancel(context.Background())
	defer intakeCancel()
	if cfg.Intake.Enabled {
		refiner := components.Refiner
		repairer := components.Repairer
		handler := func(path, text string) {
			// Dropped files become raw draft sessions the user can pick up
			// and refine; no generation call happens at intake time.
			res := repairer.Repair(text)
			state := models.NewDocumentState(res.InnerHTML, utils.FirstNonEmptyLine(text))
			sessionID := uuid.NewString()
			refiner.CreateSession(sessionID, state, models.RefinementContext{})
			logger.Info("drop folder draft created",
				zap.String("path", path),
				zap.String("session", sessionID))
		}
		opts := []intake.Option{
			intake.WithDebounce(time.Duration(cfg.Intake.DebounceMS) * time.Millisecond),
		}
		if debugMode {
			opts = append(opts, intake.WithLogger(logger))
		}
		intakeWatcher = intake.NewWatcher(cfg.Intake.DropDir, handler, opts...)
		if err := intakeWatcher.Start(intakeCtx); err != nil {
			logger.Fatal("Failed to start intake watcher", zap.Error(err))
		}
		intakeWatcher.SyncExisting()
	}

	srv := server.NewServer(
		components.Refiner,
		components.Generator,
		components.Exporter,
		components.Repairer,
		components.Scorer,
		components.Storage,
		components.Archive,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if intakeWatcher != nil {
		intakeWatcher.Stop()
	}
	intakeCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runRepair() {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: vetacv repair [flags] <markup-file>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	repairer := repair.New()
	scorer := health.NewScorer(nil)
	if cfg, _, err := loadConfig(*configPath); err == nil {
		if repairer, err = buildRepairer(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Bad correction rule: %v\n", err)
			os.Exit(1)
		}
		scorer = buildScorer(cfg)
	}

	result := repairer.Repair(string(data))
	verdict := scorer.Score(result.InnerHTML)

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{"result": result, "health": verdict})
	case "text":
		fmt.Printf("fixes_applied:  %d\n", result.FixesApplied)
		fmt.Printf("health:         %s (%d signatures)\n", verdict.Level, verdict.Signatures)
		for _, w := range result.Warnings {
			fmt.Printf("warning:        %s\n", w)
		}
		for _, a := range verdict.Anomalies {
			fmt.Printf("anomaly:        %s\n", a)
		}
		fmt.Println()
		fmt.Println(result.InnerHTML)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", ".", "directory to write the artifact to")
	name := fs.String("name", "cv", "artifact base name")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: vetacv export [flags] <markup-file>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	opts := []export.Option{}
	if cfg, _, cfgErr := loadConfig(*configPath); cfgErr == nil {
		repairer, rErr := buildRepairer(cfg)
		if rErr != nil {
			fmt.Fprintf(os.Stderr, "Bad correction rule: %v\n", rErr)
			os.Exit(1)
		}
		opts = append(opts,
			export.WithRepairer(repairer),
			export.WithScorer(buildScorer(cfg)),
			export.WithOutcomeHistory(cfg.Export.OutcomeHistory),
		)
		if cfg.Debug {
			if l, lErr := utils.NewLogger(true); lErr == nil {
				logger = l
				opts = append(opts, export.WithLogger(l))
			}
		}
	}

	renderer := export.NewChromiumRenderer(logger)
	defer renderer.Close()
	orch := export.NewOrchestrator(renderer, opts...)

	state := models.NewDocumentState(string(data), "")
	res, err := orch.Export(context.Background(), state, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	path, err := storage.WriteArtifact(*outDir, res.Artifact.FileName, res.Artifact.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write artifact: %v\n", err)
		os.Exit(1)
	}
	if res.Outcome.Degraded {
		fmt.Printf("Exported with degraded fidelity (%s): %s\n", res.Artifact.Kind, path)
		if res.Outcome.Reason != "" {
			fmt.Printf("Reason: %s\n", res.Outcome.Reason)
		}
		return
	}
	fmt.Printf("Exported: %s\n", path)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents        int64                  `json:"documents"`
	Sessions         int64                  `json:"sessions"`
	IndexedDocuments uint64                 `json:"indexed_documents,omitempty"`
	DiskUsageBytes   *int64                 `json:"disk_usage_bytes,omitempty"`
	RecentOutcomes   []models.ExportOutcome `json:"recent_outcomes,omitempty"`
	Config           map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:          %d   # archived documents\n", status.Documents)
		fmt.Printf("sessions:           %d   # persisted session snapshots\n", status.Sessions)
		if status.IndexedDocuments > 0 {
			fmt.Printf("indexed_documents:  %d\n", status.IndexedDocuments)
		}
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d\n", *status.DiskUsageBytes)
		}
		if n := len(status.RecentOutcomes); n > 0 {
			degraded := 0
			for _, o := range status.RecentOutcomes {
				if o.Degraded {
					degraded++
				}
			}
			fmt.Printf("recent_exports:     %d (%d degraded)\n", n, degraded)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Archive   *archive.Index
	Generator generate.Generator
	Refiner   *refine.Service
	Repairer  *repair.Repairer
	Scorer    *health.Scorer
	Renderer  *export.ChromiumRenderer
	Exporter  *export.Orchestrator
}

func (c *Components) Close() {
	if c.Refiner != nil {
		c.Refiner.Flush()
	}
	if c.Renderer != nil {
		_ = c.Renderer.Close()
	}
	if c.Archive != nil {
		_ = c.Archive.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// buildRepairer compiles configured correction rules on top of the defaults.
func buildRepairer(cfg *config.Config) (*repair.Repairer, error) {
	extra := make([]repair.Correction, 0, len(cfg.Repair.Corrections))
	for _, rule := range cfg.Repair.Corrections {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("correction %q: %w", rule.Pattern, err)
		}
		extra = append(extra, repair.Correction{Pattern: re, Replacement: rule.Replacement})
	}
	return repair.New(repair.WithCorrections(extra)), nil
}

func buildScorer(cfg *config.Config) *health.Scorer {
	return health.NewScorer(&health.Thresholds{
		WarningSignatures:  cfg.Health.WarningSignatures,
		CriticalSignatures: cfg.Health.CriticalSignatures,
		LongLineLength:     cfg.Health.LongLineLength,
		MaxHyphenLines:     cfg.Health.MaxHyphenLines,
	})
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	idx, err := archive.NewIndex(cfg.Storage.ArchiveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize archive index: %w", err)
	}

	var gen generate.Generator
	apiKey := cfg.Generator.APIKey()
	switch {
	case cfg.Generator.UseMock:
		logger.Info("using mock generator (configured)")
		gen = generate.NewMockGenerator()
	case apiKey == "":
		logger.Warn("no API key found, using mock generator",
			zap.String("env", cfg.Generator.APIKeyEnv))
		gen = generate.NewMockGenerator()
	default:
		gemini, genErr := generate.NewGeminiGenerator(context.Background(), apiKey, cfg.Generator.Model, logger)
		if genErr != nil {
			_ = idx.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize generator: %w", genErr)
		}
		gen = gemini
	}

	repairer, err := buildRepairer(cfg)
	if err != nil {
		_ = idx.Close()
		_ = store.Close()
		return nil, err
	}
	scorer := buildScorer(cfg)

	refiner := refine.NewService(gen,
		refine.WithLogger(logger),
		refine.WithTimeout(time.Duration(cfg.Generator.TimeoutSeconds)*time.Second),
		refine.WithPersistDebounce(time.Duration(cfg.Session.PersistDebounceMS)*time.Millisecond),
		refine.WithSnapshotStore(store),
	)

	renderer := export.NewChromiumRenderer(logger)
	exporter := export.NewOrchestrator(renderer,
		export.WithLogger(logger),
		export.WithRepairer(repairer),
		export.WithScorer(scorer),
		export.WithOutcomeHistory(cfg.Export.OutcomeHistory),
	)

	return &Components{
		Storage:   store,
		Archive:   idx,
		Generator: gen,
		Refiner:   refiner,
		Repairer:  repairer,
		Scorer:    scorer,
		Renderer:  renderer,
		Exporter:  exporter,
	}, nil
}

func printUsage() {
	fmt.Println(`vetacv - CV drafting, refinement, and export service

Usage:
  vetacv server [flags]           Start the HTTP server
  vetacv repair [flags] <file>    Repair and score a markup file
  vetacv export [flags] <file>    Export a markup file to PDF (with fallbacks)
  vetacv status [flags]           Show server status
  vetacv version                  Show version
  vetacv help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/vetacv/config.yaml)
  --debug            Enable debug logging (export phases, intake events, etc.)

Repair Flags:
  --config string    Config file path (for extra correction rules and thresholds)
  --output string    Output format: text or json (default: text)

Export Flags:
  --config string    Config file path
  --out string       Directory to write the artifact to (default: .)
  --name string      Artifact base name (default: cv)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  vetacv server
  vetacv repair draft.html
  vetacv repair --output json draft.html
  vetacv export --out ./artifacts --name jane_cv draft.html
  vetacv status`)
}
