package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/navsync/internal/clients/amfi"
	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/services/navparse"
	"github.com/bobmcallan/navsync/internal/services/pipeline"
	"github.com/bobmcallan/navsync/internal/services/reconcile"
	"github.com/bobmcallan/navsync/internal/services/report"
	"github.com/bobmcallan/navsync/internal/storage"
)

// App holds the initialized storage, upstream client and services.
// It is the shared core behind every cmd/navsync subcommand.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Storage       interfaces.StorageManager
	Fetcher       interfaces.NavFetcher
	Scheduler     *pipeline.Scheduler
	ReportService *report.Service
	StartupTime   time.Time

	watchCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath returns the config file to load: the given path, then
// NAVSYNC_CONFIG, then navsync.toml next to the binary, then config/navsync.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("NAVSYNC_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "navsync.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/navsync.toml" // fallback for development
		}
	}
	return configPath
}

// LoadConfig resolves, loads and validates the configuration.
func LoadConfig(configPath string) (*common.Config, error) {
	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}
	return config, nil
}

// NewApp loads configuration and initializes everything a command needs.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig initializes the app from an already loaded configuration.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	loc, err := config.Schedule.Location()
	if err != nil {
		return nil, err
	}

	// Initialize storage
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	fetcher := NewFetcher(config.AMFI, logger)

	var parserOpts []navparse.Option
	parserOpts = append(parserOpts, navparse.WithLogger(logger))
	if d := []rune(config.AMFI.Delimiter); len(d) == 1 {
		parserOpts = append(parserOpts, navparse.WithDelimiter(d[0]))
	} else if config.AMFI.Delimiter == `\t` {
		parserOpts = append(parserOpts, navparse.WithDelimiter('\t'))
	}

	scheduler := pipeline.NewScheduler(
		fetcher,
		navparse.NewParser(parserOpts...),
		reconcile.NewReconciler(logger),
		storageManager.SchemeStore(),
		storageManager.MovementStore(),
		pipeline.WithLocation(loc),
		pipeline.WithRunStore(storageManager.RunStore()),
		pipeline.WithLogger(logger),
	)

	a := &App{
		Config:        config,
		Logger:        logger,
		Storage:       storageManager,
		Fetcher:       fetcher,
		Scheduler:     scheduler,
		ReportService: report.NewService(storageManager.MovementStore(), logger),
		StartupTime:   startupStart,
	}

	logger.Debug().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// NewFetcher builds the AMFI client from configuration.
func NewFetcher(cfg common.AMFIConfig, logger *common.Logger) *amfi.Client {
	return amfi.NewClient(
		amfi.Endpoint{Template: cfg.URLTemplate, DateLayout: cfg.DateLayout},
		amfi.WithLogger(logger),
		amfi.WithTimeout(cfg.GetTimeout()),
		amfi.WithRetry(cfg.GetAttempts(), cfg.GetRetryDelay()),
		amfi.WithRateLimit(cfg.RateLimit),
		amfi.WithUserAgent(cfg.UserAgent),
	)
}

// Close releases all resources held by the App.
// Shutdown order: stop watch loop, close storage.
func (a *App) Close() {
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
