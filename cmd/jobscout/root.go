package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jobscout/internal/config"
	"jobscout/internal/logger"
	"jobscout/internal/model"
	"jobscout/internal/notifier"
	"jobscout/internal/scraper"
	"jobscout/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Job scout — find and score development-sector roles",
	Long:  "Jobscout scrapes development-sector job boards, scores postings against your profile with Gemini, and surfaces the matches.",
	// Default to `run` so that `jobscout` with no args runs one full cycle.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(cfg *config.Config, dbg bool) *slog.Logger {
	opts := logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if dbg {
		opts.Level = "debug"
	}
	return logger.New(os.Stdout, opts)
}

func setupNotifier(cfg *config.Config, log *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		log.Info("using slack notifier")
		httpClient := &http.Client{Timeout: 30 * time.Second}
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, log)
	default:
		return notifier.NewLogNotifier(log)
	}
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Database.Path)
}

func buildRegistry(cfg *config.Config, log *slog.Logger) *scraper.Registry {
	global, overrides := cfg.RegistrySettings()
	return scraper.NewRegistry(global, overrides, cfg.Scrapers.Enabled, log)
}
