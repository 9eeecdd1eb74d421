package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jobscout/internal/match"
	"jobscout/internal/model"
	"jobscout/internal/pipeline"
)

var (
	skipScraping bool
	skipMatching bool
	dryRun       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scrape-and-match cycle",
	Long:  "Scrape enabled job boards, persist new postings, score the backlog against your profile, and notify matches.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&skipScraping, "skip-scraping", false, "skip the scraping step, only score the existing backlog")
	runCmd.Flags().BoolVar(&skipMatching, "skip-matching", false, "skip the scoring step, only collect new postings")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run everything except outward notification")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := setupLogger(cfg, debug)

	st, err := openStore(cfg)
	if err != nil {
		log.Error("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	registry := buildRegistry(cfg, log)
	defer registry.Close()

	var matcher model.Matcher
	if !skipMatching {
		if cfg.Gemini.APIKey == "" {
			return errors.New("gemini.api_key is required unless --skip-matching is set")
		}
		oracle, err := match.NewGemini(cmd.Context(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Temperature)
		if err != nil {
			return fmt.Errorf("init gemini: %w", err)
		}
		matcher = match.NewMatcher(oracle, cfg.JobSearch.MatchThreshold, log)
	}

	runner := pipeline.NewRunner(registry, st, matcher, setupNotifier(cfg, log), cfg, log)
	stats, err := runner.Run(cmd.Context(), pipeline.Options{
		SkipScraping: skipScraping,
		SkipMatching: skipMatching,
		DryRun:       dryRun,
	})
	if err != nil {
		log.Error("pipeline run failed", "error", err)
		return err
	}

	if len(stats.Warnings) > 0 {
		log.Warn("run finished with warnings", "count", len(stats.Warnings))
	}
	return nil
}
