// Package pipeline runs the full jobscout workflow: scrape enabled sources,
// persist new postings, score the unprocessed backlog, record results, and
// notify matches. One Run is one cycle; steps are sequential and a failing
// adapter degrades the run instead of aborting it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jobscout/internal/config"
	"jobscout/internal/match"
	"jobscout/internal/model"
	"jobscout/internal/store"
)

// Store is the slice of the job store the pipeline needs.
type Store interface {
	InsertJobs(jobs []model.Job) (int, error)
	ListUnprocessed(source string, limit int) ([]model.Job, error)
	SaveMatchResult(res model.MatchResult) error
	MarkProcessed(job model.Job, score float64, opts store.ProcessOptions) error
	Cleanup(retentionDays int) (int64, error)
}

// SourceProvider yields the enabled source adapters for this run.
type SourceProvider interface {
	Enabled() []model.Source
}

// Options toggles individual pipeline steps.
type Options struct {
	SkipScraping bool
	SkipMatching bool
	DryRun       bool // run everything except outward notification
}

// RunStats summarizes one pipeline cycle.
type RunStats struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	JobsScraped int
	NewJobs     int
	Evaluated   int
	Ineligible  int
	Matched     int
	Notified    bool
	Deleted     int64
	Warnings    []string
}

// Runner wires the pipeline's collaborators together.
type Runner struct {
	sources  SourceProvider
	store    Store
	matcher  model.Matcher
	notifier model.Notifier
	cfg      *config.Config
	logger   *slog.Logger
}

func NewRunner(sources SourceProvider, st Store, matcher model.Matcher, notifier model.Notifier, cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		sources:  sources,
		store:    st,
		matcher:  matcher,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one full cycle. It always returns stats; the error is non-nil
// only when a step the run cannot continue without fails. Adapter failures,
// notification failures, and cleanup failures are recorded as warnings.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunStats, error) {
	stats := &RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := r.logger.With("run_id", stats.RunID)
	log.Info("starting pipeline run")

	if !opts.SkipScraping {
		r.scrape(ctx, stats, log)
	} else {
		log.Info("skipping scraping step")
	}

	var matches []model.Match
	if !opts.SkipMatching {
		var err error
		matches, err = r.matchBacklog(ctx, stats, log)
		if err != nil {
			stats.CompletedAt = time.Now()
			return stats, err
		}
	} else {
		log.Info("skipping matching step")
	}

	if len(matches) > 0 && !opts.DryRun {
		if err := r.notifier.Notify(matches); err != nil {
			r.warn(stats, log, fmt.Sprintf("notification failed: %v", err))
		} else {
			stats.Notified = true
		}
	} else if opts.DryRun && len(matches) > 0 {
		log.Info("dry run, skipping notification", "matches", len(matches))
	}

	deleted, err := r.store.Cleanup(r.cfg.Database.RetentionDays)
	if err != nil {
		r.warn(stats, log, fmt.Sprintf("cleanup failed: %v", err))
	} else {
		stats.Deleted = deleted
	}

	stats.CompletedAt = time.Now()
	log.Info("pipeline run complete",
		"scraped", stats.JobsScraped,
		"new", stats.NewJobs,
		"evaluated", stats.Evaluated,
		"matched", stats.Matched,
		"notified", stats.Notified,
		"deleted", stats.Deleted,
		"warnings", len(stats.Warnings),
		"duration", stats.CompletedAt.Sub(stats.StartedAt).Round(time.Millisecond),
	)
	return stats, nil
}

// scrape runs every enabled adapter in turn. A failing or panicking adapter
// contributes a warning and whatever partial results it returned.
func (r *Runner) scrape(ctx context.Context, stats *RunStats, log *slog.Logger) {
	keywords := r.cfg.JobSearch.Keywords
	maxPages := r.cfg.JobSearch.MaxPages

	var all []model.Job
	for _, src := range r.sources.Enabled() {
		log.Info("scraping source", "source", src.Name())
		jobs, err := r.scrapeSource(ctx, src, keywords, maxPages)
		if err != nil {
			r.warn(stats, log, fmt.Sprintf("scraping %s: %v", src.Name(), err))
		}
		log.Info("source scraped", "source", src.Name(), "jobs", len(jobs))
		all = append(all, jobs...)
	}
	stats.JobsScraped = len(all)

	added, err := r.store.InsertJobs(all)
	if err != nil {
		r.warn(stats, log, fmt.Sprintf("persisting jobs: %v", err))
		return
	}
	stats.NewJobs = added
	log.Info("jobs persisted", "scraped", len(all), "new", added)
}

func (r *Runner) scrapeSource(ctx context.Context, src model.Source, keywords []string, maxPages int) (jobs []model.Job, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("adapter panicked: %v", rec)
		}
	}()
	return src.Scrape(ctx, keywords, maxPages)
}

// matchBacklog scores the unprocessed backlog and records the results.
// Only jobs that cleared the threshold are marked processed; the rest stay
// in the backlog and are re-scored on a later run.
func (r *Runner) matchBacklog(ctx context.Context, stats *RunStats, log *slog.Logger) ([]model.Match, error) {
	backlog, err := r.store.ListUnprocessed("", r.cfg.JobSearch.MaxJobsPerRun)
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed jobs: %w", err)
	}
	log.Info("matching backlog", "jobs", len(backlog))
	if len(backlog) == 0 {
		return nil, nil
	}

	matches, counts := r.matcher.MatchJobs(ctx, backlog, r.cfg.Profile, true)
	stats.Evaluated = counts.Evaluated
	stats.Ineligible = counts.Ineligible
	stats.Matched = counts.Matched

	for _, m := range matches {
		if err := r.store.SaveMatchResult(match.ToMatchResult(m.Job, m.Score)); err != nil {
			r.warn(stats, log, fmt.Sprintf("saving match result for %s: %v", m.Job.JobID, err))
			continue
		}
		if err := r.store.MarkProcessed(m.Job, m.Score.Overall, store.ProcessOptions{}); err != nil {
			r.warn(stats, log, fmt.Sprintf("marking %s processed: %v", m.Job.JobID, err))
		}
	}
	return matches, nil
}

func (r *Runner) warn(stats *RunStats, log *slog.Logger, msg string) {
	log.Warn(msg)
	stats.Warnings = append(stats.Warnings, msg)
}
