package scraper

import (
	"errors"
	"log/slog"
	"time"

	"jobscout/internal/model"
)

// factory builds one adapter from its merged settings.
type factory func(s Settings, logger *slog.Logger) model.Source

// factories is the static name→constructor map. Adding a source means adding
// an entry here and a config stanza; nothing else changes.
var factories = map[string]factory{
	"reliefweb": func(s Settings, l *slog.Logger) model.Source { return NewReliefWeb(s, l) },
	"jsearch":   func(s Settings, l *slog.Logger) model.Source { return NewJSearch(s, l) },
	"unjobs":    func(s Settings, l *slog.Logger) model.Source { return NewUNJobs(s, l) },
	"devex":     func(s Settings, l *slog.Logger) model.Source { return NewDevex(s, l) },
}

// GlobalSettings are the scraper defaults shared by every adapter unless a
// source-specific override says otherwise.
type GlobalSettings struct {
	RateLimit       time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RotateUserAgent bool
}

// SourceOverrides carries per-source configuration merged over the globals.
type SourceOverrides struct {
	BaseURL   string
	APIKey    string
	RateLimit time.Duration // zero keeps the global value
}

// Registry maps enabled source names to configured adapter instances and
// owns their lifecycle. Instances are cached for the registry's lifetime and
// released on Close; use defer to guarantee teardown on all exit paths.
type Registry struct {
	global    GlobalSettings
	overrides map[string]SourceOverrides
	enabled   []string
	cache     map[string]model.Source
	logger    *slog.Logger
}

// NewRegistry creates a registry over the given configuration.
func NewRegistry(global GlobalSettings, overrides map[string]SourceOverrides, enabled []string, logger *slog.Logger) *Registry {
	return &Registry{
		global:    global,
		overrides: overrides,
		enabled:   enabled,
		cache:     make(map[string]model.Source),
		logger:    logger,
	}
}

// Create looks up the adapter constructor for name, merges global settings
// with source-specific overrides, and instantiates. Returns nil for unknown
// names (logged, non-fatal). Instances are cached per registry lifetime.
func (r *Registry) Create(name string) model.Source {
	if src, ok := r.cache[name]; ok {
		return src
	}

	build, ok := factories[name]
	if !ok {
		r.logger.Warn("unknown source, skipping", "source", name)
		return nil
	}

	settings := Settings{
		Name:            name,
		RateLimit:       r.global.RateLimit,
		Timeout:         r.global.Timeout,
		MaxRetries:      r.global.MaxRetries,
		RotateUserAgent: r.global.RotateUserAgent,
	}
	if ov, ok := r.overrides[name]; ok {
		settings.BaseURL = ov.BaseURL
		settings.APIKey = ov.APIKey
		if ov.RateLimit > 0 {
			settings.RateLimit = ov.RateLimit
		}
	}

	src := build(settings, r.logger)
	r.cache[name] = src
	r.logger.Debug("created source adapter", "source", name)
	return src
}

// Enabled returns one adapter instance per enabled source name, skipping
// unknown names.
func (r *Registry) Enabled() []model.Source {
	sources := make([]model.Source, 0, len(r.enabled))
	for _, name := range r.enabled {
		if src := r.Create(name); src != nil {
			sources = append(sources, src)
		}
	}
	r.logger.Info("loaded enabled sources", "count", len(sources))
	return sources
}

// Close releases every cached adapter. Errors are joined, not short-circuited,
// so one failing teardown does not leak the rest.
func (r *Registry) Close() error {
	var errs []error
	for name, src := range r.cache {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.cache, name)
	}
	return errors.Join(errs...)
}
