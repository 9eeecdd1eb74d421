package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"jobscout/internal/model"
	"jobscout/internal/scraper"
)

// Config is the root configuration for a jobscout run.
type Config struct {
	JobSearch    JobSearchConfig
	Scrapers     ScrapersConfig
	Gemini       GeminiConfig
	Database     DatabaseConfig
	Profile      model.Profile
	Notification NotificationConfig
	Logging      LoggingConfig
}

// JobSearchConfig controls what is searched for and how much of it is scored.
type JobSearchConfig struct {
	Keywords       []string
	MaxPages       int
	MatchThreshold float64
	MaxJobsPerRun  int // cap on unprocessed jobs handed to the matcher per run
}

// ScrapersConfig controls the source adapters and their shared fetch budget.
type ScrapersConfig struct {
	Enabled         []string
	RateLimit       time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RotateUserAgent bool
	Sources         map[string]SourceConfig
}

// SourceConfig holds per-source overrides, keyed by adapter name.
type SourceConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	RateLimit string `yaml:"rate_limit"`
}

// GeminiConfig controls the scoring oracle.
type GeminiConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"` // expanded from env var by Load
	Temperature float32 `yaml:"temperature"`
}

// DatabaseConfig controls the sqlite store.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// LoggingConfig controls handler selection and verbosity.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "console" or "json"
}

const (
	defaultMaxPages       = 3
	defaultMatchThreshold = 70
	defaultMaxJobsPerRun  = 50
	defaultRetentionDays  = 90
	defaultDatabasePath   = "data/jobs.db"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	JobSearch    rawJobSearchConfig `yaml:"job_search"`
	Scrapers     rawScrapersConfig  `yaml:"scrapers"`
	Gemini       GeminiConfig       `yaml:"gemini"`
	Database     DatabaseConfig     `yaml:"database"`
	Profile      rawProfileConfig   `yaml:"profile"`
	Notification NotificationConfig `yaml:"notification"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type rawJobSearchConfig struct {
	Keywords       []string `yaml:"keywords"`
	MaxPages       int      `yaml:"max_pages"`
	MatchThreshold float64  `yaml:"match_threshold"`
	MaxJobsPerRun  int      `yaml:"max_jobs_per_run"`
}

type rawScrapersConfig struct {
	Enabled         []string                `yaml:"enabled"`
	RateLimit       string                  `yaml:"rate_limit"`
	Timeout         string                  `yaml:"timeout"`
	MaxRetries      int                     `yaml:"max_retries"`
	RotateUserAgent bool                    `yaml:"rotate_user_agent"`
	Sources         map[string]SourceConfig `yaml:"sources"`
}

type rawProfileConfig struct {
	Name              string   `yaml:"name"`
	Summary           string   `yaml:"summary"`
	Skills            []string `yaml:"skills"`
	Education         string   `yaml:"education"`
	Experience        string   `yaml:"experience"`
	ResearchInterests []string `yaml:"research_interests"`
	YearsOfExperience int      `yaml:"years_of_experience"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	rateLimit := 2 * time.Second
	if raw.Scrapers.RateLimit != "" {
		rateLimit, err = time.ParseDuration(raw.Scrapers.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("parse scrapers.rate_limit %q: %w", raw.Scrapers.RateLimit, err)
		}
	}

	timeout := 30 * time.Second
	if raw.Scrapers.Timeout != "" {
		timeout, err = time.ParseDuration(raw.Scrapers.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse scrapers.timeout %q: %w", raw.Scrapers.Timeout, err)
		}
	}

	maxRetries := raw.Scrapers.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	for name, src := range raw.Scrapers.Sources {
		if src.RateLimit == "" {
			continue
		}
		if _, err := time.ParseDuration(src.RateLimit); err != nil {
			return nil, fmt.Errorf("parse scrapers.sources[%q].rate_limit: %w", name, err)
		}
	}

	js := JobSearchConfig{
		Keywords:       raw.JobSearch.Keywords,
		MaxPages:       raw.JobSearch.MaxPages,
		MatchThreshold: raw.JobSearch.MatchThreshold,
		MaxJobsPerRun:  raw.JobSearch.MaxJobsPerRun,
	}
	if js.MaxPages <= 0 {
		js.MaxPages = defaultMaxPages
	}
	if js.MatchThreshold == 0 {
		js.MatchThreshold = defaultMatchThreshold
	}
	if js.MaxJobsPerRun <= 0 {
		js.MaxJobsPerRun = defaultMaxJobsPerRun
	}

	db := raw.Database
	if db.Path == "" {
		db.Path = defaultDatabasePath
	}
	if db.RetentionDays <= 0 {
		db.RetentionDays = defaultRetentionDays
	}

	cfg := &Config{
		JobSearch: js,
		Scrapers: ScrapersConfig{
			Enabled:         raw.Scrapers.Enabled,
			RateLimit:       rateLimit,
			Timeout:         timeout,
			MaxRetries:      maxRetries,
			RotateUserAgent: raw.Scrapers.RotateUserAgent,
			Sources:         raw.Scrapers.Sources,
		},
		Gemini:   raw.Gemini,
		Database: db,
		Profile: model.Profile{
			Name:              raw.Profile.Name,
			Summary:           raw.Profile.Summary,
			Skills:            raw.Profile.Skills,
			Education:         raw.Profile.Education,
			Experience:        raw.Profile.Experience,
			ResearchInterests: raw.Profile.ResearchInterests,
			YearsOfExperience: raw.Profile.YearsOfExperience,
		},
		Notification: raw.Notification,
		Logging:      raw.Logging,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.JobSearch.Keywords) == 0 {
		return fmt.Errorf("job_search.keywords must not be empty")
	}
	if len(cfg.Scrapers.Enabled) == 0 {
		return fmt.Errorf("at least one scraper must be enabled")
	}
	if cfg.JobSearch.MatchThreshold < 0 || cfg.JobSearch.MatchThreshold > 100 {
		return fmt.Errorf("job_search.match_threshold must be between 0 and 100, got %v", cfg.JobSearch.MatchThreshold)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		const prefix = "https://hooks.slack.com/"
		if len(cfg.Notification.WebhookURL) < len(prefix) || cfg.Notification.WebhookURL[:len(prefix)] != prefix {
			return fmt.Errorf("notification.webhook_url must start with %s", prefix)
		}
	}

	return nil
}

// RegistrySettings translates the scraper section into the registry's inputs.
func (c *Config) RegistrySettings() (scraper.GlobalSettings, map[string]scraper.SourceOverrides) {
	global := scraper.GlobalSettings{
		RateLimit:       c.Scrapers.RateLimit,
		Timeout:         c.Scrapers.Timeout,
		MaxRetries:      c.Scrapers.MaxRetries,
		RotateUserAgent: c.Scrapers.RotateUserAgent,
	}

	overrides := make(map[string]scraper.SourceOverrides, len(c.Scrapers.Sources))
	for name, src := range c.Scrapers.Sources {
		o := scraper.SourceOverrides{BaseURL: src.BaseURL, APIKey: src.APIKey}
		if src.RateLimit != "" {
			// Validated by Load.
			o.RateLimit, _ = time.ParseDuration(src.RateLimit)
		}
		overrides[name] = o
	}
	return global, overrides
}
