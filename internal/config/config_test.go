package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords:
    - development economics
    - impact evaluation
  max_pages: 5
  match_threshold: 75
scrapers:
  enabled:
    - reliefweb
    - unjobs
  rate_limit: 3s
  timeout: 20s
  sources:
    jsearch:
      api_key: "key-123"
      rate_limit: 1s
gemini:
  model: gemini-2.0-flash-exp
  temperature: 0.3
database:
  path: /tmp/jobs.db
  retention_days: 30
profile:
  name: Ada
  skills:
    - Stata
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.JobSearch.Keywords) != 2 {
		t.Errorf("Keywords = %v", cfg.JobSearch.Keywords)
	}
	if cfg.JobSearch.MaxPages != 5 || cfg.JobSearch.MatchThreshold != 75 {
		t.Errorf("JobSearch = %+v", cfg.JobSearch)
	}
	if cfg.Scrapers.RateLimit != 3*time.Second || cfg.Scrapers.Timeout != 20*time.Second {
		t.Errorf("Scrapers = %+v", cfg.Scrapers)
	}
	if cfg.Scrapers.Sources["jsearch"].APIKey != "key-123" {
		t.Errorf("jsearch override = %+v", cfg.Scrapers.Sources["jsearch"])
	}
	if cfg.Database.Path != "/tmp/jobs.db" || cfg.Database.RetentionDays != 30 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Profile.Name != "Ada" {
		t.Errorf("Profile = %+v", cfg.Profile)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords: [economics]
scrapers:
  enabled: [reliefweb]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JobSearch.MaxPages != 3 {
		t.Errorf("MaxPages = %d, want default 3", cfg.JobSearch.MaxPages)
	}
	if cfg.JobSearch.MatchThreshold != 70 {
		t.Errorf("MatchThreshold = %v, want default 70", cfg.JobSearch.MatchThreshold)
	}
	if cfg.JobSearch.MaxJobsPerRun != 50 {
		t.Errorf("MaxJobsPerRun = %d, want default 50", cfg.JobSearch.MaxJobsPerRun)
	}
	if cfg.Scrapers.RateLimit != 2*time.Second {
		t.Errorf("RateLimit = %v, want default 2s", cfg.Scrapers.RateLimit)
	}
	if cfg.Scrapers.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.Scrapers.MaxRetries)
	}
	if cfg.Database.Path != "data/jobs.db" || cfg.Database.RetentionDays != 90 {
		t.Errorf("Database = %+v", cfg.Database)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret-from-env")
	path := writeConfig(t, `
job_search:
  keywords: [economics]
scrapers:
  enabled: [reliefweb]
gemini:
  api_key: ${TEST_GEMINI_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "secret-from-env" {
		t.Errorf("APIKey = %q, want value from env", cfg.Gemini.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "job_search: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_NoKeywords(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords: []
scrapers:
  enabled: [reliefweb]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected validation error for empty keywords")
	}
}

func TestLoad_NoEnabledScrapers(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords: [economics]
scrapers:
  enabled: []
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected validation error when no scraper is enabled")
	}
}

func TestLoad_BadSourceRateLimit(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords: [economics]
scrapers:
  enabled: [reliefweb]
  sources:
    reliefweb:
      rate_limit: not-a-duration
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for bad per-source rate limit")
	}
}

func TestLoad_SlackRequiresWebhook(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords: [economics]
scrapers:
  enabled: [reliefweb]
notification:
  type: slack
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected validation error for slack without webhook_url")
	}
}

func TestRegistrySettings(t *testing.T) {
	path := writeConfig(t, `
job_search:
  keywords: [economics]
scrapers:
  enabled: [jsearch]
  rate_limit: 4s
  rotate_user_agent: true
  sources:
    jsearch:
      api_key: key-1
      base_url: https://api.example/search
      rate_limit: 1s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	global, overrides := cfg.RegistrySettings()
	if global.RateLimit != 4*time.Second || !global.RotateUserAgent {
		t.Errorf("global = %+v", global)
	}
	o := overrides["jsearch"]
	if o.APIKey != "key-1" || o.BaseURL != "https://api.example/search" || o.RateLimit != time.Second {
		t.Errorf("override = %+v", o)
	}
}
