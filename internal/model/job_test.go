package model

import (
	"strings"
	"testing"
)

func TestGenerateJobID_Deterministic(t *testing.T) {
	a := GenerateJobID("https://example.org/jobs/1", "Economist", "World Bank")
	b := GenerateJobID("https://example.org/jobs/1", "Economist", "World Bank")
	if a != b {
		t.Errorf("same natural key produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32-char hex ID, got %q", a)
	}
}

func TestGenerateJobID_DiffersOnAnyKeyPart(t *testing.T) {
	base := GenerateJobID("https://example.org/jobs/1", "Economist", "World Bank")
	tests := []struct {
		name string
		id   string
	}{
		{"url", GenerateJobID("https://example.org/jobs/2", "Economist", "World Bank")},
		{"title", GenerateJobID("https://example.org/jobs/1", "Senior Economist", "World Bank")},
		{"organization", GenerateJobID("https://example.org/jobs/1", "Economist", "IMF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.id == base {
				t.Errorf("ID should change when %s changes", tt.name)
			}
		})
	}
}

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob("https://example.org/jobs/1", "Economist", "World Bank")
	if job.JobID == "" {
		t.Fatal("expected JobID to be set")
	}
	if job.ApplicationURL != job.URL {
		t.Errorf("expected ApplicationURL to fall back to URL, got %q", job.ApplicationURL)
	}
	if job.ScrapedAt.IsZero() {
		t.Error("expected ScrapedAt to be set")
	}
}

func TestProfilePromptSummary(t *testing.T) {
	p := Profile{
		Name:              "Ada",
		Summary:           "Development economist",
		Skills:            []string{"Stata", "R"},
		ResearchInterests: []string{"cash transfers"},
		YearsOfExperience: 4,
	}
	s := p.PromptSummary()
	for _, want := range []string{"Ada", "Stata, R", "cash transfers", "Years of Experience: 4"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}

	empty := Profile{}.PromptSummary()
	if !strings.Contains(empty, "Candidate") || !strings.Contains(empty, "Unknown") {
		t.Errorf("empty profile should fall back to placeholders:\n%s", empty)
	}
}
