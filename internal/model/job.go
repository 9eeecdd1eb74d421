package model

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

// Job is the unified representation of a posting discovered on any source.
// Jobs are immutable once stored: a re-scrape of the same posting yields the
// same JobID and is dropped by the store, never merged.
type Job struct {
	JobID          string    // content address: md5 of url|title|organization
	URL            string    // canonical posting URL
	Title          string    // job title
	Organization   string    // hiring organization
	Location       string    // location string, "Global" when unspecified
	Description    string    // full description text
	PostedDate     string    // raw posted-date string as shown by the source
	Deadline       string    // raw application deadline string
	Requirements   string    // requirements/qualifications text
	ApplicationURL string    // direct apply link, falls back to URL
	Source         string    // adapter name that discovered the job
	RawData        string    // opaque snapshot of the source payload
	ScrapedAt      time.Time // our clock (set on creation)
}

// GenerateJobID derives the content-addressed job ID from the posting's
// natural key. Two fetches of the same posting must produce the same ID
// regardless of which adapter found it.
func GenerateJobID(url, title, organization string) string {
	content := fmt.Sprintf("%s|%s|%s", url, title, organization)
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

// NewJob builds a Job with its ID and scrape timestamp filled in.
// ApplicationURL falls back to the posting URL when empty.
func NewJob(url, title, organization string) Job {
	return Job{
		JobID:          GenerateJobID(url, title, organization),
		URL:            url,
		Title:          title,
		Organization:   organization,
		ApplicationURL: url,
		ScrapedAt:      time.Now(),
	}
}

// ProcessedJob tracks a job's advancement through scoring and outreach.
// Created when a job is first scored; mutated in place afterwards.
type ProcessedJob struct {
	JobID             string
	URL               string
	Title             string
	Organization      string
	Source            string
	MatchScore        float64
	ProcessedAt       time.Time
	CoverLetterPath   string // empty until a letter is attached
	ApplicationStatus string // pending, applied, rejected, withdrawn, ...
	Notes             string
}

// StatusPending is the initial application status for a freshly processed job.
const StatusPending = "pending"

// MatchScore is the in-memory scoring breakdown returned by the matcher.
type MatchScore struct {
	Overall       float64
	Skills        float64
	Experience    float64
	Research      float64
	Qualification float64
	Reasoning     string
	Highlights    []string
	Concerns      []string
}

// MatchResult is the persisted scoring record, one-to-one with a job.
// Overwritten on re-scoring; the latest result wins.
type MatchResult struct {
	JobID         string
	MatchScore    float64
	Skills        float64
	Experience    float64
	Research      float64
	Qualification float64
	Reasoning     string
	Highlights    []string
	Concerns      []string
	MatchedAt     time.Time
}

// CoverLetterRecord is an append-only log entry for a generated artifact.
// A job may be attempted multiple times, so this is many-to-one with Job.
type CoverLetterRecord struct {
	ID          int64
	JobID       string
	Content     string
	FilePath    string
	GeneratedAt time.Time
}

// Match pairs a job with its score, as produced by the matcher and consumed
// by notification/generation collaborators.
type Match struct {
	Job   Job
	Score MatchScore
}

// Profile is the flat candidate record supplied by the profile provider.
// The pipeline treats it as opaque input to scoring prompts.
type Profile struct {
	Name              string
	Summary           string
	Skills            []string
	Education         string
	Experience        string
	ResearchInterests []string
	YearsOfExperience int
}

// PromptSummary renders the profile for inclusion in a scoring prompt.
func (p Profile) PromptSummary() string {
	name := p.Name
	if name == "" {
		name = "Candidate"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Summary: %s\n", orDefault(p.Summary, "Not provided"))
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	fmt.Fprintf(&b, "Education: %s\n", orDefault(p.Education, "Not provided"))
	fmt.Fprintf(&b, "Experience: %s\n", orDefault(p.Experience, "Not provided"))
	fmt.Fprintf(&b, "Research Interests: %s\n", strings.Join(p.ResearchInterests, ", "))
	if p.YearsOfExperience > 0 {
		fmt.Fprintf(&b, "Years of Experience: %d\n", p.YearsOfExperience)
	} else {
		b.WriteString("Years of Experience: Unknown\n")
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Source scrapes one job board. Adapters own their fetch client and its rate
// budget; Close releases the underlying connections.
type Source interface {
	Name() string
	Scrape(ctx context.Context, keywords []string, maxPages int) ([]Job, error)
	Close() error
}

// Matcher scores jobs against a candidate profile.
type Matcher interface {
	MatchJobs(ctx context.Context, jobs []Job, profile Profile, filterThreshold bool) ([]Match, MatchCounts)
}

// MatchCounts aggregates per-run matcher statistics for reporting.
type MatchCounts struct {
	Evaluated      int // jobs handed to the matcher
	Ineligible     int // excluded by the eligibility filter, no oracle call made
	BelowThreshold int // scored but dropped by the threshold
	Matched        int // survivors returned to the caller
}

// Notifier delivers matched jobs to an external collaborator
// (log output, email, a generation queue).
type Notifier interface {
	Notify(matches []Match) error
}
