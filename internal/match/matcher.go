// Package match scores scraped jobs against a candidate profile. An
// eligibility pre-filter drops postings closed to international candidates
// before any oracle call; survivors are scored 0-100 by a Gemini-backed
// oracle and filtered by a configurable threshold.
package match

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/model"
)

const (
	maxDescriptionChars  = 3000
	maxRequirementsChars = 1500
	maxReasoningChars    = 500
)

// Matcher implements model.Matcher on top of an Oracle.
type Matcher struct {
	oracle    Oracle
	threshold float64
	logger    *slog.Logger
}

func NewMatcher(oracle Oracle, threshold float64, logger *slog.Logger) *Matcher {
	return &Matcher{oracle: oracle, threshold: threshold, logger: logger}
}

// MatchJobs scores each job in input order. Ineligible jobs are skipped
// without an oracle call; when filterThreshold is set, jobs scoring below the
// threshold are dropped. Results are sorted by overall score descending, with
// evaluation order breaking ties.
func (m *Matcher) MatchJobs(ctx context.Context, jobs []model.Job, profile model.Profile, filterThreshold bool) ([]model.Match, model.MatchCounts) {
	counts := model.MatchCounts{Evaluated: len(jobs)}
	var matches []model.Match

	for i, job := range jobs {
		m.logger.Info("matching job",
			"progress", fmt.Sprintf("%d/%d", i+1, len(jobs)),
			"title", job.Title,
			"organization", job.Organization)

		eligible, reason := CheckEligibility(job.Description)
		if !eligible {
			m.logger.Info("job filtered by eligibility", "title", job.Title, "reason", reason)
			counts.Ineligible++
			continue
		}

		score := m.matchJob(ctx, job, profile)

		if filterThreshold && score.Overall < m.threshold {
			m.logger.Debug("job below threshold", "title", job.Title, "score", score.Overall)
			counts.BelowThreshold++
			continue
		}

		matches = append(matches, model.Match{Job: job, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score.Overall > matches[j].Score.Overall
	})

	counts.Matched = len(matches)
	m.logger.Info("matching complete",
		"matched", counts.Matched,
		"ineligible", counts.Ineligible,
		"below_threshold", counts.BelowThreshold,
		"threshold", m.threshold)
	return matches, counts
}

// matchJob scores a single job. An oracle transport failure yields an
// all-zero score carrying the failure in its reasoning; it is not retried
// here, the fetch layer already owns retries for its own transport.
func (m *Matcher) matchJob(ctx context.Context, job model.Job, profile model.Profile) model.MatchScore {
	prompt := buildPrompt(job, profile)

	raw, err := m.oracle.GenerateContent(ctx, prompt)
	if err != nil {
		m.logger.Error("scoring failed", "title", job.Title, "error", err)
		return model.MatchScore{Reasoning: fmt.Sprintf("Error during matching: %v", err)}
	}

	score, err := parseScore(raw)
	if err != nil {
		m.logger.Warn("unparseable score response, using fallback",
			"title", job.Title, "error", err, "preview", truncate(raw, 200))
		return fallbackScore(raw)
	}
	return score
}

func buildPrompt(job model.Job, profile model.Profile) string {
	var b strings.Builder
	b.WriteString("You are an expert career advisor specializing in Development Economics and Research positions.\n\n")
	b.WriteString("Analyze how well this candidate matches the job posting and provide a detailed assessment.\n\n")

	b.WriteString("## CANDIDATE PROFILE:\n")
	b.WriteString(profile.PromptSummary())

	b.WriteString("\n## JOB POSTING:\n")
	fmt.Fprintf(&b, "Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Organization: %s\n", job.Organization)
	fmt.Fprintf(&b, "Location: %s\n", job.Location)
	fmt.Fprintf(&b, "Description: %s\n", truncate(orNotProvided(job.Description), maxDescriptionChars))
	fmt.Fprintf(&b, "Requirements: %s\n", truncate(orNotProvided(job.Requirements), maxRequirementsChars))
	fmt.Fprintf(&b, "Deadline: %s\n", orDefault(job.Deadline, "Not specified"))

	b.WriteString(`
## INSTRUCTIONS:
Evaluate the match and respond with a JSON object (no markdown formatting) containing:
{
    "overall_score": <0-100>,
    "skills_match": <0-100>,
    "experience_match": <0-100>,
    "research_match": <0-100>,
    "qualification_match": <0-100>,
    "reasoning": "<2-3 sentence explanation of the match>",
    "highlights": ["<strength 1>", "<strength 2>", ...],
    "concerns": ["<gap or concern 1>", "<gap or concern 2>", ...]
}

Score Guidelines:
- 90-100: Excellent match, candidate exceeds most requirements
- 80-89: Strong match, candidate meets most requirements
- 70-79: Good match, candidate meets key requirements
- 60-69: Moderate match, some gaps but relevant background
- Below 60: Weak match, significant gaps

Focus on Development Economics, research experience, analytical skills, and relevant qualifications.
Respond ONLY with the JSON object, no other text.`)
	return b.String()
}

type scoreResponse struct {
	OverallScore       float64  `json:"overall_score"`
	SkillsMatch        float64  `json:"skills_match"`
	ExperienceMatch    float64  `json:"experience_match"`
	ResearchMatch      float64  `json:"research_match"`
	QualificationMatch float64  `json:"qualification_match"`
	Reasoning          string   `json:"reasoning"`
	Highlights         []string `json:"highlights"`
	Concerns           []string `json:"concerns"`
}

func parseScore(raw string) (model.MatchScore, error) {
	cleaned := extractJSON(raw)

	var resp scoreResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return model.MatchScore{}, fmt.Errorf("parse score response: %w", err)
	}

	return model.MatchScore{
		Overall:       resp.OverallScore,
		Skills:        resp.SkillsMatch,
		Experience:    resp.ExperienceMatch,
		Research:      resp.ResearchMatch,
		Qualification: resp.QualificationMatch,
		Reasoning:     resp.Reasoning,
		Highlights:    resp.Highlights,
		Concerns:      resp.Concerns,
	}, nil
}

// extractJSON strips markdown code fences that models wrap JSON replies in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

var scorePattern = regexp.MustCompile(`(\d{1,3})\s*(?:/\s*100|%|points?)`)

// fallbackScore salvages a score from an unstructured reply. A standalone
// "82/100", "82%" or "82 points" becomes the score for every dimension;
// otherwise a neutral 50 is assumed so the job is neither auto-matched nor
// silently discarded.
func fallbackScore(text string) model.MatchScore {
	score := 50.0
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 100 {
			n = 100
		}
		score = float64(n)
	}

	reasoning := truncate(text, maxReasoningChars)
	if reasoning == "" {
		reasoning = "Could not parse detailed response"
	}

	return model.MatchScore{
		Overall:       score,
		Skills:        score,
		Experience:    score,
		Research:      score,
		Qualification: score,
		Reasoning:     reasoning,
	}
}

// ToMatchResult converts an in-memory score into the persisted record.
func ToMatchResult(job model.Job, score model.MatchScore) model.MatchResult {
	return model.MatchResult{
		JobID:         job.JobID,
		MatchScore:    score.Overall,
		Skills:        score.Skills,
		Experience:    score.Experience,
		Research:      score.Research,
		Qualification: score.Qualification,
		Reasoning:     score.Reasoning,
		Highlights:    score.Highlights,
		Concerns:      score.Concerns,
		MatchedAt:     time.Now(),
	}
}

// Summary renders a match as human-readable markdown for notification output.
func Summary(m model.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s at %s\n\n", m.Job.Title, m.Job.Organization)
	fmt.Fprintf(&b, "**Match Score: %.0f/100**\n\n", m.Score.Overall)
	b.WriteString("### Score Breakdown:\n")
	fmt.Fprintf(&b, "- Skills Match: %.0f/100\n", m.Score.Skills)
	fmt.Fprintf(&b, "- Experience Match: %.0f/100\n", m.Score.Experience)
	fmt.Fprintf(&b, "- Research Alignment: %.0f/100\n", m.Score.Research)
	fmt.Fprintf(&b, "- Qualifications: %.0f/100\n\n", m.Score.Qualification)
	fmt.Fprintf(&b, "### Analysis:\n%s\n\n", m.Score.Reasoning)
	b.WriteString("### Strengths:\n")
	writeList(&b, m.Score.Highlights)
	b.WriteString("\n### Potential Gaps:\n")
	writeList(&b, m.Score.Concerns)
	fmt.Fprintf(&b, "\n**Location:** %s\n", m.Job.Location)
	fmt.Fprintf(&b, "**Deadline:** %s\n", orDefault(m.Job.Deadline, "Not specified"))
	fmt.Fprintf(&b, "**Apply:** %s", orDefault(m.Job.ApplicationURL, m.Job.URL))
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- None identified\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orNotProvided(s string) string {
	return orDefault(s, "Not provided")
}
