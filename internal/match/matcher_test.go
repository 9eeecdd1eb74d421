package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/model"
)

// fakeOracle returns canned responses in order and records every prompt.
type fakeOracle struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeOracle) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scoreJSON(overall float64) string {
	return fmt.Sprintf(`{
		"overall_score": %.0f,
		"skills_match": 80,
		"experience_match": 70,
		"research_match": 85,
		"qualification_match": 75,
		"reasoning": "Solid background.",
		"highlights": ["RCT experience"],
		"concerns": ["Less policy work"]
	}`, overall)
}

func matchableJob(title string) model.Job {
	job := model.NewJob("https://example.org/"+title, title, "World Bank")
	job.Description = "Research role in development economics."
	return job
}

func TestMatchJobs_ThresholdAndSorting(t *testing.T) {
	oracle := &fakeOracle{responses: []string{scoreJSON(65), scoreJSON(90), scoreJSON(78)}}
	m := NewMatcher(oracle, 70, quietLogger())

	jobs := []model.Job{matchableJob("a"), matchableJob("b"), matchableJob("c")}
	matches, counts := m.MatchJobs(context.Background(), jobs, model.Profile{}, true)

	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].Job.Title)
	assert.Equal(t, "c", matches[1].Job.Title)

	assert.Equal(t, 3, counts.Evaluated)
	assert.Equal(t, 1, counts.BelowThreshold)
	assert.Equal(t, 0, counts.Ineligible)
	assert.Equal(t, 2, counts.Matched)
}

func TestMatchJobs_NoFilterKeepsLowScores(t *testing.T) {
	oracle := &fakeOracle{responses: []string{scoreJSON(10)}}
	m := NewMatcher(oracle, 70, quietLogger())

	matches, counts := m.MatchJobs(context.Background(), []model.Job{matchableJob("a")}, model.Profile{}, false)
	require.Len(t, matches, 1)
	assert.Equal(t, 10.0, matches[0].Score.Overall)
	assert.Equal(t, 0, counts.BelowThreshold)
}

func TestMatchJobs_IneligibleSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{responses: []string{scoreJSON(95)}}
	m := NewMatcher(oracle, 70, quietLogger())

	restricted := matchableJob("restricted")
	restricted.Description = "Must be a U.S. citizen with an active secret clearance."
	open := matchableJob("open")

	matches, counts := m.MatchJobs(context.Background(), []model.Job{restricted, open}, model.Profile{}, true)

	require.Len(t, matches, 1)
	assert.Equal(t, "open", matches[0].Job.Title)
	assert.Equal(t, 1, counts.Ineligible)
	// Only the eligible job reached the oracle.
	assert.Len(t, oracle.prompts, 1)
	assert.Contains(t, oracle.prompts[0], "Title: open")
}

func TestMatchJobs_OracleFailureScoresZero(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("connection reset")}
	m := NewMatcher(oracle, 70, quietLogger())

	matches, _ := m.MatchJobs(context.Background(), []model.Job{matchableJob("a")}, model.Profile{}, false)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Score.Overall)
	assert.Contains(t, matches[0].Score.Reasoning, "connection reset")
}

func TestParseScore_StripsCodeFences(t *testing.T) {
	raw := "```json\n" + scoreJSON(82) + "\n```"
	score, err := parseScore(raw)
	require.NoError(t, err)
	assert.Equal(t, 82.0, score.Overall)
	assert.Equal(t, 80.0, score.Skills)
	assert.Equal(t, []string{"RCT experience"}, score.Highlights)
	assert.Equal(t, []string{"Less policy work"}, score.Concerns)
}

func TestFallbackScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"slash-100 form", "The candidate rates 82/100 overall.", 82},
		{"percent form", "Roughly a 75% fit for the role.", 75},
		{"points form", "I would award 64 points here.", 64},
		{"capped at 100", "Score: 250/100", 100},
		{"no score defaults to neutral", "A reasonable candidate overall.", 50},
		{"empty text", "", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := fallbackScore(tt.text)
			assert.Equal(t, tt.want, score.Overall)
			// The salvaged value applies across every dimension.
			assert.Equal(t, tt.want, score.Skills)
			assert.Equal(t, tt.want, score.Qualification)
			assert.NotEmpty(t, score.Reasoning)
		})
	}
}

func TestMatchJobs_FallbackOnUnparseableReply(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"I'd say this is a strong 88/100 match."}}
	m := NewMatcher(oracle, 70, quietLogger())

	matches, _ := m.MatchJobs(context.Background(), []model.Job{matchableJob("a")}, model.Profile{}, true)
	require.Len(t, matches, 1)
	assert.Equal(t, 88.0, matches[0].Score.Overall)
}

func TestBuildPrompt_IncludesProfileAndJob(t *testing.T) {
	profile := model.Profile{
		Name:              "Ada",
		Skills:            []string{"Stata", "R"},
		ResearchInterests: []string{"cash transfers"},
	}
	job := matchableJob("Economist")
	job.Location = "Nairobi"

	prompt := buildPrompt(job, profile)
	assert.Contains(t, prompt, "Name: Ada")
	assert.Contains(t, prompt, "Skills: Stata, R")
	assert.Contains(t, prompt, "Title: Economist")
	assert.Contains(t, prompt, "Location: Nairobi")
	assert.Contains(t, prompt, `"overall_score"`)
}

func TestBuildPrompt_TruncatesLongDescription(t *testing.T) {
	job := matchableJob("a")
	job.Description = strings.Repeat("x", 5000)

	prompt := buildPrompt(job, model.Profile{})
	assert.Less(t, strings.Count(prompt, "x"), 3001)
}

func TestToMatchResult(t *testing.T) {
	job := matchableJob("a")
	score := model.MatchScore{Overall: 77, Skills: 70, Reasoning: "ok", Highlights: []string{"h"}}

	res := ToMatchResult(job, score)
	assert.Equal(t, job.JobID, res.JobID)
	assert.Equal(t, 77.0, res.MatchScore)
	assert.Equal(t, []string{"h"}, res.Highlights)
	assert.False(t, res.MatchedAt.IsZero())
}

func TestSummary(t *testing.T) {
	m := model.Match{
		Job: matchableJob("Economist"),
		Score: model.MatchScore{
			Overall:    85,
			Skills:     80,
			Reasoning:  "Strong fit.",
			Highlights: []string{"Field experience"},
		},
	}
	m.Job.Location = "Geneva"

	s := Summary(m)
	assert.Contains(t, s, "## Economist at World Bank")
	assert.Contains(t, s, "**Match Score: 85/100**")
	assert.Contains(t, s, "- Field experience")
	assert.Contains(t, s, "- None identified") // empty concerns list
	assert.Contains(t, s, "**Location:** Geneva")
}
