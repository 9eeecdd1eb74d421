package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jobscout/internal/fetch"
	"jobscout/internal/model"
)

const (
	defaultReliefWebAPIURL = "https://api.reliefweb.int/v1/jobs"
	reliefWebPageSize      = 20
)

// reliefWebQuery is the POST body for the ReliefWeb jobs API.
type reliefWebQuery struct {
	Query  reliefWebQueryValue `json:"query"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Fields reliefWebFields     `json:"fields"`
	Sort   []string            `json:"sort"`
}

type reliefWebQueryValue struct {
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

type reliefWebFields struct {
	Include []string `json:"include"`
}

// reliefWebResponse is the top-level API response.
type reliefWebResponse struct {
	TotalCount int             `json:"totalCount"`
	Data       []reliefWebItem `json:"data"`
}

type reliefWebItem struct {
	ID     any                 `json:"id"` // the API returns string or number depending on endpoint version
	Fields reliefWebItemFields `json:"fields"`
}

type reliefWebItemFields struct {
	Title      string             `json:"title"`
	URL        string             `json:"url"`
	Body       string             `json:"body"`
	HowToApply string             `json:"how_to_apply"`
	Source     []reliefWebNamed   `json:"source"`
	Country    []reliefWebNamed   `json:"country"`
	Date       reliefWebItemDates `json:"date"`
}

type reliefWebNamed struct {
	Name string `json:"name"`
}

type reliefWebItemDates struct {
	Created string `json:"created"`
	Closing string `json:"closing"`
}

// ReliefWeb queries the public ReliefWeb jobs API.
type ReliefWeb struct {
	name   string
	apiURL string
	client *fetch.Client
	logger *slog.Logger
}

// NewReliefWeb creates the ReliefWeb API adapter.
func NewReliefWeb(s Settings, logger *slog.Logger) *ReliefWeb {
	apiURL := s.BaseURL
	if apiURL == "" {
		apiURL = defaultReliefWebAPIURL
	}
	return &ReliefWeb{
		name:   s.Name,
		apiURL: apiURL,
		client: newClient(s, logger),
		logger: logger,
	}
}

func (r *ReliefWeb) Name() string { return r.name }

// Scrape pages through the API with offset pagination, stopping at maxPages
// or when the reported total is exhausted.
func (r *ReliefWeb) Scrape(ctx context.Context, keywords []string, maxPages int) ([]model.Job, error) {
	var jobs []model.Job
	offset := 0

	for page := 0; page < maxPages; page++ {
		query := reliefWebQuery{
			Query:  reliefWebQueryValue{Value: strings.Join(keywords, " OR "), Operator: "OR"},
			Limit:  reliefWebPageSize,
			Offset: offset,
			Fields: reliefWebFields{Include: []string{
				"id", "title", "url", "source.name",
				"date.created", "date.closing",
				"body", "how_to_apply", "country.name",
			}},
			Sort: []string{"date.created:desc"},
		}

		var resp reliefWebResponse
		if err := r.client.PostJSON(ctx, r.apiURL, query, &resp); err != nil {
			return jobs, fmt.Errorf("reliefweb offset %d: %w", offset, err)
		}

		for _, item := range resp.Data {
			if job, ok := r.parseItem(item); ok {
				jobs = append(jobs, job)
			}
		}

		if offset+reliefWebPageSize >= resp.TotalCount {
			break
		}
		offset += reliefWebPageSize
	}

	r.logger.Info("scrape finished", "source", r.name, "jobs", len(jobs))
	return jobs, nil
}

func (r *ReliefWeb) parseItem(item reliefWebItem) (model.Job, bool) {
	f := item.Fields
	if f.Title == "" || f.URL == "" {
		return model.Job{}, false
	}

	organization := "Unknown"
	if len(f.Source) > 0 && f.Source[0].Name != "" {
		organization = f.Source[0].Name
	}

	location := "Global"
	if len(f.Country) > 0 {
		names := make([]string, 0, len(f.Country))
		for _, c := range f.Country {
			if c.Name != "" {
				names = append(names, c.Name)
			}
		}
		if len(names) > 0 {
			location = strings.Join(names, ", ")
		}
	}

	description := f.Body
	if f.HowToApply != "" {
		description = fmt.Sprintf("%s\n\nHow to Apply:\n%s", f.Body, f.HowToApply)
	}

	job := model.NewJob(f.URL, f.Title, organization)
	job.Location = location
	job.Description = description
	job.PostedDate = f.Date.Created
	job.Deadline = f.Date.Closing
	job.Source = r.name
	return job, true
}

func (r *ReliefWeb) Close() error {
	r.client.Close()
	return nil
}
