package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"jobscout/internal/fetch"
	"jobscout/internal/model"
)

const defaultJSearchAPIURL = "https://jsearch.p.rapidapi.com/search"

// jsearchJob mirrors one listing in the JSearch API response.
type jsearchJob struct {
	Title           string `json:"job_title"`
	Employer        string `json:"employer_name"`
	City            string `json:"job_city"`
	Country         string `json:"job_country"`
	IsRemote        bool   `json:"job_is_remote"`
	Description     string `json:"job_description"`
	ApplyLink       string `json:"job_apply_link"`
	GoogleLink      string `json:"job_google_link"`
	PostedAt        string `json:"job_posted_at_datetime_utc"`
	Highlights      any    `json:"job_highlights"`
	OfferExpiration string `json:"job_offer_expiration_datetime_utc"`
}

// JSearch queries the JSearch aggregator API via RapidAPI. Without a
// credential the adapter disables itself: Scrape logs a warning and returns
// an empty result instead of erroring the run.
type JSearch struct {
	name   string
	apiURL string
	apiKey string
	client *fetch.Client
	logger *slog.Logger
}

// NewJSearch creates the JSearch API adapter.
func NewJSearch(s Settings, logger *slog.Logger) *JSearch {
	apiURL := s.BaseURL
	if apiURL == "" {
		apiURL = defaultJSearchAPIURL
	}
	if s.APIKey != "" {
		if s.Headers == nil {
			s.Headers = make(map[string]string)
		}
		s.Headers["X-RapidAPI-Key"] = s.APIKey
	}
	return &JSearch{
		name:   s.Name,
		apiURL: apiURL,
		apiKey: s.APIKey,
		client: newClient(s, logger),
		logger: logger,
	}
}

func (j *JSearch) Name() string { return j.name }

// Scrape searches each keyword in turn, deduplicating across keyword queries
// by job ID. Page responses may arrive wrapped ({"data": [...]}) or as a bare
// array; both shapes are accepted.
func (j *JSearch) Scrape(ctx context.Context, keywords []string, maxPages int) ([]model.Job, error) {
	if j.apiKey == "" {
		j.logger.Warn("api key not configured, adapter disabled", "source", j.name)
		return nil, nil
	}

	var jobs []model.Job
	seen := make(map[string]bool)

	for _, keyword := range keywords {
		for page := 1; page <= maxPages; page++ {
			params := url.Values{}
			params.Set("query", keyword)
			params.Set("page", strconv.Itoa(page))

			resp, err := j.client.Get(ctx, j.apiURL, params)
			if err != nil {
				return jobs, fmt.Errorf("jsearch %q page %d: %w", keyword, page, err)
			}

			batch, err := decodeJSearchResults(resp.Body)
			if err != nil {
				return jobs, fmt.Errorf("jsearch %q page %d: %w", keyword, page, err)
			}
			if len(batch) == 0 {
				break
			}

			for _, item := range batch {
				job, ok := j.parseItem(item)
				if !ok || seen[job.JobID] {
					continue
				}
				seen[job.JobID] = true
				jobs = append(jobs, job)
			}
		}
	}

	j.logger.Info("scrape finished", "source", j.name, "jobs", len(jobs))
	return jobs, nil
}

// decodeJSearchResults accepts both response shapes the API has been seen to
// return: an object wrapping the listing array under "data", or the array
// itself.
func decodeJSearchResults(body []byte) ([]jsearchJob, error) {
	var wrapped struct {
		Data []jsearchJob `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var bare []jsearchJob
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return bare, nil
}

func (j *JSearch) parseItem(item jsearchJob) (model.Job, bool) {
	link := item.ApplyLink
	if link == "" {
		link = item.GoogleLink
	}
	if item.Title == "" || link == "" {
		return model.Job{}, false
	}

	organization := item.Employer
	if organization == "" {
		organization = "Unknown"
	}

	location := item.City
	if item.Country != "" {
		if location != "" {
			location += ", "
		}
		location += item.Country
	}
	if item.IsRemote {
		if location != "" {
			location += " (Remote)"
		} else {
			location = "Remote"
		}
	}
	if location == "" {
		location = "Not specified"
	}

	job := model.NewJob(link, item.Title, organization)
	job.Location = location
	job.Description = item.Description
	job.PostedDate = item.PostedAt
	job.Deadline = item.OfferExpiration
	job.Source = j.name
	if raw, err := json.Marshal(item); err == nil {
		job.RawData = string(raw)
	}
	return job, true
}

func (j *JSearch) Close() error {
	j.client.Close()
	return nil
}
