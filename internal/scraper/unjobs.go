package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout/internal/fetch"
	"jobscout/internal/model"
)

const defaultUNJobsBaseURL = "https://unjobs.org"

// UNJobs scrapes vacancy listings from UNJobs search-result pages.
// Listing pages carry enough fields that no detail fetch is needed.
type UNJobs struct {
	name    string
	baseURL string
	client  *fetch.Client
	logger  *slog.Logger
}

// NewUNJobs creates the UNJobs page-scraping adapter.
func NewUNJobs(s Settings, logger *slog.Logger) *UNJobs {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultUNJobsBaseURL
	}
	return &UNJobs{
		name:    s.Name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(s, logger),
		logger:  logger,
	}
}

func (u *UNJobs) Name() string { return u.name }

// Scrape paginates the search endpoint until maxPages or a page with zero
// listings. Listings that cannot yield a title and resolvable URL are
// skipped individually; a failed page fetch ends the scrape with whatever
// was collected so far.
func (u *UNJobs) Scrape(ctx context.Context, keywords []string, maxPages int) ([]model.Job, error) {
	var jobs []model.Job

	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("q", strings.Join(keywords, " "))
		params.Set("page", strconv.Itoa(page))

		resp, err := u.client.Get(ctx, u.baseURL+"/search", params)
		if err != nil {
			return jobs, fmt.Errorf("unjobs page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return jobs, fmt.Errorf("unjobs page %d: parse html: %w", page, err)
		}

		listings := doc.Find("tr.job-row, div.job-listing, article.job, .vacancy")
		if listings.Length() == 0 {
			u.logger.Debug("no listings found, stopping", "source", u.name, "page", page)
			break
		}

		listings.Each(func(_ int, sel *goquery.Selection) {
			if job, ok := u.parseListing(sel); ok {
				jobs = append(jobs, job)
			}
		})
	}

	u.logger.Info("scrape finished", "source", u.name, "jobs", len(jobs))
	return jobs, nil
}

// parseListing converts one search-result element into a Job. Returns
// ok=false when the required title or URL cannot be extracted; that listing
// is skipped and scraping continues.
func (u *UNJobs) parseListing(sel *goquery.Selection) (model.Job, bool) {
	titleSel := "a.job-title, td.title a, h3 a, .title a"
	title := selText(sel, titleSel, "")
	href := selAttr(sel, titleSel, "href")
	if title == "" || href == "" {
		return model.Job{}, false
	}

	job := model.NewJob(absoluteURL(u.baseURL, href), title, selText(sel, ".organization, td.org, .company", "UN Organization"))
	job.Location = selText(sel, ".location, td.location, .duty-station", "Various")
	job.Deadline = selText(sel, ".deadline, td.deadline, .closing-date", "")
	job.Source = u.name
	if raw, err := goquery.OuterHtml(sel); err == nil {
		job.RawData = raw
	}
	return job, true
}

func (u *UNJobs) Close() error {
	u.client.Close()
	return nil
}
