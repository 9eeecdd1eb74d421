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

const defaultDevexBaseURL = "https://www.devex.com"

// Devex scrapes search-result pages and enriches each listing with a
// best-effort detail-page fetch for the full description and requirements.
type Devex struct {
	name    string
	baseURL string
	client  *fetch.Client
	logger  *slog.Logger
}

// NewDevex creates the Devex page-scraping adapter.
func NewDevex(s Settings, logger *slog.Logger) *Devex {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultDevexBaseURL
	}
	return &Devex{
		name:    s.Name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(s, logger),
		logger:  logger,
	}
}

func (d *Devex) Name() string { return d.name }

// Scrape paginates search results, parses each listing, and enriches jobs
// via the detail page. Detail failures leave the listing-level fields intact.
func (d *Devex) Scrape(ctx context.Context, keywords []string, maxPages int) ([]model.Job, error) {
	var jobs []model.Job

	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("query", strings.Join(keywords, " "))
		params.Set("page", strconv.Itoa(page))

		resp, err := d.client.Get(ctx, d.baseURL+"/jobs/search", params)
		if err != nil {
			return jobs, fmt.Errorf("devex page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return jobs, fmt.Errorf("devex page %d: parse html: %w", page, err)
		}

		listings := doc.Find("div.job-card, article.job-listing, div.job-item, .search-result-item")
		if listings.Length() == 0 {
			d.logger.Debug("no listings found, stopping", "source", d.name, "page", page)
			break
		}

		listings.Each(func(_ int, sel *goquery.Selection) {
			job, ok := d.parseListing(sel)
			if !ok {
				return
			}
			jobs = append(jobs, d.parseDetails(ctx, job))
		})

		// No next-page link means this was the last page.
		if doc.Find("a.next-page, a[rel='next']").Length() == 0 {
			break
		}
	}

	d.logger.Info("scrape finished", "source", d.name, "jobs", len(jobs))
	return jobs, nil
}

func (d *Devex) parseListing(sel *goquery.Selection) (model.Job, bool) {
	titleSel := "h3 a, h2 a, .job-title a, a.title"
	title := selText(sel, titleSel, "")
	href := selAttr(sel, titleSel, "href")
	if title == "" || href == "" {
		return model.Job{}, false
	}

	job := model.NewJob(absoluteURL(d.baseURL, href), title, selText(sel, ".company-name, .organization, .employer, .org-name", "Unknown"))
	job.Location = selText(sel, ".location, .job-location, .place", "Global")
	job.Description = selText(sel, ".job-description, .description, .summary, .excerpt", "")
	job.PostedDate = selText(sel, ".posted-date, .date, time", "")
	job.Deadline = selText(sel, ".deadline, .closing-date, .expires", "")
	job.Source = d.name
	if raw, err := goquery.OuterHtml(sel); err == nil {
		job.RawData = raw
	}
	return job, true
}

// parseDetails fetches the job's own page for the full description,
// requirements, and apply link. Best-effort: any failure returns the job
// unchanged rather than erroring the run.
func (d *Devex) parseDetails(ctx context.Context, job model.Job) model.Job {
	resp, err := d.client.Get(ctx, job.URL, nil)
	if err != nil {
		d.logger.Debug("detail fetch failed, keeping listing data", "source", d.name, "url", job.URL, "error", err)
		return job
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		d.logger.Debug("detail parse failed, keeping listing data", "source", d.name, "url", job.URL, "error", err)
		return job
	}

	if desc := selText(doc.Selection, ".job-description, #job-description, .description-content", ""); desc != "" {
		job.Description = desc
	}
	if req := selText(doc.Selection, ".requirements, .qualifications, #requirements", ""); req != "" {
		job.Requirements = req
	}
	if apply := selAttr(doc.Selection, "a.apply-button, a[href*='apply'], .apply-link", "href"); apply != "" {
		job.ApplicationURL = absoluteURL(d.baseURL, apply)
	}
	return job
}

func (d *Devex) Close() error {
	d.client.Close()
	return nil
}
