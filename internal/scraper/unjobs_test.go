package scraper

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(name, baseURL string) Settings {
	return Settings{
		Name:       name,
		BaseURL:    baseURL,
		RateLimit:  time.Millisecond,
		MaxRetries: 1,
	}
}

const unjobsSearchPage = `<html><body><table>
<tr class="job-row">
  <td class="title"><a href="/vacancies/123">Research Economist</a></td>
  <td class="org">UNDP</td>
  <td class="location">Nairobi</td>
  <td class="deadline">2026-09-30</td>
</tr>
<tr class="job-row">
  <td class="title"><a href="https://unjobs.example/vacancies/456">Data Analyst</a></td>
</tr>
<tr class="job-row">
  <td class="title">No link here</td>
</tr>
</table></body></html>`

func TestUNJobs_Scrape(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(unjobsSearchPage))
			return
		}
		// Page 2 has no listings: scraping stops.
		w.Write([]byte(`<html><body><p>No results</p></body></html>`))
	}))
	defer srv.Close()

	u := NewUNJobs(testSettings("unjobs", srv.URL), testLogger())
	defer u.Close()

	jobs, err := u.Scrape(context.Background(), []string{"economics"}, 5)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if pages != 2 {
		t.Errorf("expected scrape to stop after empty page 2, fetched %d pages", pages)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs (listing without link skipped), got %d", len(jobs))
	}

	j := jobs[0]
	if j.Title != "Research Economist" {
		t.Errorf("unexpected title %q", j.Title)
	}
	if j.URL != srv.URL+"/vacancies/123" {
		t.Errorf("expected relative URL resolved against base, got %q", j.URL)
	}
	if j.Organization != "UNDP" {
		t.Errorf("unexpected organization %q", j.Organization)
	}
	if j.Location != "Nairobi" {
		t.Errorf("unexpected location %q", j.Location)
	}
	if j.Deadline != "2026-09-30" {
		t.Errorf("unexpected deadline %q", j.Deadline)
	}
	if j.Source != "unjobs" {
		t.Errorf("unexpected source %q", j.Source)
	}
	if j.JobID == "" {
		t.Error("expected JobID to be set")
	}

	// Defaults kick in when optional fields are absent.
	if jobs[1].Organization != "UN Organization" {
		t.Errorf("expected default organization, got %q", jobs[1].Organization)
	}
	if jobs[1].Location != "Various" {
		t.Errorf("expected default location, got %q", jobs[1].Location)
	}
}

func TestUNJobs_ScrapeRespectsMaxPages(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Write([]byte(unjobsSearchPage))
	}))
	defer srv.Close()

	u := NewUNJobs(testSettings("unjobs", srv.URL), testLogger())
	defer u.Close()

	if _, err := u.Scrape(context.Background(), []string{"economics"}, 2); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if pages != 2 {
		t.Errorf("expected exactly 2 pages fetched, got %d", pages)
	}
}

func TestUNJobs_ScrapeReturnsPartialOnPageError(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if pages == 1 {
			w.Write([]byte(unjobsSearchPage))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	u := NewUNJobs(testSettings("unjobs", srv.URL), testLogger())
	defer u.Close()

	jobs, err := u.Scrape(context.Background(), []string{"economics"}, 5)
	if err == nil {
		t.Fatal("expected error from second page")
	}
	if len(jobs) != 2 {
		t.Errorf("expected jobs from first page to be returned alongside the error, got %d", len(jobs))
	}
}
