package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSearch_DisabledWithoutAPIKey(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	j := NewJSearch(testSettings("jsearch", srv.URL), testLogger())
	defer j.Close()

	jobs, err := j.Scrape(context.Background(), []string{"economics"}, 3)
	if err != nil {
		t.Fatalf("disabled adapter must not error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("disabled adapter must return no jobs, got %d", len(jobs))
	}
	if calls != 0 {
		t.Errorf("disabled adapter must not hit the API, saw %d calls", calls)
	}
}

func TestJSearch_WrappedResponseShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-RapidAPI-Key"); key != "test-key" {
			t.Errorf("expected API key header, got %q", key)
		}
		if r.URL.Query().Get("page") != "1" {
			w.Write([]byte(`{"data": []}`))
			return
		}
		w.Write([]byte(`{"data": [
			{"job_title": "Economist", "employer_name": "IMF", "job_city": "Washington", "job_country": "US", "job_apply_link": "https://jobs.example/1"},
			{"job_title": "", "job_apply_link": "https://jobs.example/2"}
		]}`))
	}))
	defer srv.Close()

	s := testSettings("jsearch", srv.URL)
	s.APIKey = "test-key"
	j := NewJSearch(s, testLogger())
	defer j.Close()

	jobs, err := j.Scrape(context.Background(), []string{"economics"}, 3)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job (untitled listing skipped), got %d", len(jobs))
	}
	if jobs[0].Organization != "IMF" {
		t.Errorf("unexpected organization %q", jobs[0].Organization)
	}
	if jobs[0].Location != "Washington, US" {
		t.Errorf("unexpected location %q", jobs[0].Location)
	}
}

func TestJSearch_BareArrayResponseShape(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"job_title": "Analyst", "employer_name": "World Bank", "job_is_remote": true, "job_apply_link": "https://jobs.example/3"}]`))
	}))
	defer srv.Close()

	s := testSettings("jsearch", srv.URL)
	s.APIKey = "test-key"
	j := NewJSearch(s, testLogger())
	defer j.Close()

	jobs, err := j.Scrape(context.Background(), []string{"economics"}, 3)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Location != "Remote" {
		t.Errorf("unexpected location %q", jobs[0].Location)
	}
}

func TestJSearch_DeduplicatesAcrossKeywords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write([]byte(`{"data": []}`))
			return
		}
		// Same posting returned for every keyword query.
		w.Write([]byte(`{"data": [{"job_title": "Economist", "employer_name": "IMF", "job_apply_link": "https://jobs.example/1"}]}`))
	}))
	defer srv.Close()

	s := testSettings("jsearch", srv.URL)
	s.APIKey = "test-key"
	j := NewJSearch(s, testLogger())
	defer j.Close()

	jobs, err := j.Scrape(context.Background(), []string{"economics", "research"}, 1)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("expected overlapping keyword results deduplicated to 1 job, got %d", len(jobs))
	}
}
