// Package scraper implements the source adapters that turn job-board pages
// and API payloads into normalized Job records. Two adapter variants exist:
// page scrapers (goquery selectors over search-result HTML) and API-backed
// scrapers (structured queries against a documented API). Each adapter owns
// one fetch.Client and with it one rate budget.
package scraper

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobscout/internal/fetch"
)

// Settings is the merged per-adapter configuration produced by the registry:
// global scraper settings plus source-specific overrides.
type Settings struct {
	Name            string
	BaseURL         string
	RateLimit       time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RotateUserAgent bool
	APIKey          string
	Headers         map[string]string
}

// newClient builds the adapter's fetch client from its settings.
func newClient(s Settings, logger *slog.Logger) *fetch.Client {
	return fetch.New(fetch.Config{
		MinDelay:        s.RateLimit,
		Timeout:         s.Timeout,
		MaxRetries:      s.MaxRetries,
		RotateUserAgent: s.RotateUserAgent,
		Headers:         s.Headers,
	}, logger)
}

// absoluteURL resolves href against base. Already-absolute URLs pass through.
func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// selText extracts collapsed text from the first match of selector under sel,
// falling back to def when nothing matches.
func selText(sel *goquery.Selection, selector, def string) string {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return def
	}
	text := strings.Join(strings.Fields(found.Text()), " ")
	if text == "" {
		return def
	}
	return text
}

// selAttr extracts an attribute from the first match of selector under sel.
func selAttr(sel *goquery.Selection, selector, attr string) string {
	v, _ := sel.Find(selector).First().Attr(attr)
	return v
}
