package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"jobscout/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends match alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each match to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends each match as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(matches []model.Match) error {
	if len(matches) == 0 {
		return nil
	}

	failures := 0
	for i, m := range matches {
		if i > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		if err := s.sendMessage(m); err != nil {
			s.logger.Error("slack notification failed",
				"organization", m.Job.Organization, "title", m.Job.Title, "error", err)
			failures++
		}
	}

	sent := len(matches) - failures
	if failures == len(matches) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(m model.Match) error {
	payload := buildPayload(m)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent",
			"organization", m.Job.Organization, "title", m.Job.Title, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent",
		"organization", m.Job.Organization, "title", m.Job.Title)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

func buildPayload(m model.Match) slackPayload {
	deadline := m.Job.Deadline
	if deadline == "" {
		deadline = "Not specified"
	}

	applyURL := m.Job.ApplicationURL
	if applyURL == "" {
		applyURL = m.Job.URL
	}

	return slackPayload{
		Blocks: []slackBlock{
			{
				Type: "header",
				Text: &slackText{
					Type: "plain_text",
					Text: fmt.Sprintf("🎯 %.0f/100 — %s: %s", m.Score.Overall, m.Job.Organization, m.Job.Title),
				},
			},
			{
				Type: "section",
				Fields: []slackText{
					{Type: "mrkdwn", Text: "*Organization:*\n" + m.Job.Organization},
					{Type: "mrkdwn", Text: "*Location:*\n" + m.Job.Location},
				},
			},
			{
				Type: "section",
				Fields: []slackText{
					{Type: "mrkdwn", Text: "*Deadline:*\n" + deadline},
					{Type: "mrkdwn", Text: "*Source:*\n" + m.Job.Source},
				},
			},
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: "*Why it matches:*\n" + m.Score.Reasoning},
			},
			{
				Type: "actions",
				Elements: []slackElement{
					{
						Type:  "button",
						Text:  slackText{Type: "plain_text", Text: "Apply"},
						URL:   applyURL,
						Style: "primary",
					},
				},
			},
			{Type: "divider"},
		},
	}
}
