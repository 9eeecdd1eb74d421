package notifier

import (
	"log/slog"
	"os"
	"testing"

	"jobscout/internal/model"
)

func TestLogNotifier_Notify_zeroMatches(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	n := NewLogNotifier(logger)
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.Match{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
}

func TestLogNotifier_Notify_multipleMatches_returnsNil(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	n := NewLogNotifier(logger)
	matches := []model.Match{
		{
			Job:   model.Job{Organization: "World Bank", Title: "Economist", Location: "DC", ApplicationURL: "https://example.com/1", Deadline: "2026-09-30"},
			Score: model.MatchScore{Overall: 88},
		},
		{
			Job:   model.Job{Organization: "IMF", Title: "Analyst", Location: "Remote", ApplicationURL: "https://example.com/2"},
			Score: model.MatchScore{Overall: 74},
		},
	}
	if err := n.Notify(matches); err != nil {
		t.Errorf("Notify(matches) = %v, want nil", err)
	}
}
