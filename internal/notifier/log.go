package notifier

import (
	"log/slog"

	"jobscout/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes matched jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each match via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each match with score, organization, title, location, and apply
// link. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(matches []model.Match) error {
	for _, m := range matches {
		args := []any{
			"score", m.Score.Overall,
			"organization", m.Job.Organization,
			"title", m.Job.Title,
			"location", m.Job.Location,
			"apply", m.Job.ApplicationURL,
		}
		if m.Job.Deadline != "" {
			args = append(args, "deadline", m.Job.Deadline)
		}
		n.logger.Info("job match", args...)
	}
	return nil
}
