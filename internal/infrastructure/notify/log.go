package notify

import (
	"context"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
)

// LogNotifier writes notifications to the log. Used when no webhook is
// configured.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent("log-notifier")}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	attrs := []any{"kind", string(n.Kind), "jobId", n.JobID, "summary", n.Summary}
	for name, value := range n.Fields {
		attrs = append(attrs, name, value)
	}
	l.logger.InfoContext(ctx, "Notification", attrs...)
	return nil
}
