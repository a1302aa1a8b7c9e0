package application

import (
	"context"
	"sync"
	"time"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

// DefaultNotifyTimeout bounds a single notification
const DefaultNotifyTimeout = 5 * time.Second

// Dispatcher sends notifications in the background. Failures are logged and
// counted; they never reach the caller and are not retried.
type Dispatcher struct {
	notifier domain.Notifier
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(notifier domain.Notifier, timeout time.Duration, logger *logging.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.WithComponent("notifications"),
		metrics:  m,
	}
}

// Dispatch returns immediately. The request context only contributes its
// values; its cancellation does not abort the notification.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notification) {
	if d == nil || d.notifier == nil {
		return
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		err := d.notifier.Notify(sendCtx, n)
		if d.metrics != nil {
			d.metrics.RecordNotification(string(n.Kind), err == nil)
		}
		if err != nil {
			d.logger.WithError(err).WarnContext(sendCtx, "Notification failed",
				"kind", string(n.Kind),
				"jobId", n.JobID,
			)
		}
	}()
}

// Wait blocks until every dispatched notification has finished
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}
