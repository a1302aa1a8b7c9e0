package mongodb

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"

	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

// commands that carry the collection name as their first element
var collectionCommands = map[string]bool{
	"find": true, "insert": true, "update": true, "delete": true,
	"aggregate": true, "count": true, "findAndModify": true,
	"createIndexes": true, "distinct": true,
}

type pendingCommand struct {
	collection string
	name       string
}

// NewCommandMonitor returns a driver command monitor that records every
// command in the store metrics and the debug log.
func NewCommandMonitor(m *metrics.Metrics, logger *logging.Logger) *event.CommandMonitor {
	var inflight sync.Map

	finish := func(ctx context.Context, requestID int64, duration time.Duration, success bool) {
		v, ok := inflight.LoadAndDelete(requestID)
		if !ok {
			return
		}
		cmd := v.(pendingCommand)
		if m != nil {
			m.RecordStoreOperation("mongodb", cmd.collection, cmd.name, success, duration)
		}
		if logger != nil {
			logger.StoreOperation(ctx, "mongodb", cmd.collection, cmd.name, duration, success)
		}
	}

	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			if !collectionCommands[e.CommandName] {
				return
			}
			collection, _ := e.Command.Lookup(e.CommandName).StringValueOK()
			inflight.Store(e.RequestID, pendingCommand{collection: collection, name: e.CommandName})
		},
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			finish(ctx, e.RequestID, e.Duration, true)
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			finish(ctx, e.RequestID, e.Duration, false)
		},
	}
}
