package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/resilience"
)

func qcNotification() domain.Notification {
	return domain.Notification{
		Kind:    domain.NotificationQCDecision,
		JobID:   "job-1",
		Summary: "**Order #PV-1001** QC status fail",
		Fields: map[string]string{
			"Inspector":     "qc-4",
			"Services":      "Screen Print, Fold",
			"Spoiled Units": "3",
			"Decision":      "fail",
		},
	}
}

func TestTeamsNotifier_PostsMessageCard(t *testing.T) {
	var card messageCard
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&card))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewTeamsNotifier(server.URL, time.Second, nil, logging.NewNop())
	require.NoError(t, n.Notify(context.Background(), qcNotification()))

	assert.Equal(t, "MessageCard", card.Type)
	assert.Equal(t, "QC Status", card.Title)
	require.Len(t, card.Sections, 1)
	facts := card.Sections[0].Facts
	require.Len(t, facts, 4)
	assert.Equal(t, "Decision", facts[0].Name)
	assert.Equal(t, "Spoiled Units", facts[3].Name)
	assert.Equal(t, "3", facts[3].Value)
}

func TestTeamsNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewTeamsNotifier(server.URL, time.Second, nil, logging.NewNop())
	err := n.Notify(context.Background(), qcNotification())
	assert.ErrorContains(t, err, "502")
}

func TestTeamsNotifier_BreakerStopsCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := resilience.DefaultCircuitBreakerConfig("teams")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	breaker := resilience.NewCircuitBreaker(cfg, logging.NewNop().Logger, nil)

	n := NewTeamsNotifier(server.URL, time.Second, breaker, logging.NewNop())
	for i := 0; i < 4; i++ {
		_ = n.Notify(context.Background(), qcNotification())
	}

	assert.Equal(t, int32(2), calls.Load())
	assert.ErrorIs(t, n.Notify(context.Background(), qcNotification()), resilience.ErrCircuitOpen)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logging.NewNop())
	assert.NoError(t, n.Notify(context.Background(), qcNotification()))
}
