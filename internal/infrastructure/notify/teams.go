// Package notify delivers best effort notifications about held jobs and
// failed QC inspections
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/resilience"
)

// messageCard is the Office 365 connector card format accepted by Teams
// incoming webhooks
type messageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	Summary    string        `json:"summary"`
	ThemeColor string        `json:"themeColor"`
	Title      string        `json:"title"`
	Sections   []cardSection `json:"sections"`
}

type cardSection struct {
	ActivityTitle string     `json:"activityTitle"`
	Facts         []cardFact `json:"facts"`
	Markdown      bool       `json:"markdown"`
}

type cardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var titles = map[domain.NotificationKind]struct{ title, color string }{
	domain.NotificationJobHeld:    {"Job On Hold", "FFA500"},
	domain.NotificationQCDecision: {"QC Status", "FF0000"},
}

// TeamsNotifier posts notifications to a Teams incoming webhook
type TeamsNotifier struct {
	url     string
	client  *http.Client
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

// NewTeamsNotifier creates a notifier. breaker may be nil.
func NewTeamsNotifier(url string, timeout time.Duration, breaker *resilience.CircuitBreaker, logger *logging.Logger) *TeamsNotifier {
	return &TeamsNotifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger.WithComponent("teams-notifier"),
	}
}

// Notify implements domain.Notifier
func (t *TeamsNotifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(buildCard(n))
	if err != nil {
		return fmt.Errorf("failed to encode message card: %w", err)
	}

	post := func() error { return t.post(ctx, body) }
	if t.breaker == nil {
		return post()
	}
	return t.breaker.Run(ctx, post)
}

func (t *TeamsNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildCard(n domain.Notification) messageCard {
	meta, ok := titles[n.Kind]
	if !ok {
		meta = titles[domain.NotificationQCDecision]
	}

	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	facts := make([]cardFact, 0, len(names))
	for _, name := range names {
		facts = append(facts, cardFact{Name: name, Value: n.Fields[name]})
	}

	return messageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    n.Summary,
		ThemeColor: meta.color,
		Title:      meta.title,
		Sections: []cardSection{{
			ActivityTitle: n.Summary,
			Facts:         facts,
			Markdown:      true,
		}},
	}
}
