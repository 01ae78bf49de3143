// Package notify delivers risk alerts to chat or paging webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"riskengine/src/model"
)

var levelRank = map[string]int{
	model.RiskLevelInfo:     0,
	model.RiskLevelWarning:  1,
	model.RiskLevelCritical: 2,
}

type payload struct {
	Text   string          `json:"text"`
	Source string          `json:"source"`
	Event  model.RiskEvent `json:"event"`
}

// WebhookNotifier posts one JSON document per event. It makes a single
// attempt; delivery failures are returned to the caller.
type WebhookNotifier struct {
	http     *resty.Client
	url      string
	source   string
	minLevel string
}

func NewWebhookNotifier(cfg Config) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetRetryCount(0),
		url:      cfg.WebhookURL,
		source:   cfg.Source,
		minLevel: cfg.MinLevel,
	}
}

func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

func (n *WebhookNotifier) Notify(ctx context.Context, event model.RiskEvent) error {
	if !n.Enabled() || levelRank[event.Level] < levelRank[n.minLevel] {
		return nil
	}

	resp, err := n.http.R().
		SetContext(ctx).
		SetBody(payload{
			Text:   fmt.Sprintf("[%s] %s: %s", event.Level, event.Rule, event.Message),
			Source: n.source,
			Event:  event,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode())
	}
	return nil
}

type notifier interface {
	Notify(ctx context.Context, event model.RiskEvent) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []notifier

func NewMulti(notifiers ...notifier) Multi {
	return Multi(notifiers)
}

func (m Multi) Notify(ctx context.Context, event model.RiskEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
