// Package webhook dispatches payloads to an HTTP action runner that performs the
// "create-event" action on the caller's behalf.
package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"calbook/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultApp    = "google_calendar"
	DefaultAction = "create-event"
)

type actionRequest struct {
	App    string         `json:"app"`
	Action string         `json:"action"`
	Props  models.Payload `json:"props"`
}

type actionResponse struct {
	Ret   map[string]any `json:"ret"`
	Error string         `json:"error,omitempty"`
}

// Dispatcher posts create-event actions to an action runner.
type Dispatcher struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher for url. token, when set, is sent as a bearer token.
// Per-call deadlines come from the request context; timeout only bounds the transport.
func NewDispatcher(logger *slog.Logger, url, token string, timeout time.Duration) (*Dispatcher, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "calbook/1.0")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Dispatcher{client: client, url: url, logger: logger}, nil
}

// CreateEvent runs the action and returns the provider's "ret" object unchanged.
func (d *Dispatcher) CreateEvent(ctx context.Context, payload models.Payload) (map[string]any, error) {
	d.logger.Info("Dispatching create-event action", "url", d.url, "summary", payload.Text(models.KeySummary))

	var out actionResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(actionRequest{App: DefaultApp, Action: DefaultAction, Props: payload}).
		SetResult(&out).
		SetError(&out).
		Post(d.url)
	if err != nil {
		return nil, models.ProviderError("action runner request failed", err)
	}
	if resp.IsError() {
		detail := out.Error
		if detail == "" {
			detail = resp.String()
		}
		return nil, models.ProviderError(fmt.Sprintf("action runner returned %d", resp.StatusCode()), fmt.Errorf("%s", detail))
	}

	if out.Ret == nil {
		out.Ret = map[string]any{}
	}
	d.logger.Info("Calendar event created successfully", "id", out.Ret["id"])
	return out.Ret, nil
}
