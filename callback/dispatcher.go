package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-interactions/core"
	"github.com/goliatone/go-interactions/transport"
)

// Dispatcher posts one follow-up message per call. It never retries.
type Dispatcher struct {
	BaseURL   string
	Transport core.TransportAdapter
	Timeout   time.Duration
}

func NewDispatcher(baseURL string, adapter core.TransportAdapter, timeout time.Duration) *Dispatcher {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = core.DefaultCallbackBaseURL
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &Dispatcher{BaseURL: baseURL, Transport: adapter, Timeout: timeout}
}

// CallbackURL returns {base}/interactions/{id}/{token}/callback with escaped segments.
func (d *Dispatcher) CallbackURL(id, token string) string {
	return d.BaseURL + "/interactions/" + url.PathEscape(id) + "/" + url.PathEscape(token) + "/callback"
}

func (d *Dispatcher) Dispatch(ctx context.Context, id, token string, message core.CallbackMessage) error {
	if d == nil || d.Transport == nil {
		return callbackInternal("callback: dispatcher is not configured", nil)
	}
	metadata := map[string]any{"interaction_id": id}
	if strings.TrimSpace(id) == "" || strings.TrimSpace(token) == "" {
		return dispatchError(nil, "callback: interaction id and token are required", metadata)
	}
	body, err := json.Marshal(message)
	if err != nil {
		return dispatchError(err, "callback: encode message", metadata)
	}
	res, err := d.Transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     d.CallbackURL(id, token),
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
		Timeout: d.Timeout,
	})
	if err != nil {
		return dispatchError(err, "callback: post callback", metadata)
	}
	if err := transport.RequireSuccess(res, "callback: post callback"); err != nil {
		metadata["status_code"] = res.StatusCode
		return dispatchError(err, "callback: callback rejected", metadata)
	}
	return nil
}
