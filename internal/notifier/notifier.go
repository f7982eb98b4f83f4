// Package notifier emits best-effort events to the notification service.
// Emission never blocks or fails the calling operation: the status change or
// login result is authoritative, the notification is advisory.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// emitTimeout bounds each outbound delivery attempt.
const emitTimeout = 5 * time.Second

// Meta carries request-scoped context forwarded with events.
type Meta struct {
	IP     string
	Device string
}

// UserPayload is the user snapshot carried by an event.
type UserPayload struct {
	ID       uint   `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	RoleName string `json:"role_name,omitempty"`
}

// Event is the wire shape accepted by POST /api/notifications/event.
type Event struct {
	EventType     string         `json:"event_type"`
	User          *UserPayload   `json:"user,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	DeviceInfo    string         `json:"device_info,omitempty"`
	AttemptNumber int            `json:"attempt_number,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Client emits events without returning delivery errors to the caller.
type Client interface {
	Emit(event Event)
}

// HTTPClient posts events to the notification service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// New creates a notifier client. An empty baseURL disables emission.
func New(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: emitTimeout},
	}
}

// Emit fires the event on a goroutine. Failures are logged and swallowed.
func (c *HTTPClient) Emit(event Event) {
	if c.baseURL == "" {
		return
	}
	go func() {
		if err := c.send(event); err != nil {
			log.Printf("notifier: %s delivery failed: %v", event.EventType, err)
		}
	}()
}

func (c *HTTPClient) send(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/notifications/event", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
