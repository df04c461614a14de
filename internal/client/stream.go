package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/scrypster/ephemera/pkg/types"
)

// stateEvent mirrors the server's websocket message.
type stateEvent struct {
	Type    string             `json:"type"`
	Payload types.StatePayload `json:"payload"`
}

// StreamURL derives the websocket address from the HTTP base URL.
func (c *Client) StreamURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/ws"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/ws"
	}
	return c.baseURL + "/ws"
}

// Subscribe connects to the state stream and calls onState for every state
// event until ctx is done or the connection fails. It returns nil when ctx
// ends the subscription.
func (c *Client) Subscribe(ctx context.Context, onState func(types.StatePayload)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.StreamURL(), http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("client: dial stream: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer func() {
		if stop() {
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("client: read stream: %w", err)
		}

		var event stateEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return errors.Join(errors.New("client: malformed stream event"), err)
		}
		if event.Type == "state" && onState != nil {
			onState(event.Payload)
		}
	}
}
