package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

type Config struct {
	URL       string
	APIKey    string
	FolderID  string
	ModelName string
}

// Channel is one session's exclusive connection to the upstream realtime
// service. Received events are dynamic JSON objects delivered in read order;
// the event channel is closed when the connection drops.
type Channel struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	open      atomic.Bool
	events    chan map[string]any
	sessionID string
}

// Dial connects to the realtime endpoint for the configured model and starts
// the read loop.
func Dial(ctx context.Context, cfg Config, sessionID string) (*Channel, <-chan map[string]any, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil {
		return nil, nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("model", fmt.Sprintf("gpt://%s/%s", cfg.FolderID, cfg.ModelName))
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "api-key "+cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, nil, fmt.Errorf("dial realtime websocket: %w", err)
	}

	ch := &Channel{
		conn:      conn,
		events:    make(chan map[string]any, 256),
		sessionID: sessionID,
	}
	ch.open.Store(true)
	go ch.readLoop()
	return ch, ch.events, nil
}

// IsOpen reports whether the channel can still accept sends.
func (c *Channel) IsOpen() bool {
	return c.open.Load()
}

// Send marshals and writes one JSON frame. Writes are serialized so the
// controller loop and delayed speak-result sends cannot interleave frames.
func (c *Channel) Send(msg any) error {
	if !c.open.Load() {
		return fmt.Errorf("realtime channel closed")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *Channel) readLoop() {
	defer c.safeClose()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var event map[string]any
		if err := json.Unmarshal(data, &event); err != nil {
			// Upstream parse errors drop the frame, never the session.
			log.Printf("[%s] upstream frame is not JSON (%d bytes): %v", c.sessionID, len(data), err)
			continue
		}
		c.events <- event
	}
}

func (c *Channel) Close() error {
	var retErr error
	c.closeOnce.Do(func() {
		c.open.Store(false)
		retErr = c.conn.Close()
		close(c.events)
	})
	return retErr
}

func (c *Channel) safeClose() {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		_ = c.conn.Close()
		close(c.events)
	})
}
