package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aviavoice/gateway/internal/protocol"
)

// Client is a websocket connection to the gateway /ws endpoint. Parsed
// server events are delivered on the channel returned by Dial, closed when
// the connection drops.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
	events  chan any
}

func Dial(ctx context.Context, url string) (*Client, <-chan any, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial gateway: %w", err)
	}
	c := &Client{conn: conn, events: make(chan any, 64)}
	go c.readLoop()
	return c, c.events, nil
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		event, err := protocol.ParseServerEvent(data)
		if err != nil {
			log.Printf("gateway frame dropped: %v", err)
			continue
		}
		c.events <- event
	}
}

func (c *Client) send(cmd any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(cmd)
}

// SendText submits a typed user message.
func (c *Client) SendText(text string) error {
	return c.send(protocol.TextMessageCommand{Type: protocol.CommandTextMessage, Text: text})
}

// SendAudio submits one mono PCM16 frame of captured microphone audio.
func (c *Client) SendAudio(samples []int16) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return c.send(protocol.AudioCommand{Type: protocol.CommandAudio, Data: data})
}

// CommitAudio marks the end of a captured utterance.
func (c *Client) CommitAudio() error {
	return c.send(protocol.CommitAudioCommand{Type: protocol.CommandCommitAudio})
}

// Interrupt cancels the in-flight assistant response.
func (c *Client) Interrupt() error {
	return c.send(protocol.InterruptCommand{Type: protocol.CommandInterrupt})
}

func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
		close(c.events)
	})
	return err
}
