package client

import (
	"strings"
	"sync"
	"time"

	"github.com/aviavoice/gateway/internal/protocol"
)

const voicedReplyPlaceholder = "Озвученный ответ"

// Message is one rendered conversation entry. Audio carries the concatenated
// base64 chunks accumulated during the assistant's turn, when any.
type Message struct {
	Role      string
	Content   string
	Audio     string
	Timestamp time.Time
}

// ToolActivity is one entry of the tool/handoff sub-feed.
type ToolActivity struct {
	Kind      protocol.EventType
	Tool      string
	Output    string
	From      string
	To        string
	Timestamp time.Time
}

// Router applies gateway events to the three ordered feeds the UI renders
// and drives the audio player. Safe for use from a single reader goroutine;
// accessors copy under the lock for concurrent rendering.
type Router struct {
	player *Player
	now    func() time.Time

	mu        sync.Mutex
	events    []any
	messages  []Message
	tools     []ToolActivity
	turnAudio []string
	lastError string
}

func NewRouter(player *Player) *Router {
	return &Router{player: player, now: time.Now}
}

// Apply routes one parsed gateway event.
func (r *Router) Apply(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)

	switch ev := event.(type) {
	case protocol.AudioEvent:
		if ev.Audio == "" {
			return
		}
		if r.player != nil {
			r.player.Enqueue(ev.Audio, ev.SampleRate)
		}
		r.turnAudio = append(r.turnAudio, ev.Audio)
	case protocol.AudioInterruptedEvent:
		if r.player != nil {
			r.player.Stop()
		}
		r.turnAudio = nil
	case protocol.AgentEndEvent:
		r.turnAudio = nil
	case protocol.HistoryAddedEvent:
		r.addMessageFromItem(ev.Item)
	case protocol.ErrorEvent:
		r.lastError = ev.Error
	case protocol.ToolStartEvent:
		r.tools = append(r.tools, ToolActivity{Kind: ev.Type, Tool: ev.Tool, Timestamp: r.now()})
	case protocol.ToolEndEvent:
		r.tools = append(r.tools, ToolActivity{Kind: ev.Type, Tool: ev.Tool, Output: ev.Output, Timestamp: r.now()})
	case protocol.HandoffEvent:
		r.tools = append(r.tools, ToolActivity{Kind: ev.Type, From: ev.From, To: ev.To, Timestamp: r.now()})
	}
}

func (r *Router) addMessageFromItem(item map[string]any) {
	if item == nil || item["type"] != "message" {
		return
	}
	role, _ := item["role"].(string)
	content := contentText(item["content"])

	hasAudio := role == "assistant" && len(r.turnAudio) > 0
	if content == "" && !hasAudio {
		return
	}

	msg := Message{Role: role, Content: content, Timestamp: r.now()}
	if content == "" {
		msg.Content = voicedReplyPlaceholder
	}
	if hasAudio {
		msg.Audio = strings.Join(r.turnAudio, "")
	}
	r.messages = append(r.messages, msg)
}

// contentText concatenates every text-bearing part of a message item.
func contentText(content any) string {
	switch parts := content.(type) {
	case string:
		return strings.TrimSpace(parts)
	case []any:
		var b strings.Builder
		for _, raw := range parts {
			part, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			switch part["type"] {
			case "text", "input_text", "output_text":
				if s, ok := part["text"].(string); ok {
					b.WriteString(s)
				}
			case "input_audio", "audio", "output_audio_transcript":
				if s, ok := part["transcript"].(string); ok {
					b.WriteString(s)
				}
			}
		}
		return strings.TrimSpace(b.String())
	default:
		return ""
	}
}

// Messages returns a copy of the conversation feed.
func (r *Router) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// ToolActivities returns a copy of the tool/handoff feed.
func (r *Router) ToolActivities() []ToolActivity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolActivity, len(r.tools))
	copy(out, r.tools)
	return out
}

// Events returns a copy of the raw event feed.
func (r *Router) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.events))
	copy(out, r.events)
	return out
}

// LastError returns the most recent error text surfaced to the UI.
func (r *Router) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}
