package client

import (
	"testing"
	"time"

	"github.com/aviavoice/gateway/internal/protocol"
)

func audioEvent(b64 string) protocol.AudioEvent {
	return protocol.AudioEvent{Type: protocol.EventAudio, Audio: b64}
}

func assistantItem(parts ...map[string]any) map[string]any {
	content := make([]any, len(parts))
	for i, p := range parts {
		content[i] = p
	}
	return map[string]any{"type": "message", "role": "assistant", "content": content}
}

func TestRouterAccumulatesTurnAudio(t *testing.T) {
	r := NewRouter(nil)

	r.Apply(audioEvent("AAAA"))
	r.Apply(audioEvent("BBBB"))
	r.Apply(protocol.HistoryAddedEvent{Type: protocol.EventHistoryAdded, Item: assistantItem()})

	msgs := r.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Content != "Озвученный ответ" {
		t.Fatalf("content = %q, want the voiced-reply placeholder", msgs[0].Content)
	}
	if msgs[0].Audio != "AAAABBBB" {
		t.Fatalf("audio = %q, want concatenated chunks", msgs[0].Audio)
	}
}

func TestRouterTextMessageKeepsText(t *testing.T) {
	r := NewRouter(nil)
	r.Apply(protocol.HistoryAddedEvent{
		Type: protocol.EventHistoryAdded,
		Item: assistantItem(map[string]any{"type": "output_text", "text": "Готово"}),
	})

	msgs := r.Messages()
	if len(msgs) != 1 || msgs[0].Content != "Готово" {
		t.Fatalf("messages = %#v", msgs)
	}
}

func TestRouterExtractsTranscripts(t *testing.T) {
	r := NewRouter(nil)
	r.Apply(protocol.HistoryAddedEvent{
		Type: protocol.EventHistoryAdded,
		Item: map[string]any{
			"type": "message",
			"role": "user",
			"content": []any{
				map[string]any{"type": "input_audio", "transcript": "сколько мест"},
			},
		},
	})

	msgs := r.Messages()
	if len(msgs) != 1 || msgs[0].Content != "сколько мест" || msgs[0].Role != "user" {
		t.Fatalf("messages = %#v", msgs)
	}
}

func TestRouterAgentEndClearsAccumulator(t *testing.T) {
	r := NewRouter(nil)

	r.Apply(audioEvent("AAAA"))
	r.Apply(protocol.AgentEndEvent{Type: protocol.EventAgentEnd, Agent: "FAQ Agent"})
	r.Apply(protocol.HistoryAddedEvent{Type: protocol.EventHistoryAdded, Item: assistantItem()})

	if msgs := r.Messages(); len(msgs) != 0 {
		t.Fatalf("message without text or turn audio should be dropped: %#v", msgs)
	}
}

func TestRouterInterruptStopsPlayback(t *testing.T) {
	out := &fakeOutput{}
	p := newTestPlayer(out)
	r := NewRouter(p)

	r.Apply(audioEvent(rawChunk([]int16{1, 2, 3})))
	waitCount(t, out, 1)
	r.Apply(audioEvent(rawChunk([]int16{4, 5, 6})))
	r.Apply(protocol.AudioInterruptedEvent{Type: protocol.EventAudioInterrupted})
	time.Sleep(30 * time.Millisecond)

	if got := out.playCount(); got != 1 {
		t.Fatalf("chunks played after interrupt: %d", got)
	}
	out.mu.Lock()
	stopped := out.playbacks[0].stopped
	out.mu.Unlock()
	if !stopped {
		t.Fatalf("interrupt must stop the active source")
	}

	r.Apply(protocol.HistoryAddedEvent{Type: protocol.EventHistoryAdded, Item: assistantItem()})
	if msgs := r.Messages(); len(msgs) != 0 {
		t.Fatalf("accumulator should be empty after interrupt: %#v", msgs)
	}
}

func TestRouterToolFeed(t *testing.T) {
	r := NewRouter(nil)

	r.Apply(protocol.HandoffEvent{Type: protocol.EventHandoff, From: "FAQ Agent", To: "Temperature Agent"})
	r.Apply(protocol.ToolStartEvent{Type: protocol.EventToolStart, Tool: "convert_temperature_tool"})
	r.Apply(protocol.ToolEndEvent{Type: protocol.EventToolEnd, Tool: "convert_temperature_tool", Output: "12°C = 53.6°F"})

	tools := r.ToolActivities()
	if len(tools) != 3 {
		t.Fatalf("got %d tool activities, want 3", len(tools))
	}
	if tools[0].Kind != protocol.EventHandoff || tools[0].To != "Temperature Agent" {
		t.Fatalf("tools[0] = %#v", tools[0])
	}
	if tools[2].Output != "12°C = 53.6°F" {
		t.Fatalf("tools[2] = %#v", tools[2])
	}
	if got := len(r.Events()); got != 3 {
		t.Fatalf("global feed length = %d, want 3", got)
	}
}

func TestRouterSurfacesErrors(t *testing.T) {
	r := NewRouter(nil)
	r.Apply(protocol.ErrorEvent{Type: protocol.EventError, Error: "bad token"})
	if r.LastError() != "bad token" {
		t.Fatalf("LastError = %q", r.LastError())
	}
}
