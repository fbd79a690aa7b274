// Package translator maps upstream realtime events onto the client event
// vocabulary. Translate is pure: no I/O, no logging, and the input event is
// never mutated, so the whole mapping is table-testable.
package translator

import (
	"github.com/aviavoice/gateway/internal/protocol"
)

// Translate converts one upstream event into at most one client event.
// agent is the session's current active-agent label. The second return is
// false when the event produces nothing for the client.
func Translate(event map[string]any, agent string) (any, bool) {
	switch asString(event["type"]) {
	case "session.created", "session.updated", "input_audio_buffer.committed":
		return nil, false

	case "input_audio_buffer.speech_started":
		return protocol.AudioInterruptedEvent{Type: protocol.EventAudioInterrupted}, true

	case "input_audio_buffer.speech_stopped":
		return protocol.AudioEndEvent{Type: protocol.EventAudioEnd}, true

	case "conversation.item.created":
		if item := itemOf(event); itemType(item) == "message" {
			return protocol.HistoryAddedEvent{Type: protocol.EventHistoryAdded, Item: item}, true
		}
		return nil, false

	case "response.created":
		return protocol.AgentStartEvent{Type: protocol.EventAgentStart, Agent: agent}, true

	case "response.done":
		return protocol.AgentEndEvent{Type: protocol.EventAgentEnd, Agent: agent}, true

	case "response.output_item.added":
		item := itemOf(event)
		switch itemType(item) {
		case "function_call":
			tool := asString(item["name"])
			if tool == "" {
				tool = "unknown"
			}
			return protocol.ToolStartEvent{Type: protocol.EventToolStart, Tool: tool}, true
		case "message":
			return protocol.HistoryAddedEvent{Type: protocol.EventHistoryAdded, Item: item}, true
		}
		return nil, false

	case "response.output_item.done":
		if item := itemOf(event); itemType(item) == "function_call" && asString(item["status"]) == "completed" {
			return protocol.HistoryAddedEvent{Type: protocol.EventHistoryAdded, Item: item}, true
		}
		return nil, false

	case "response.audio.delta", "response.output_audio.delta":
		if delta := asString(event["delta"]); delta != "" {
			return protocol.AudioEvent{Type: protocol.EventAudio, Audio: delta}, true
		}
		return nil, false

	case "response.audio.done", "response.output_audio.done":
		return protocol.AudioEndEvent{Type: protocol.EventAudioEnd}, true

	case "conversation.item.input_audio_transcription.completed":
		return protocol.HistoryAddedEvent{
			Type: protocol.EventHistoryAdded,
			Item: map[string]any{
				"type": "message",
				"role": "user",
				"content": []any{
					map[string]any{"type": "input_audio", "transcript": asString(event["transcript"])},
				},
			},
		}, true

	case "error":
		return protocol.ErrorEvent{Type: protocol.EventError, Error: errorText(event)}, true

	default:
		// Content-part lifecycle, output-text/transcript "done" frames and
		// anything unrecognized pass through for client-side diagnostics.
		return protocol.RawModelEvent{Type: protocol.EventRawModel, Payload: event}, true
	}
}

func errorText(event map[string]any) string {
	switch e := event["error"].(type) {
	case map[string]any:
		if inner := asString(e["error"]); inner != "" {
			return inner
		}
	case string:
		if e != "" {
			return e
		}
	}
	if msg := asString(event["message"]); msg != "" {
		return msg
	}
	return "Unknown error"
}

func itemOf(event map[string]any) map[string]any {
	item, _ := event["item"].(map[string]any)
	return item
}

func itemType(item map[string]any) string {
	if item == nil {
		return ""
	}
	return asString(item["type"])
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
