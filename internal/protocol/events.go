package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies gateway-to-browser websocket payload variants.
type EventType string

const (
	EventAgentStart       EventType = "agent_start"
	EventAgentEnd         EventType = "agent_end"
	EventHandoff          EventType = "handoff"
	EventToolStart        EventType = "tool_start"
	EventToolEnd          EventType = "tool_end"
	EventAudio            EventType = "audio"
	EventAudioInterrupted EventType = "audio_interrupted"
	EventAudioEnd         EventType = "audio_end"
	EventHistoryAdded     EventType = "history_added"
	EventError            EventType = "error"
	EventRawModel         EventType = "raw_model_event"
)

var ErrUnknownEvent = errors.New("unknown event type")

type AgentStartEvent struct {
	Type  EventType `json:"type"`
	Agent string    `json:"agent"`
}

type AgentEndEvent struct {
	Type  EventType `json:"type"`
	Agent string    `json:"agent"`
}

type HandoffEvent struct {
	Type EventType `json:"type"`
	From string    `json:"from"`
	To   string    `json:"to"`
}

type ToolStartEvent struct {
	Type EventType `json:"type"`
	Tool string    `json:"tool"`
}

type ToolEndEvent struct {
	Type   EventType `json:"type"`
	Tool   string    `json:"tool"`
	Output string    `json:"output"`
}

// AudioEvent carries a base64 PCM chunk. SampleRate is set for TTS-generated
// audio (16000); zero means the client should assume its default rate.
type AudioEvent struct {
	Type       EventType `json:"type"`
	Audio      string    `json:"audio"`
	SampleRate int       `json:"sampleRate,omitempty"`
}

type AudioInterruptedEvent struct {
	Type EventType `json:"type"`
}

type AudioEndEvent struct {
	Type EventType `json:"type"`
}

// HistoryAddedEvent relays an upstream conversation item. Items are dynamic
// JSON objects whose shape the upstream owns; they are passed through as-is.
type HistoryAddedEvent struct {
	Type EventType      `json:"type"`
	Item map[string]any `json:"item"`
}

type ErrorEvent struct {
	Type  EventType `json:"type"`
	Error string    `json:"error"`
}

type RawModelEvent struct {
	Type    EventType      `json:"type"`
	Payload map[string]any `json:"raw_model_event"`
}

// ParseServerEvent decodes one gateway event frame on the client side.
func ParseServerEvent(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch EventType(env.Type) {
	case EventAgentStart:
		return decodeEvent[AgentStartEvent](raw)
	case EventAgentEnd:
		return decodeEvent[AgentEndEvent](raw)
	case EventHandoff:
		return decodeEvent[HandoffEvent](raw)
	case EventToolStart:
		return decodeEvent[ToolStartEvent](raw)
	case EventToolEnd:
		return decodeEvent[ToolEndEvent](raw)
	case EventAudio:
		return decodeEvent[AudioEvent](raw)
	case EventAudioInterrupted:
		return AudioInterruptedEvent{Type: EventAudioInterrupted}, nil
	case EventAudioEnd:
		return AudioEndEvent{Type: EventAudioEnd}, nil
	case EventHistoryAdded:
		return decodeEvent[HistoryAddedEvent](raw)
	case EventError:
		return decodeEvent[ErrorEvent](raw)
	case EventRawModel:
		return decodeEvent[RawModelEvent](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func decodeEvent[T any](raw []byte) (T, error) {
	var ev T
	err := json.Unmarshal(raw, &ev)
	return ev, err
}

// EventTypeOf reports the wire type of a server event value, for metrics.
func EventTypeOf(v any) (EventType, bool) {
	switch ev := v.(type) {
	case AgentStartEvent:
		return ev.Type, true
	case AgentEndEvent:
		return ev.Type, true
	case HandoffEvent:
		return ev.Type, true
	case ToolStartEvent:
		return ev.Type, true
	case ToolEndEvent:
		return ev.Type, true
	case AudioEvent:
		return ev.Type, true
	case AudioInterruptedEvent:
		return ev.Type, true
	case AudioEndEvent:
		return ev.Type, true
	case HistoryAddedEvent:
		return ev.Type, true
	case ErrorEvent:
		return ev.Type, true
	case RawModelEvent:
		return ev.Type, true
	default:
		return "", false
	}
}
