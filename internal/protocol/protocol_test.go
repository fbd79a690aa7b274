package protocol

import (
	"errors"
	"testing"
)

func TestParseClientCommandAudio(t *testing.T) {
	cmd, err := ParseClientCommand([]byte(`{"type":"audio","data":[0,1,-1,32767,-32768]}`))
	if err != nil {
		t.Fatalf("ParseClientCommand() error = %v", err)
	}
	audio, ok := cmd.(AudioCommand)
	if !ok {
		t.Fatalf("command type = %T, want AudioCommand", cmd)
	}
	if len(audio.Data) != 5 || audio.Data[3] != 32767 || audio.Data[4] != -32768 {
		t.Fatalf("unexpected samples: %v", audio.Data)
	}
}

func TestParseClientCommandVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want CommandType
	}{
		{"text", `{"type":"text_message","text":"расскажи про багаж"}`, CommandTextMessage},
		{"commit", `{"type":"commit_audio"}`, CommandCommitAudio},
		{"interrupt", `{"type":"interrupt"}`, CommandInterrupt},
		{"image start", `{"type":"image_start","id":"img1","text":"caption"}`, CommandImageStart},
		{"image chunk", `{"type":"image_chunk","id":"img1","chunk":"abcd"}`, CommandImageChunk},
		{"image end", `{"type":"image_end","id":"img1"}`, CommandImageEnd},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := ParseClientCommand([]byte(tc.raw))
			if err != nil {
				t.Fatalf("ParseClientCommand() error = %v", err)
			}
			// Every typed command records its own wire type.
			switch c := cmd.(type) {
			case TextMessageCommand:
				if c.Type != tc.want {
					t.Fatalf("type = %q, want %q", c.Type, tc.want)
				}
			case CommitAudioCommand:
				if c.Type != tc.want {
					t.Fatalf("type = %q, want %q", c.Type, tc.want)
				}
			case InterruptCommand:
				if c.Type != tc.want {
					t.Fatalf("type = %q, want %q", c.Type, tc.want)
				}
			case ImageStartCommand:
				if c.Type != tc.want {
					t.Fatalf("type = %q, want %q", c.Type, tc.want)
				}
			case ImageChunkCommand:
				if c.Type != tc.want {
					t.Fatalf("type = %q, want %q", c.Type, tc.want)
				}
			case ImageEndCommand:
				if c.Type != tc.want {
					t.Fatalf("type = %q, want %q", c.Type, tc.want)
				}
			default:
				t.Fatalf("unexpected command type %T", cmd)
			}
		})
	}
}

func TestParseClientCommandUnknownType(t *testing.T) {
	_, err := ParseClientCommand([]byte(`{"type":"mystery"}`))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("error = %v, want ErrUnknownCommand", err)
	}
}

func TestParseClientCommandMalformedJSON(t *testing.T) {
	_, err := ParseClientCommand([]byte(`{"type":`))
	if err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
	if errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("malformed JSON should not map to ErrUnknownCommand")
	}
}

func TestParseServerEventRoundTrip(t *testing.T) {
	cases := []struct {
		raw  string
		want EventType
	}{
		{`{"type":"agent_start","agent":"FAQ Agent"}`, EventAgentStart},
		{`{"type":"agent_end","agent":"FAQ Agent"}`, EventAgentEnd},
		{`{"type":"handoff","from":"FAQ Agent","to":"Temperature Agent"}`, EventHandoff},
		{`{"type":"tool_start","tool":"faq_lookup_tool"}`, EventToolStart},
		{`{"type":"tool_end","tool":"faq_lookup_tool","output":"ответ"}`, EventToolEnd},
		{`{"type":"audio","audio":"AAAA","sampleRate":16000}`, EventAudio},
		{`{"type":"audio_interrupted"}`, EventAudioInterrupted},
		{`{"type":"audio_end"}`, EventAudioEnd},
		{`{"type":"history_added","item":{"type":"message","role":"user"}}`, EventHistoryAdded},
		{`{"type":"error","error":"bad token"}`, EventError},
		{`{"type":"raw_model_event","raw_model_event":{"type":"session.created"}}`, EventRawModel},
	}
	for _, tc := range cases {
		ev, err := ParseServerEvent([]byte(tc.raw))
		if err != nil {
			t.Fatalf("ParseServerEvent(%s) error = %v", tc.raw, err)
		}
		got, ok := EventTypeOf(ev)
		if !ok {
			t.Fatalf("EventTypeOf(%T) not recognized", ev)
		}
		if got != tc.want {
			t.Fatalf("event type = %q, want %q", got, tc.want)
		}
	}
}

func TestParseServerEventAudioOmitsZeroRate(t *testing.T) {
	ev, err := ParseServerEvent([]byte(`{"type":"audio","audio":"AAAA"}`))
	if err != nil {
		t.Fatalf("ParseServerEvent() error = %v", err)
	}
	audio := ev.(AudioEvent)
	if audio.SampleRate != 0 {
		t.Fatalf("SampleRate = %d, want 0", audio.SampleRate)
	}
}

func TestParseServerEventUnknownType(t *testing.T) {
	_, err := ParseServerEvent([]byte(`{"type":"guardrail_tripped"}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("error = %v, want ErrUnknownEvent", err)
	}
}
