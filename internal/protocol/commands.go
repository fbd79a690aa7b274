package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CommandType identifies browser-to-gateway websocket payload variants.
type CommandType string

const (
	CommandAudio       CommandType = "audio"
	CommandTextMessage CommandType = "text_message"
	CommandCommitAudio CommandType = "commit_audio"
	CommandInterrupt   CommandType = "interrupt"
	CommandImageStart  CommandType = "image_start"
	CommandImageChunk  CommandType = "image_chunk"
	CommandImageEnd    CommandType = "image_end"
)

var ErrUnknownCommand = errors.New("unknown command type")

type envelope struct {
	Type string `json:"type"`
}

// AudioCommand carries mono PCM samples as integers in [-32768, 32767].
type AudioCommand struct {
	Type CommandType `json:"type"`
	Data []int       `json:"data"`
}

type TextMessageCommand struct {
	Type CommandType `json:"type"`
	Text string      `json:"text"`
}

type CommitAudioCommand struct {
	Type CommandType `json:"type"`
}

type InterruptCommand struct {
	Type CommandType `json:"type"`
}

type ImageStartCommand struct {
	Type CommandType `json:"type"`
	ID   string      `json:"id"`
	Text string      `json:"text,omitempty"`
}

type ImageChunkCommand struct {
	Type  CommandType `json:"type"`
	ID    string      `json:"id"`
	Chunk string      `json:"chunk"`
}

type ImageEndCommand struct {
	Type CommandType `json:"type"`
	ID   string      `json:"id"`
}

// ParseClientCommand decodes one inbound websocket frame. Malformed JSON is an
// error the caller reports back to the client; an unrecognized type returns
// ErrUnknownCommand so the caller can log and ignore it.
func ParseClientCommand(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch CommandType(env.Type) {
	case CommandAudio:
		var cmd AudioCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case CommandTextMessage:
		var cmd TextMessageCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case CommandCommitAudio:
		return CommitAudioCommand{Type: CommandCommitAudio}, nil
	case CommandInterrupt:
		return InterruptCommand{Type: CommandInterrupt}, nil
	case CommandImageStart:
		var cmd ImageStartCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case CommandImageChunk:
		var cmd ImageChunkCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case CommandImageEnd:
		var cmd ImageEndCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
}
