package realtime

import (
	"fmt"

	"github.com/aviavoice/gateway/internal/profile"
	"github.com/aviavoice/gateway/internal/tools"
)

// SessionUpdate builds the one session.update frame sent after the upstream
// connection opens: modalities, instructions, voice, audio formats, VAD
// settings and the tool list.
func SessionUpdate(p profile.Profile, defs []tools.Definition) map[string]any {
	return map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"modalities":          []string{"text", "audio"},
			"instructions":        systemInstructions(p),
			"voice":               p.Name,
			"input_audio_format":  "pcm16",
			"output_audio_format": "pcm16",
			"input_audio_transcription": map[string]any{
				"model": "whisper-1",
			},
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           0.5,
				"prefix_padding_ms":   300,
				"silence_duration_ms": 500,
			},
			"tools":                      defs,
			"tool_choice":                "auto",
			"temperature":                0.8,
			"max_response_output_tokens": 4096,
			"speed":                      1.0,
		},
	}
}

func systemInstructions(p profile.Profile) string {
	return fmt.Sprintf(`# Системный контекст
Вы — голосовой помощник авиакомпании.
Отвечайте на вопросы клиента коротко и дружелюбно.
Используйте инструменты, не придумывайте ответы сами.

Ты %s, специалист по часто задаваемым вопросам
Отвечайте на вопросы пользователя, вызывая нужный инструмент.
Отвечайте максимально коротко и естественно, без приветствий и без фраз вроде "Чем ещё могу помочь?".`, p.DisplayName)
}

// UserTextItem builds a conversation.item.create frame carrying user text.
func UserTextItem(text string) map[string]any {
	return map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	}
}

// FunctionCallOutputItem builds a conversation.item.create frame feeding a
// tool result back to the model.
func FunctionCallOutputItem(callID, output string) map[string]any {
	return map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	}
}
