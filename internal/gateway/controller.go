package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aviavoice/gateway/internal/audio"
	"github.com/aviavoice/gateway/internal/observability"
	"github.com/aviavoice/gateway/internal/profile"
	"github.com/aviavoice/gateway/internal/protocol"
	"github.com/aviavoice/gateway/internal/realtime"
	"github.com/aviavoice/gateway/internal/tools"
	"github.com/aviavoice/gateway/internal/translator"
	"github.com/aviavoice/gateway/internal/tts"
)

const (
	speakResultPrefix       = "Озвучь результат: "
	speakResultInstructions = "Озвучь результат выполнения инструмента коротко и естественно."
)

// agentForTool maps a requested tool onto the logical agent answering for it.
func agentForTool(tool string) string {
	switch tool {
	case "convert_temperature_tool":
		return "Temperature Agent"
	case "faq_lookup_tool":
		return "FAQ Agent"
	default:
		return "General Agent"
	}
}

// Upstream is the session's exclusive channel to the realtime provider.
type Upstream interface {
	IsOpen() bool
	Send(msg any) error
	Close() error
}

// Synthesizer produces the spoken session greeting.
type Synthesizer interface {
	CreateGreeting(ctx context.Context, p profile.Profile) (tts.Greeting, error)
}

// Options wires one Controller. Outbound is the queue drained by the
// downstream websocket writer.
type Options struct {
	Session  *Session
	Upstream Upstream
	Registry *tools.Registry
	TTS      Synthesizer
	Metrics  *observability.Metrics
	Throttle *observability.LogThrottler
	Latency  *observability.LatencyWindow

	Outbound chan<- any

	GreetingEnabled  bool
	GreetingDelay    time.Duration
	SpeakResultDelay time.Duration
}

// Controller is the per-session state machine. It dispatches inbound client
// commands to the upstream, interprets upstream events for side effects, and
// relays translated events downstream. HandleCommand runs on the websocket
// read loop and Run on its own goroutine; they never touch the same session
// fields concurrently except through the upstream channel, whose writes are
// serialized by the channel itself.
type Controller struct {
	sess     *Session
	upstream Upstream
	registry *tools.Registry
	tts      Synthesizer
	metrics  *observability.Metrics
	throttle *observability.LogThrottler
	latency  *observability.LatencyWindow
	outbound chan<- any

	greetingEnabled  bool
	greetingDelay    time.Duration
	speakResultDelay time.Duration
}

func NewController(opts Options) *Controller {
	throttle := opts.Throttle
	if throttle == nil {
		throttle = observability.NewLogThrottler()
	}
	return &Controller{
		sess:             opts.Session,
		upstream:         opts.Upstream,
		registry:         opts.Registry,
		tts:              opts.TTS,
		metrics:          opts.Metrics,
		throttle:         throttle,
		latency:          opts.Latency,
		outbound:         opts.Outbound,
		greetingEnabled:  opts.GreetingEnabled,
		greetingDelay:    opts.GreetingDelay,
		speakResultDelay: opts.SpeakResultDelay,
	}
}

// Run performs the upstream handshake and then consumes upstream events until
// the channel closes or ctx is cancelled.
func (c *Controller) Run(ctx context.Context, events <-chan map[string]any) {
	c.handshake(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					// The provider dropped us, not the client.
					c.sendClient(ctx, protocol.ErrorEvent{
						Type:  protocol.EventError,
						Error: "Ошибка подключения к Yandex Cloud: соединение закрыто",
					})
				}
				return
			}
			c.handleUpstreamEvent(ctx, event)
		}
	}
}

func (c *Controller) handshake(ctx context.Context) {
	log.Printf("[%s] assistant profile: %s (%s)", c.sess.ID, c.sess.Profile.DisplayName, c.sess.Profile.Gender)
	if err := c.upstream.Send(realtime.SessionUpdate(c.sess.Profile, c.registry.Definitions())); err != nil {
		log.Printf("[%s] session.update send failed: %v", c.sess.ID, err)
	}
	if c.greetingEnabled && c.tts != nil {
		go c.greet(ctx)
	}
}

// greet synthesizes the opener off the event loop. A TTS failure downgrades
// to a text-only greeting and never tears down the session.
func (c *Controller) greet(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.greetingDelay):
	}

	start := time.Now()
	g, err := c.tts.CreateGreeting(ctx, c.sess.Profile)
	c.latency.Observe(observability.StageTTS, time.Since(start))
	if err != nil {
		log.Printf("[%s] greeting synthesis failed: %v", c.sess.ID, err)
		if c.metrics != nil {
			c.metrics.TTSRequests.WithLabelValues("error").Inc()
		}
		fallback := fmt.Sprintf("Привет! Я %s. Как дела? Чем могу помочь?", c.sess.Profile.DisplayName)
		c.sendClient(ctx, assistantTextItem(fallback))
		return
	}
	if c.metrics != nil {
		c.metrics.TTSRequests.WithLabelValues("ok").Inc()
	}

	c.sendClient(ctx, assistantTextItem(g.Text))
	c.sendClient(ctx, protocol.AudioEvent{
		Type:       protocol.EventAudio,
		Audio:      base64.StdEncoding.EncodeToString(g.Audio),
		SampleRate: g.SampleRate,
	})
	c.sendClient(ctx, protocol.AudioEndEvent{Type: protocol.EventAudioEnd})
}

func assistantTextItem(text string) protocol.HistoryAddedEvent {
	return protocol.HistoryAddedEvent{
		Type: protocol.EventHistoryAdded,
		Item: map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{
				map[string]any{"type": "text", "text": text},
			},
		},
	}
}

// HandleCommand dispatches one inbound client frame.
func (c *Controller) HandleCommand(ctx context.Context, raw []byte) {
	parsed, err := protocol.ParseClientCommand(raw)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownCommand) {
			log.Printf("[%s] %v", c.sess.ID, err)
			return
		}
		log.Printf("[%s] client frame parse failed: %v", c.sess.ID, err)
		c.sendClient(ctx, protocol.ErrorEvent{Type: protocol.EventError, Error: "Неверный формат сообщения"})
		return
	}

	switch cmd := parsed.(type) {
	case protocol.AudioCommand:
		c.handleAudio(cmd)
	case protocol.TextMessageCommand:
		c.handleTextMessage(ctx, cmd)
	case protocol.CommitAudioCommand:
		c.sendUpstream(map[string]any{"type": "input_audio_buffer.commit"})
	case protocol.InterruptCommand:
		log.Printf("[%s] cancelling active response", c.sess.ID)
		c.sendUpstream(map[string]any{"type": "response.cancel"})
	case protocol.ImageStartCommand:
		c.sess.images[cmd.ID] = &imageUpload{Text: cmd.Text}
	case protocol.ImageChunkCommand:
		if up, ok := c.sess.images[cmd.ID]; ok {
			up.Chunks = append(up.Chunks, cmd.Chunk)
		}
	case protocol.ImageEndCommand:
		if up, ok := c.sess.images[cmd.ID]; ok {
			log.Printf("[%s] image upload %s finished, %d chunks buffered", c.sess.ID, cmd.ID, len(up.Chunks))
		}
	}
}

func (c *Controller) handleAudio(cmd protocol.AudioCommand) {
	if !c.upstream.IsOpen() {
		// Mic frames arrive many times a second, keep the log quiet.
		if c.throttle.Allow(c.sess.ID, "audio_not_connected", 3*time.Second) {
			log.Printf("[%s] upstream not open, dropping audio frame", c.sess.ID)
		}
		return
	}
	payload := audio.EncodePCM16Base64(audio.ClampToInt16(cmd.Data))
	if err := c.upstream.Send(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	}); err != nil {
		if c.throttle.Allow(c.sess.ID, "audio_send_failed", 3*time.Second) {
			log.Printf("[%s] audio append failed: %v", c.sess.ID, err)
		}
		return
	}
	if c.throttle.Allow(c.sess.ID, "audio_sent", 5*time.Second) {
		log.Printf("[%s] audio forwarded upstream, base64 size %d", c.sess.ID, len(payload))
	}
}

func (c *Controller) handleTextMessage(ctx context.Context, cmd protocol.TextMessageCommand) {
	if !c.upstream.IsOpen() {
		log.Printf("[%s] upstream not open, rejecting text message", c.sess.ID)
		c.sendClient(ctx, protocol.ErrorEvent{Type: protocol.EventError, Error: "Соединение с Yandex Cloud не установлено"})
		return
	}
	c.sendUpstream(realtime.UserTextItem(cmd.Text))
	c.sendUpstream(map[string]any{"type": "response.create"})
}

// handleUpstreamEvent applies side effects first, then relays the pure
// translation. The order matters: a handoff must precede the tool_start the
// translator derives from the same event, and tool_end must precede the
// history_added for the completed call.
func (c *Controller) handleUpstreamEvent(ctx context.Context, event map[string]any) {
	eventType, _ := event["type"].(string)
	if c.metrics != nil {
		c.metrics.UpstreamEvents.WithLabelValues(eventType).Inc()
	}

	event = normalizeError(event)

	switch eventType {
	case "response.output_item.added":
		if item := functionCallItem(event); item != nil {
			c.switchAgent(ctx, item)
			c.sess.registerFunctionCall(stringField(item, "call_id"), stringField(item, "id"), toolName(item))
		}
	case "response.output_item.done":
		if item := functionCallItem(event); item != nil && stringField(item, "status") == "completed" {
			c.invokeTool(ctx, item)
		}
	case "response.done":
		if c.sess.PendingSpeakText != "" {
			c.scheduleSpeakResult(ctx, c.sess.PendingSpeakText)
			c.sess.PendingSpeakText = ""
		}
	}

	if clientEvent, ok := translator.Translate(event, c.sess.ActiveAgent); ok {
		c.sendClient(ctx, clientEvent)
	}
}

func (c *Controller) switchAgent(ctx context.Context, item map[string]any) {
	target := agentForTool(toolName(item))
	if target == c.sess.ActiveAgent {
		return
	}
	c.sendClient(ctx, protocol.HandoffEvent{
		Type: protocol.EventHandoff,
		From: c.sess.ActiveAgent,
		To:   target,
	})
	c.sess.ActiveAgent = target
	if c.metrics != nil {
		c.metrics.Handoffs.WithLabelValues(target).Inc()
	}
}

// invokeTool runs the requested tool synchronously; the serial event loop
// guarantees tool_end is observed before the speak-result follow-up turn.
func (c *Controller) invokeTool(ctx context.Context, item map[string]any) {
	name := toolName(item)
	callID := stringField(item, "call_id")
	itemID := stringField(item, "id")
	if callID == "" {
		callID = c.sess.resolveCallID(itemID)
	}
	if callID == "" {
		log.Printf("[%s] function call %q has no call_id, skipping output", c.sess.ID, name)
		return
	}

	var args json.RawMessage
	if raw := stringField(item, "arguments"); raw != "" {
		if json.Valid([]byte(raw)) {
			args = json.RawMessage(raw)
		} else {
			log.Printf("[%s] tool %q arguments are not JSON, using empty object", c.sess.ID, name)
			args = json.RawMessage("{}")
		}
	}

	start := time.Now()
	result := c.registry.Execute(ctx, name, args)
	c.latency.Observe(observability.StageToolExecute, time.Since(start))
	output := result.Result
	outcome := "ok"
	if !result.Success {
		output = "Ошибка: " + result.Error
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.ToolInvocations.WithLabelValues(name, outcome).Inc()
	}
	log.Printf("[%s] tool %q finished: %s", c.sess.ID, name, output)

	c.sendUpstream(realtime.FunctionCallOutputItem(callID, output))
	c.sendClient(ctx, protocol.ToolEndEvent{Type: protocol.EventToolEnd, Tool: name, Output: output})

	if result.Success && output != "" {
		c.sess.PendingSpeakText = output
	}
	c.sess.forgetFunctionCall(callID, itemID)
}

// scheduleSpeakResult asks the model for a short spoken rendition of the tool
// output. The delay lets the completed response settle upstream; the delayed
// goroutine only touches the upstream channel, never session state.
func (c *Controller) scheduleSpeakResult(ctx context.Context, text string) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.speakResultDelay):
		}
		c.sendUpstream(realtime.UserTextItem(speakResultPrefix + text))
		c.sendUpstream(map[string]any{
			"type": "response.create",
			"response": map[string]any{
				"modalities":   []string{"audio"},
				"instructions": speakResultInstructions,
			},
		})
	}()
}

func (c *Controller) sendUpstream(msg any) {
	if err := c.upstream.Send(msg); err != nil {
		log.Printf("[%s] upstream send failed: %v", c.sess.ID, err)
	}
}

func (c *Controller) sendClient(ctx context.Context, event any) {
	select {
	case <-ctx.Done():
	case c.outbound <- event:
		if c.metrics != nil {
			if t, ok := protocol.EventTypeOf(event); ok {
				c.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
			}
		}
	}
}

// normalizeError rewrites a bare {type:error, message} frame into the nested
// shape the translator resolves. The original map is never mutated.
func normalizeError(event map[string]any) map[string]any {
	if event["type"] != "error" {
		return event
	}
	msg, hasMessage := event["message"].(string)
	if !hasMessage || event["error"] != nil {
		return event
	}
	normalized := make(map[string]any, len(event))
	for k, v := range event {
		if k == "message" {
			continue
		}
		normalized[k] = v
	}
	normalized["error"] = map[string]any{"error": msg}
	return normalized
}

func functionCallItem(event map[string]any) map[string]any {
	item, _ := event["item"].(map[string]any)
	if item == nil || stringField(item, "type") != "function_call" {
		return nil
	}
	return item
}

func toolName(item map[string]any) string {
	if name := stringField(item, "name"); name != "" {
		return name
	}
	return "unknown"
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
