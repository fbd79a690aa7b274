package tts

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aviavoice/gateway/internal/profile"
	"github.com/aviavoice/gateway/internal/reliability"
)

const (
	defaultSampleRate = 16000

	maxAttempts = 3
	retryBase   = 200 * time.Millisecond
	retryCap    = 2 * time.Second
)

type Config struct {
	URL      string
	APIKey   string
	FolderID string
}

// Client calls the SpeechKit v1 synthesis endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = "https://tts.api.cloud.yandex.net/speech/v1/tts:synthesize"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// Options describe one synthesis request. Format defaults to lpcm at 16 kHz.
type Options struct {
	Text            string
	Voice           string
	Emotion         profile.Emotion
	Speed           float64
	Format          string
	SampleRateHertz int
}

// Synthesize performs one synthesis call and returns raw audio bytes.
// Transient statuses are retried with capped backoff; other non-2xx
// responses become errors carrying the response body.
func (c *Client) Synthesize(ctx context.Context, opts Options) ([]byte, error) {
	format := opts.Format
	if format == "" {
		format = "lpcm"
	}
	rate := opts.SampleRateHertz
	if rate <= 0 {
		rate = defaultSampleRate
	}

	form := url.Values{}
	form.Set("text", opts.Text)
	form.Set("voice", opts.Voice)
	form.Set("format", format)
	form.Set("sampleRateHertz", strconv.Itoa(rate))
	form.Set("folderId", c.cfg.FolderID)
	if opts.Emotion != "" {
		form.Set("emotion", string(opts.Emotion))
	}
	if opts.Speed > 0 {
		form.Set("speed", strconv.FormatFloat(opts.Speed, 'f', -1, 64))
	}
	encoded := form.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(reliability.Backoff(attempt-1, retryBase, retryCap)):
			}
		}

		audio, retryable, err := c.doSynthesize(ctx, encoded)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doSynthesize(ctx context.Context, form string) (audio []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Api-Key "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("tts response read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, reliability.RetryableStatus(resp.StatusCode),
			fmt.Errorf("tts api error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, false, nil
}

// Greeting is a synthesized session opener.
type Greeting struct {
	Text       string
	Audio      []byte
	SampleRate int
}

var greetingTemplates = []string{
	"Привет! Я %s. Чем могу помочь?",
	"Здравствуйте! %s к вашим услугам.",
	"Привет! %s на связи. Готов помочь!",
}

// CreateGreeting synthesizes a random greeting for the selected voice.
// Emotion-capable voices greet with the good role, the rest stay neutral.
func (c *Client) CreateGreeting(ctx context.Context, p profile.Profile) (Greeting, error) {
	text := fmt.Sprintf(greetingTemplates[rand.Intn(len(greetingTemplates))], p.DisplayName)

	emotion := profile.EmotionNeutral
	if p.SupportsEmotion(profile.EmotionGood) {
		emotion = profile.EmotionGood
	}

	audio, err := c.Synthesize(ctx, Options{
		Text:            text,
		Voice:           p.Name,
		Emotion:         emotion,
		Speed:           1.0,
		Format:          "lpcm",
		SampleRateHertz: defaultSampleRate,
	})
	if err != nil {
		return Greeting{}, err
	}
	return Greeting{Text: text, Audio: audio, SampleRate: defaultSampleRate}, nil
}
