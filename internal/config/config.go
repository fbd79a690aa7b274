package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the voice gateway.
type Config struct {
	Host             string
	Port             int
	TLSCertPath      string
	TLSKeyPath       string
	MetricsNamespace string
	ShutdownTimeout  time.Duration
	AllowAnyOrigin   bool

	YandexAPIKey      string
	YandexFolderID    string
	YandexModelName   string
	YandexRealtimeURL string
	YandexTTSURL      string

	GreetingEnabled  bool
	GreetingDelay    time.Duration
	SpeakResultDelay time.Duration
}

// Load reads a .env file if present, then environment variables, and applies
// safe defaults. YANDEX_API_KEY and YANDEX_FOLDER_ID are required.
func Load() (Config, error) {
	// Best effort: a missing .env is fine, real env vars win either way.
	_ = godotenv.Load()

	cfg := Config{
		Host:              envOrDefault("APP_HOST", "0.0.0.0"),
		TLSCertPath:       envOrDefault("APP_TLS_CERT", "cert.pem"),
		TLSKeyPath:        envOrDefault("APP_TLS_KEY", "key.pem"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "aviavoice"),
		YandexAPIKey:      trimmedEnv("YANDEX_API_KEY"),
		YandexFolderID:    trimmedEnv("YANDEX_FOLDER_ID"),
		YandexModelName:   envOrDefault("YANDEX_MODEL_NAME", "speech-realtime-250923"),
		YandexRealtimeURL: envOrDefault("YANDEX_REALTIME_URL", "wss://rest-assistant.api.cloud.yandex.net/v1/realtime/openai"),
		YandexTTSURL:      envOrDefault("YANDEX_TTS_URL", "https://tts.api.cloud.yandex.net/speech/v1/tts:synthesize"),
		Port:              8000,
		ShutdownTimeout:   15 * time.Second,
		GreetingEnabled:   true,
		GreetingDelay:     500 * time.Millisecond,
		SpeakResultDelay:  100 * time.Millisecond,
	}

	var err error
	cfg.Port, err = intFromEnv("APP_PORT", cfg.Port)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.GreetingEnabled, err = boolFromEnv("APP_GREETING_ENABLED", cfg.GreetingEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.GreetingDelay, err = durationFromEnv("APP_GREETING_DELAY", cfg.GreetingDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeakResultDelay, err = durationFromEnv("APP_SPEAK_RESULT_DELAY", cfg.SpeakResultDelay)
	if err != nil {
		return Config{}, err
	}

	if cfg.YandexAPIKey == "" {
		return Config{}, fmt.Errorf("YANDEX_API_KEY is required")
	}
	if cfg.YandexFolderID == "" {
		return Config{}, fmt.Errorf("YANDEX_FOLDER_ID is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("APP_PORT must be in 1..65535")
	}
	if cfg.SpeakResultDelay < 0 {
		return Config{}, fmt.Errorf("APP_SPEAK_RESULT_DELAY must not be negative")
	}

	return cfg, nil
}

// BindAddr formats the host and port for net/http.
func (c Config) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TLSAvailable reports whether both certificate and key files exist on disk.
func (c Config) TLSAvailable() bool {
	if c.TLSCertPath == "" || c.TLSKeyPath == "" {
		return false
	}
	if _, err := os.Stat(c.TLSCertPath); err != nil {
		return false
	}
	if _, err := os.Stat(c.TLSKeyPath); err != nil {
		return false
	}
	return true
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
