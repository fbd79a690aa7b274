package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/aviavoice/gateway/internal/config"
	"github.com/aviavoice/gateway/internal/observability"
	"github.com/aviavoice/gateway/internal/profile"
	"github.com/aviavoice/gateway/internal/protocol"
	"github.com/aviavoice/gateway/internal/tools"
)

// UpstreamDialer opens the realtime channel for one session.
type UpstreamDialer func(ctx context.Context, sessionID string) (Upstream, <-chan map[string]any, error)

// Server accepts browser connections and runs one Controller per session.
type Server struct {
	cfg      config.Config
	registry *tools.Registry
	tts      Synthesizer
	metrics  *observability.Metrics
	throttle *observability.LogThrottler
	latency  *observability.LatencyWindow
	dial     UpstreamDialer
	upgrader websocket.Upgrader
	static   http.Handler

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewServer(cfg config.Config, registry *tools.Registry, synth Synthesizer, metrics *observability.Metrics, dial UpstreamDialer) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		tts:      synth,
		metrics:  metrics,
		throttle: observability.NewLogThrottler(),
		latency:  observability.NewLatencyWindow(256),
		dial:     dial,
		static:   newStaticHandler(),
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may drive a mic session unless
				// explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/perf/latency", s.handleLatency)
	r.Get("/ws", s.handleWS)
	r.Handle("/*", s.static)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLatency(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.latency.Snapshot())
}

// ActiveSessions reports the number of live sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(count))
		s.metrics.SessionEvents.WithLabelValues("connected").Inc()
	}
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	s.throttle.Forget(id)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(count))
		s.metrics.SessionEvents.WithLabelValues("disconnected").Inc()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sess := NewSession(profile.Random())
	s.addSession(sess)
	defer s.removeSession(sess.ID)
	log.Printf("[%s] new browser connection", sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	dialStart := time.Now()
	upstream, upstreamEvents, err := s.dial(ctx, sess.ID)
	s.latency.Observe(observability.StageUpstreamDial, time.Since(dialStart))
	if err != nil {
		log.Printf("[%s] upstream dial failed: %v", sess.ID, err)
		_ = conn.WriteJSON(protocol.ErrorEvent{
			Type:  protocol.EventError,
			Error: "Ошибка подключения к Yandex Cloud: " + err.Error(),
		})
		return
	}
	defer upstream.Close()

	outbound := make(chan any, 256)
	ctrl := NewController(Options{
		Session:          sess,
		Upstream:         upstream,
		Registry:         s.registry,
		TTS:              s.tts,
		Metrics:          s.metrics,
		Throttle:         s.throttle,
		Latency:          s.latency,
		Outbound:         outbound,
		GreetingEnabled:  s.cfg.GreetingEnabled,
		GreetingDelay:    s.cfg.GreetingDelay,
		SpeakResultDelay: s.cfg.SpeakResultDelay,
	})

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		ctrl.Run(ctx, upstreamEvents)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(event); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("inbound", "frame").Inc()
		}
		ctrl.HandleCommand(ctx, data)
	}

	cancel()
	_ = upstream.Close()
	<-runDone
	<-writerDone
	log.Printf("[%s] browser connection closed", sess.ID)
}
