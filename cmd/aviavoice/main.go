package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aviavoice/gateway/internal/config"
	"github.com/aviavoice/gateway/internal/gateway"
	"github.com/aviavoice/gateway/internal/observability"
	"github.com/aviavoice/gateway/internal/realtime"
	"github.com/aviavoice/gateway/internal/tools"
	"github.com/aviavoice/gateway/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	registry := tools.NewRegistry()
	synth := tts.NewClient(tts.Config{
		URL:      cfg.YandexTTSURL,
		APIKey:   cfg.YandexAPIKey,
		FolderID: cfg.YandexFolderID,
	})

	realtimeCfg := realtime.Config{
		URL:       cfg.YandexRealtimeURL,
		APIKey:    cfg.YandexAPIKey,
		FolderID:  cfg.YandexFolderID,
		ModelName: cfg.YandexModelName,
	}
	dial := func(ctx context.Context, sessionID string) (gateway.Upstream, <-chan map[string]any, error) {
		ch, events, err := realtime.Dial(ctx, realtimeCfg, sessionID)
		if err != nil {
			return nil, nil, err
		}
		return ch, events, nil
	}

	srv := gateway.NewServer(cfg, registry, synth, metrics, dial)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr(),
		Handler: srv.Router(),
	}

	go func() {
		var err error
		if cfg.TLSAvailable() {
			log.Printf("listening on https://%s (model %s)", cfg.BindAddr(), cfg.YandexModelName)
			err = httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			log.Printf("listening on http://%s (model %s)", cfg.BindAddr(), cfg.YandexModelName)
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}
	log.Printf("shutdown complete")
}
