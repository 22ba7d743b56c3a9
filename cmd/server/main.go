package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"guidegen/internal/api"
	"guidegen/internal/config"
	"guidegen/internal/extract"
	"guidegen/internal/logger"
	"guidegen/internal/services"
	"guidegen/internal/store"
)

func main() {
	cfg := config.Load()

	logg, err := logger.New(cfg.Mode)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logg.Sync()

	guides, err := openStore(cfg, logg)
	if err != nil {
		logg.Fatal("open guide store", "driver", cfg.StoreDriver, "error", err)
	}

	registry := extract.NewRegistry()
	registry.Register(extract.Text(), ".txt", ".md", ".html")
	registry.Register(extract.PDF(), ".pdf")
	registry.Register(extract.Docx(), ".docx")
	registry.Register(extract.Audio(newTranscriber(cfg, logg), logg), ".mp3", ".mp4")

	generator := services.NewGeneratorService(cfg.ModelName, cfg.ModelEndpoint, logg)
	verifier := services.NewTokenVerifier(cfg.JWTSecret)

	server := api.NewServer(logg, guides, registry, generator, verifier, cfg.ModelAPIKey)

	logg.Info("listening", "port", cfg.Port, "store", cfg.StoreDriver)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     server.Handler(),
		ReadTimeout: 15 * time.Second,
		// Long audio transcription runs synchronously inside the request.
		WriteTimeout: 30 * time.Minute,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal("server failed", "error", err)
	}
}

func openStore(cfg config.Config, logg *logger.Logger) (store.GuideStore, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	case "file":
		return store.NewFileStore(cfg.GuideDir, logg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newTranscriber builds the speech client, degrading to a stub when the
// client cannot be constructed (no credentials, for instance). Audio uploads
// then carry a placeholder transcript instead of failing.
func newTranscriber(cfg config.Config, logg *logger.Logger) extract.Transcriber {
	speech, err := services.NewSpeechService(context.Background(), logg, cfg.GCSBucket, cfg.GoogleCredentials)
	if err != nil {
		logg.Warn("speech-to-text unavailable", "error", err)
		return unavailableTranscriber{err: err}
	}
	return speech
}

type unavailableTranscriber struct{ err error }

func (t unavailableTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	return "", fmt.Errorf("speech-to-text unavailable: %w", t.err)
}
