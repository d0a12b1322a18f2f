package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"starbase-monitor/internal/config"
	"starbase-monitor/internal/domain"
	"starbase-monitor/internal/esi"
	"starbase-monitor/internal/metrics"
	"starbase-monitor/internal/notify"
	"starbase-monitor/internal/pipeline"
	"starbase-monitor/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file — using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	runID := uuid.NewString()
	log.SetPrefix("run " + runID[:8] + " ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	redisStore, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisStore.Close()

	timeout := time.Duration(cfg.ESITimeoutSeconds) * time.Second
	auth := esi.NewAuthenticator(cfg.ESITokenURL, cfg.ESIClientID, cfg.ESIClientSecret, cfg.ESIRefreshToken, timeout)
	client := esi.NewClient(cfg.ESIBaseURL, cfg.CorporationID, auth, timeout)

	runner := &pipeline.Runner{
		RunID:          runID,
		Provider:       client,
		Resolver:       client,
		Store:          redisStore,
		Sink:           notify.NewSlackClient(cfg.SlackWebhookURL, timeout),
		AllowedSystems: cfg.AllowedSystems,
		Thresholds: domain.Thresholds{
			DangerDays:  cfg.DangerDays,
			WarningDays: cfg.WarningDays,
		},
	}

	if cfg.HistoryEnabled {
		history, err := store.NewHistoryStore(ctx, cfg)
		if err != nil {
			log.Fatalf("history db: %v", err)
		}
		defer history.Close()
		runner.History = history
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
	log.Printf("run complete: %s", metrics.Summary())
}
