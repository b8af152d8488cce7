package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"log/slog"

	"github.com/m3rciful/promobot/bot"
	"github.com/m3rciful/promobot/core/bootstrap"
	coreconfig "github.com/m3rciful/promobot/core/config"
	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/dialog"
	"github.com/m3rciful/promobot/generation"
	"github.com/m3rciful/promobot/history"
	"github.com/m3rciful/promobot/session"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("promobot: %v", err)
	}
}

func run() error {
	startedAt := time.Now()
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return err
	}

	boot, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	if boot.DB != nil {
		defer boot.DB.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessions := session.NewStore()
	go sessions.Run(ctx, cfg.Session.IdleTTL(), cfg.Session.SweepInterval())

	gen := generation.NewClient(generation.Options{
		BaseURL:      cfg.Generation.BaseURL,
		Model:        cfg.Generation.Model,
		Token:        cfg.Generation.Token,
		MaxNewTokens: cfg.Generation.MaxNewTokens,
		Timeout:      cfg.Generation.Timeout(),
		Retries:      cfg.Generation.Retries,
		Backoff:      cfg.Generation.Backoff(),
	})

	var recorder dialog.Recorder
	var hist *history.Store
	if boot.DB != nil {
		hist = history.NewStore(boot.DB)
		recorder = hist
	}

	engine := dialog.NewEngine(sessions, gen, recorder)

	b, err := bot.New(bot.Options{
		Config:   cfg,
		Engine:   engine,
		Sessions: sessions,
		History:  hist,
	})
	if err != nil {
		return err
	}

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = b.Run(ctx)

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}
