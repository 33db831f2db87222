package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/clipframe/clipframe-agent/internal/api"
	"github.com/clipframe/clipframe-agent/internal/config"
	"github.com/clipframe/clipframe-agent/internal/db"
	"github.com/clipframe/clipframe-agent/internal/logging"
	"github.com/clipframe/clipframe-agent/internal/render"
	"github.com/clipframe/clipframe-agent/internal/session"
	"github.com/clipframe/clipframe-agent/internal/timeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	// Optional .env next to the binary; real env always wins.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipframe agent",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"project_id", cfg.ProjectID(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := session.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                  CLIPFRAME AGENT v" + config.Version + "                    ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Project:    %-45s ║\n", cfg.ProjectID())
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var renderer render.Renderer
	if cfg.FarmURL() != "" && cfg.FarmToken() != "" {
		renderer = render.NewHTTPRenderer(cfg.FarmURL(), cfg.FarmToken(), logger)
		logger.Info("render farm enabled", "base_url", cfg.FarmURL())
	} else {
		renderer = render.NewStubRenderer(logger)
		logger.Info("no render farm configured, using stub renderer")
	}

	orchestrator := render.NewOrchestrator(renderer, logger, render.Options{
		PollInterval: cfg.RenderPollInterval(),
		InitialDelay: cfg.RenderInitialDelay(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller := session.NewController(session.ControllerConfig{
		ProjectID:        cfg.ProjectID(),
		FPS:              cfg.FPS(),
		AspectRatio:      timeline.AspectWidescreen,
		CompositionID:    cfg.CompositionID(),
		SiteSrc:          cfg.SiteSrc(),
		AutosaveInterval: cfg.AutosaveInterval(),
		Orchestrator:     orchestrator,
		Repository:       repo,
		Logger:           logger,
		RenderContext:    ctx,
	})

	// Resume the most recent autosave for this project, if any.
	if records, err := controller.Autosaves(context.Background(), 1); err != nil {
		logger.Warn("failed to look up autosaves", "error", err)
	} else if len(records) > 0 {
		if err := controller.Restore(context.Background(), records[0].ID); err != nil {
			logger.Warn("failed to restore last session", "autosave_id", records[0].ID, "error", err)
		}
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Controller: controller,
		Repository: repo,
		Logger:     logger,
		StartTime:  startTime,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return apiServer.Start()
	})

	g.Go(func() error {
		controller.RunAutosave(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("initiating graceful shutdown")

		// One last save so an edit made just before quit survives.
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := controller.Autosave(saveCtx); err != nil {
			logger.Error("final autosave failed", "error", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo session.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
