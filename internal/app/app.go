package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/storysign/storysign-backend/internal/handlers"
	"github.com/storysign/storysign-backend/internal/observability"
	"github.com/storysign/storysign-backend/internal/platform/gemini"
	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/server"
	"github.com/storysign/storysign-backend/internal/story"
	"github.com/storysign/storysign-backend/internal/story/bank"
)

type App struct {
	Log    *logger.Logger
	Config Config

	srv          *http.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg := LoadConfig(log)

	// Absent or misconfigured credentials fail here, before any request.
	client, err := gemini.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	b := bank.Default()
	if cfg.WordBankPath != "" {
		b, err = bank.LoadFile(cfg.WordBankPath)
		if err != nil {
			return nil, fmt.Errorf("load word bank: %w", err)
		}
		log.Info("loaded word bank from file", "path", cfg.WordBankPath, "levels", len(b.Levels()))
	}

	gen := story.NewGenerator(log, client, b, cfg.Model, cfg.MaxRetries)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "storysign-backend",
		Environment: cfg.Env,
	})

	router := server.NewRouter(server.RouterConfig{
		AllowOrigins: cfg.AllowOrigins,
		StoryHandler: handlers.NewStoryHandler(log, gen),
	})

	return &App{
		Log:    log,
		Config: cfg,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.Log.Info("server listening", "addr", a.Config.Addr, "model", a.Config.Model)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(shutdownCtx)
		if a.otelShutdown != nil {
			_ = a.otelShutdown(shutdownCtx)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
