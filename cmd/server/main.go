package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keisan-drill/backend/internal/api"
	"github.com/keisan-drill/backend/internal/infrastructure/config"
	"github.com/keisan-drill/backend/internal/logging"
	"github.com/keisan-drill/backend/internal/metrics"
	"github.com/keisan-drill/backend/internal/notion"
	"github.com/keisan-drill/backend/internal/service"
	"github.com/keisan-drill/backend/internal/store"

	_ "github.com/keisan-drill/backend/docs" // generated swagger docs
)

// @title           Keisan Drill API
// @version         1.0
// @description     Arithmetic drill backend: serves questions, stores finished sessions and uploads them to Notion.

// @host      localhost:5000
// @BasePath  /

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run serves until ctx is done and returns the process exit code. Every
// resource it opens is closed before it returns.
func run(ctx context.Context) int {
	cfg := config.Load()

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		// logger is not up yet
		fmt.Fprintln(os.Stderr, "failed to load settings:", err)
		return 1
	}

	logger, logCloser := logging.New(logging.Options{File: cfg.LogFile, Debug: settings.Current().Debug})
	defer logCloser.Close()

	settings.Watch(logger)
	metrics.Init()

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		return 1
	}
	defer db.Close()

	var uploader service.Uploader
	if cfg.UploadEnabled() {
		uploader = notion.New(cfg.NotionAPIKey,
			notion.WithBaseURL(cfg.NotionBaseURL),
			notion.WithTimeout(cfg.NotionTimeout),
		)
	} else {
		logger.Warn("NOTION_API_KEY or NOTION_DATABASE_ID not set, sessions will be stored but not uploaded")
	}

	reports := service.NewReportService(db, uploader, service.ReportOptions{
		DatabaseID:  cfg.NotionDatabaseID,
		MaxAttempts: cfg.UploadMaxAttempts,
		Workers:     cfg.UploadWorkers,
	}, logger)
	defer reports.Close()

	quiz := service.NewQuizService(settings, nil)
	handler := api.NewHandler(quiz, reports, db, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(cfg.CORSOrigins)(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "address", cfg.ServerAddress, "upload_enabled", reports.Enabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return reports.Run(gctx, cfg.UploadRetryInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return 1
	}
	logger.Info("server stopped")
	return 0
}
