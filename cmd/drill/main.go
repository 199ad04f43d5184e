// Command drill runs the arithmetic drill in a terminal, against the HTTP
// backend or fully in-process with -offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/keisan-drill/backend/internal/cli"
	"github.com/keisan-drill/backend/internal/client"
	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/grader"
	"github.com/keisan-drill/backend/internal/infrastructure/config"
	"github.com/keisan-drill/backend/internal/logging"
	"github.com/keisan-drill/backend/internal/notion"
	"github.com/keisan-drill/backend/internal/report"
	"github.com/keisan-drill/backend/internal/service"
	"github.com/keisan-drill/backend/internal/simulation"
	"github.com/keisan-drill/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run returns the exit code so deferred cleanup of the offline store
// always happens.
func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("drill", flag.ContinueOnError)
	serverURL := fs.String("server", envOr("DRILL_SERVER", client.DefaultBaseURL), "backend base URL")
	strict := fs.Bool("strict", false, "only accept answers made of digits")
	offline := fs.Bool("offline", false, "generate questions and store results locally instead of calling the backend")
	simulate := fs.Int("simulate", 0, "play N sessions automatically and print their summaries")
	accuracy := fs.Float64("accuracy", 0.8, "chance of a correct answer in -simulate mode")
	workers := fs.Int("workers", 4, "concurrent sessions in -simulate mode")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var (
		source practicesession.Source
		sink   report.Sink
	)
	if *offline {
		quiz, reports, cleanup, err := openLocal(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "drill:", err)
			return 1
		}
		defer cleanup()
		source, sink = quiz, reports
	} else {
		c := client.NewHTTPClient(*serverURL, nil)
		source, sink = c, c
	}

	if *simulate > 0 {
		outcomes := simulation.Run(ctx, source, sink, simulation.Options{
			Sessions: *simulate,
			Workers:  *workers,
			Accuracy: *accuracy,
		})
		if failed := printOutcomes(outcomes); failed > 0 {
			return 1
		}
		return 0
	}

	runner := &cli.Runner{
		Source:  source,
		Sink:    sink,
		Options: []practicesession.Option{practicesession.WithEvaluator(grader.Evaluator{Strict: *strict})},
	}
	if err := runner.Run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "drill:", err)
		return 1
	}
	return 0
}

// openLocal wires the same services the server uses, logging to the
// configured file only so the terminal stays clean.
func openLocal(ctx context.Context) (*service.QuizService, *service.ReportService, func(), error) {
	cfg := config.LoadLocal()

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := slog.New(slog.DiscardHandler)
	logCloser := func() error { return nil }
	if cfg.LogFile != "" {
		l, c := logging.New(logging.Options{File: cfg.LogFile, Debug: settings.Current().Debug})
		logger, logCloser = l, c.Close
	}

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logCloser()
		return nil, nil, nil, err
	}

	var uploader service.Uploader
	if cfg.UploadEnabled() {
		uploader = notion.New(cfg.NotionAPIKey,
			notion.WithBaseURL(cfg.NotionBaseURL),
			notion.WithTimeout(cfg.NotionTimeout),
		)
	}
	reports := service.NewReportService(db, uploader, service.ReportOptions{
		DatabaseID:  cfg.NotionDatabaseID,
		MaxAttempts: cfg.UploadMaxAttempts,
		Workers:     cfg.UploadWorkers,
	}, logger)

	cleanup := func() {
		// Close waits for uploads already started
		reports.Close()
		db.Close()
		logCloser()
	}
	return service.NewQuizService(settings, nil), reports, cleanup, nil
}

func printOutcomes(outcomes []simulation.Outcome) int {
	failed := 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			fmt.Printf("%s  error: %v\n", o.SessionID, o.Err)
		case o.ReportErr != nil:
			failed++
			fmt.Printf("%s  %d/%d  %.1f%%  %.2fs  report: %v\n", o.SessionID,
				o.Summary.CorrectCount, o.Summary.Total, o.Summary.Accuracy, o.Summary.AverageTime, o.ReportErr)
		default:
			fmt.Printf("%s  %d/%d  %.1f%%  %.2fs\n", o.SessionID,
				o.Summary.CorrectCount, o.Summary.Total, o.Summary.Accuracy, o.Summary.AverageTime)
		}
	}
	return failed
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
