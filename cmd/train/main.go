package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"minesweepers/internal/config"
	"minesweepers/internal/logging"
	"minesweepers/internal/train"
)

func main() {
	configPath := flag.String("config", "", "path to config file (embedded defaults when empty)")
	generations := flag.Int("generations", 100, "number of generations to run")
	flag.Parse()

	if err := run(*configPath, *generations); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, generations int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	console := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	logger, err := logging.NewLogger(cfg.Logging.Dir, console, cfg.Logging.EveryGenSummary)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Close()

	if logger.Dir() != "" {
		if err := cfg.WriteYAML(filepath.Join(logger.Dir(), "config.yaml")); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var exporter *logging.Exporter
	if cfg.Logging.MetricsAddr != "" {
		exporter = logging.NewExporter()
		srv := &http.Server{Addr: cfg.Logging.MetricsAddr, Handler: exporter.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				console.Error("metrics server", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		console.Info("serving metrics", "addr", cfg.Logging.MetricsAddr)
	}

	trainer, err := train.New(cfg, logger, exporter)
	if err != nil {
		return err
	}

	start := time.Now()
	err = trainer.Run(ctx, generations)
	best, _ := trainer.BestEver()
	console.Info("training finished",
		"generations", trainer.Engine().Generation(),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"best_ever", best,
		"run_dir", logger.Dir(),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
