// Package main runs the meeting status sweep worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/aura-meetings/backend/config"
	"github.com/aura-meetings/backend/internal/app"
	"github.com/aura-meetings/backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	a, err := app.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("open app", zap.Error(err))
	}
	defer a.Close()
	if a.Queue == nil {
		logger.Fatal("worker requires REDIS_ADDR")
	}

	loc, _ := cfg.Meetings.Location()
	scanner := worker.NewScanner(a.Store, a.Queue, worker.ScannerOptions{
		Interval:  cfg.Sweep.Interval(),
		BatchSize: cfg.Sweep.BatchSize,
		Location:  loc,
	}, logger)
	processor := worker.NewStatusProcessor(a.Meetings, a.Queue, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	g.Add(func() error { return scanner.Run(ctx) }, func(error) { cancel() })
	g.Add(func() error { return processor.Run(ctx) }, func(error) { cancel() })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	g.Add(func() error {
		select {
		case sig := <-quit:
			logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		return nil
	}, func(error) {
		signal.Stop(quit)
		cancel()
	})

	logger.Info("worker started")
	if err := g.Run(); err != nil {
		logger.Error("worker exited", zap.Error(err))
	}
	logger.Info("worker stopped")
}
