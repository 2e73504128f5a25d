// Package main runs the meeting API server with graceful shutdown.
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

	"github.com/gin-gonic/gin"
	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/aura-meetings/backend/config"
	"github.com/aura-meetings/backend/internal/app"
	"github.com/aura-meetings/backend/internal/meetings"
	"github.com/aura-meetings/backend/internal/middleware"
	"github.com/aura-meetings/backend/internal/worker"
	"github.com/aura-meetings/backend/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open app", zap.Error(err))
	}
	defer a.Close()

	if err := a.Migrate(ctx); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Protected API (identity token required)
	api := router.Group("")
	api.Use(middleware.JWT(a.JWT))
	meetings.NewHandler(a.Meetings).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	var g run.Group

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	g.Add(func() error {
		select {
		case sig := <-quit:
			logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		case <-done:
		}
		return nil
	}, func(error) {
		signal.Stop(quit)
		close(done)
	})

	g.Add(func() error {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	})

	// In-process status sweep for single-binary deployments with Redis.
	if cfg.Sweep.Enabled && a.Queue != nil {
		workerCtx, workerCancel := context.WithCancel(context.Background())
		loc, _ := cfg.Meetings.Location()
		scanner := worker.NewScanner(a.Store, a.Queue, worker.ScannerOptions{
			Interval:  cfg.Sweep.Interval(),
			BatchSize: cfg.Sweep.BatchSize,
			Location:  loc,
		}, logger)
		processor := worker.NewStatusProcessor(a.Meetings, a.Queue, logger)
		g.Add(func() error { return scanner.Run(workerCtx) }, func(error) { workerCancel() })
		g.Add(func() error { return processor.Run(workerCtx) }, func(error) { workerCancel() })
		logger.Info("status sweep started", zap.Duration("interval", cfg.Sweep.Interval()))
	}

	if err := g.Run(); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}
