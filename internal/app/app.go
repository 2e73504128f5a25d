// Package app wires configuration into the meeting service and its backends.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-meetings/backend/config"
	"github.com/aura-meetings/backend/internal/auth"
	"github.com/aura-meetings/backend/internal/events"
	"github.com/aura-meetings/backend/internal/media"
	"github.com/aura-meetings/backend/internal/meetings"
	"github.com/aura-meetings/backend/internal/store"
	"github.com/aura-meetings/backend/internal/store/memory"
	meetingmongo "github.com/aura-meetings/backend/internal/store/mongo"
	"github.com/aura-meetings/backend/internal/store/postgres"
	"github.com/aura-meetings/backend/pkg/database"
	"github.com/aura-meetings/backend/pkg/mongodb"
	"github.com/aura-meetings/backend/pkg/queue"
	"github.com/aura-meetings/backend/pkg/redis"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    store.Store
	Meetings *meetings.Service
	JWT      *auth.JWTService
	// Events and Queue are nil when Redis is not configured.
	Events *events.RedisPublisher
	Queue  *queue.Queue

	pool  *pgxpool.Pool
	mongo *meetingmongo.Store
	redis *redis.Client
}

// NewLogger builds the production JSON logger at level.
func NewLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Open connects the configured store and optional Redis, then builds the service.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config: cfg,
		Logger: logger,
		JWT:    auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours),
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	var publisher meetings.Publisher = events.Nop{}
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb
		a.Events = events.NewRedisPublisher(rdb.Client, logger)
		a.Queue = queue.NewQueue(rdb.Client, logger)
		publisher = a.Events
	} else {
		logger.Info("redis not configured, meeting events disabled")
	}

	loc, err := cfg.Meetings.Location()
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := meetings.Options{
		DefaultTitle: cfg.Meetings.DefaultTitle,
		MaxAttempts:  cfg.Meetings.MaxAttempts,
		BaseURL:      cfg.Meetings.BaseURL,
		Location:     loc,
		Publisher:    publisher,
	}
	if issuer := media.NewIssuer(cfg.Media.APIKey, cfg.Media.Secret, cfg.Media.Validity()); issuer.Configured() {
		opts.Tokens = issuer
	} else {
		logger.Info("media credentials not set, media tokens disabled")
	}
	a.Meetings = meetings.NewService(a.Store, opts, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), a.Logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		a.pool = pool
		a.Store = postgres.New(pool)
	case config.DriverMongo:
		timeout := time.Duration(cfg.Mongo.ConnectTimeout) * time.Second
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI, timeout, a.Logger)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		a.mongo = meetingmongo.New(client.Database(cfg.Mongo.Database))
		a.Store = a.mongo
	case config.DriverMemory:
		a.Logger.Warn("using in-memory meeting store, data is lost on restart")
		a.Store = memory.New()
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return nil
}

// Migrate prepares the store schema: SQL migrations for Postgres, indexes for Mongo.
func (a *App) Migrate(ctx context.Context) error {
	switch {
	case a.pool != nil:
		return database.Migrate(ctx, a.pool, a.Logger)
	case a.mongo != nil:
		if err := a.mongo.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.Logger.Info("mongo indexes ensured")
	}
	return nil
}

// Close releases the store and Redis connections.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			a.Logger.Warn("store close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
