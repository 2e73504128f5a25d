package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from environment and an optional TOML file.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Media    MediaConfig
	Meetings MeetingsConfig
	Sweep    SweepConfig
	LogLevel string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StoreConfig selects the meeting store backend.
type StoreConfig struct {
	Driver string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout int
}

// RedisConfig holds Redis connection settings. An empty Addr disables events and the sweep queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds identity token validation settings.
type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpireHours int
}

// MediaConfig holds the media provider's token credentials.
type MediaConfig struct {
	APIKey      string
	Secret      string
	ValiditySec int
}

// MeetingsConfig holds meeting service defaults.
type MeetingsConfig struct {
	DefaultTitle string
	TimeZone     string
	MaxAttempts  int
	BaseURL      string
}

// SweepConfig controls the status sweep worker.
type SweepConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Location returns the configured time zone used for "today".
func (c MeetingsConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("meetings time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Interval returns the sweep interval.
func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// Validity returns how long issued media tokens stay valid.
func (c MediaConfig) Validity() time.Duration {
	return time.Duration(c.ValiditySec) * time.Second
}

type fileConfig struct {
	LogLevel string `toml:"log_level"`
	Server   struct {
		Port               string `toml:"port"`
		ReadTimeout        int    `toml:"read_timeout_sec"`
		WriteTimeout       int    `toml:"write_timeout_sec"`
		CORSAllowedOrigins string `toml:"cors_allowed_origins"`
	} `toml:"server"`
	Store struct {
		Driver string `toml:"driver"`
	} `toml:"store"`
	Database struct {
		URL      string `toml:"url"`
		MaxConns int    `toml:"max_conns"`
	} `toml:"database"`
	Mongo struct {
		URI      string `toml:"uri"`
		Database string `toml:"database"`
	} `toml:"mongo"`
	Redis struct {
		Addr string `toml:"addr"`
		DB   int    `toml:"db"`
	} `toml:"redis"`
	JWT struct {
		Issuer      string `toml:"issuer"`
		ExpireHours int    `toml:"expire_hours"`
	} `toml:"jwt"`
	Media struct {
		APIKey      string `toml:"api_key"`
		ValiditySec int    `toml:"validity_sec"`
	} `toml:"media"`
	Meetings struct {
		DefaultTitle string `toml:"default_title"`
		TimeZone     string `toml:"time_zone"`
		MaxAttempts  int    `toml:"max_attempts"`
		BaseURL      string `toml:"base_url"`
	} `toml:"meetings"`
	Sweep struct {
		Enabled     *bool `toml:"enabled"`
		IntervalSec int   `toml:"interval_sec"`
		BatchSize   int   `toml:"batch_size"`
	} `toml:"sweep"`
}

// Load reads configuration from .env files, the TOML file named by CONFIG_FILE,
// then environment variables. Secrets are only read from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)

	switch cfg.Store.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if _, err := cfg.Meetings.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			CORSAllowedOrigins: "http://localhost:3000",
		},
		Store: StoreConfig{Driver: DriverPostgres},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "meetings",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "meetings",
			ConnectTimeout: 10,
		},
		JWT: JWTConfig{
			Secret:      "change-me-in-production",
			ExpireHours: 24,
		},
		Media: MediaConfig{ValiditySec: 3600},
		Meetings: MeetingsConfig{
			DefaultTitle: "Untitled Meeting",
			TimeZone:     "UTC",
			MaxAttempts:  3,
		},
		Sweep: SweepConfig{
			Enabled:     true,
			IntervalSec: 60,
			BatchSize:   100,
		},
	}
}

func loadFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.Server.Port, fc.Server.Port)
	setInt(&cfg.Server.ReadTimeout, fc.Server.ReadTimeout)
	setInt(&cfg.Server.WriteTimeout, fc.Server.WriteTimeout)
	setString(&cfg.Server.CORSAllowedOrigins, fc.Server.CORSAllowedOrigins)
	setString(&cfg.Store.Driver, fc.Store.Driver)
	setString(&cfg.Database.URL, fc.Database.URL)
	setInt(&cfg.Database.MaxConns, fc.Database.MaxConns)
	setString(&cfg.Mongo.URI, fc.Mongo.URI)
	setString(&cfg.Mongo.Database, fc.Mongo.Database)
	setString(&cfg.Redis.Addr, fc.Redis.Addr)
	setInt(&cfg.Redis.DB, fc.Redis.DB)
	setString(&cfg.JWT.Issuer, fc.JWT.Issuer)
	setInt(&cfg.JWT.ExpireHours, fc.JWT.ExpireHours)
	setString(&cfg.Media.APIKey, fc.Media.APIKey)
	setInt(&cfg.Media.ValiditySec, fc.Media.ValiditySec)
	setString(&cfg.Meetings.DefaultTitle, fc.Meetings.DefaultTitle)
	setString(&cfg.Meetings.TimeZone, fc.Meetings.TimeZone)
	setInt(&cfg.Meetings.MaxAttempts, fc.Meetings.MaxAttempts)
	setString(&cfg.Meetings.BaseURL, fc.Meetings.BaseURL)
	if fc.Sweep.Enabled != nil {
		cfg.Sweep.Enabled = *fc.Sweep.Enabled
	}
	setInt(&cfg.Sweep.IntervalSec, fc.Sweep.IntervalSec)
	setInt(&cfg.Sweep.BatchSize, fc.Sweep.BatchSize)
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvInt("READ_TIMEOUT_SEC", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("WRITE_TIMEOUT_SEC", cfg.Server.WriteTimeout)
	cfg.Server.CORSAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.Server.CORSAllowedOrigins)

	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", cfg.Store.Driver))

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", cfg.Database.MaxConns)

	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", cfg.Mongo.Database)
	cfg.Mongo.ConnectTimeout = getEnvInt("MONGO_CONNECT_TIMEOUT_SEC", cfg.Mongo.ConnectTimeout)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.ExpireHours = getEnvInt("JWT_EXPIRE_HOURS", cfg.JWT.ExpireHours)

	cfg.Media.APIKey = getEnv("MEDIA_API_KEY", cfg.Media.APIKey)
	cfg.Media.Secret = getEnv("MEDIA_SECRET", cfg.Media.Secret)
	cfg.Media.ValiditySec = getEnvInt("MEDIA_TOKEN_VALIDITY_SEC", cfg.Media.ValiditySec)

	cfg.Meetings.DefaultTitle = getEnv("MEETING_DEFAULT_TITLE", cfg.Meetings.DefaultTitle)
	cfg.Meetings.TimeZone = getEnv("MEETING_TIME_ZONE", cfg.Meetings.TimeZone)
	cfg.Meetings.MaxAttempts = getEnvInt("MEETING_MAX_ATTEMPTS", cfg.Meetings.MaxAttempts)
	cfg.Meetings.BaseURL = getEnv("MEETING_BASE_URL", cfg.Meetings.BaseURL)

	cfg.Sweep.Enabled = getEnvBool("SWEEP_ENABLED", cfg.Sweep.Enabled)
	cfg.Sweep.IntervalSec = getEnvInt("SWEEP_INTERVAL_SEC", cfg.Sweep.IntervalSec)
	cfg.Sweep.BatchSize = getEnvInt("SWEEP_BATCH_SIZE", cfg.Sweep.BatchSize)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
