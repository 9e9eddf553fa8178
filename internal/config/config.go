package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App       AppConfig
	Telegram  TelegramConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Broadcast BroadcastConfig
	Access    AccessConfig
	Export    ExportConfig
	Worktime  WorktimeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// TelegramConfig holds platform client values. When WebhookURL is empty the
// bot runs in long-polling mode.
type TelegramConfig struct {
	Token              string
	WebhookURL         string
	MainAdminID        int64
	PollTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// BroadcastConfig tunes the broadcast engine.
type BroadcastConfig struct {
	SendDelayMillis int
	ProgressEvery   int
}

// AccessConfig bounds the admin roster.
type AccessConfig struct {
	MaxAdmins int
}

// ExportConfig defines backup export token parameters.
type ExportConfig struct {
	TokenSecret     string
	TokenTTLMinutes int
}

// WorktimeConfig sets the default studio working-hours window.
type WorktimeConfig struct {
	OpenHour  int
	CloseHour int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	mainAdminID, err := strconv.ParseInt(getEnv("MAIN_ADMIN_ID", "0"), 10, 64)
	if err != nil || mainAdminID <= 0 {
		return nil, fmt.Errorf("invalid MAIN_ADMIN_ID: %q", os.Getenv("MAIN_ADMIN_ID"))
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "aftercare-bot"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("APP_HOST", "0.0.0.0"),
			Port:    getEnv("APP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Telegram: TelegramConfig{
			Token:              token,
			WebhookURL:         os.Getenv("TELEGRAM_WEBHOOK_URL"),
			MainAdminID:        mainAdminID,
			PollTimeoutSeconds: getEnvAsInt("TELEGRAM_POLL_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Broadcast: BroadcastConfig{
			SendDelayMillis: getEnvAsInt("BROADCAST_SEND_DELAY_MILLIS", 120),
			ProgressEvery:   getEnvAsInt("BROADCAST_PROGRESS_EVERY", 5),
		},
		Access: AccessConfig{
			MaxAdmins: getEnvAsInt("ACCESS_MAX_ADMINS", 10),
		},
		Export: ExportConfig{
			TokenSecret:     getEnv("EXPORT_TOKEN_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("EXPORT_TOKEN_TTL_MINUTES", 15),
		},
		Worktime: WorktimeConfig{
			OpenHour:  getEnvAsInt("WORKTIME_OPEN_HOUR", 10),
			CloseHour: getEnvAsInt("WORKTIME_CLOSE_HOUR", 21),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// SendDelay returns the inter-send pause used by the broadcast engine.
func (b BroadcastConfig) SendDelay() time.Duration {
	if b.SendDelayMillis <= 0 {
		return 0
	}
	return time.Duration(b.SendDelayMillis) * time.Millisecond
}

// TokenTTL returns the export token lifetime.
func (e ExportConfig) TokenTTL() time.Duration {
	if e.TokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(e.TokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
