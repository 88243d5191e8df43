// Package config provides configuration management for the parlay slip service.
package config

import (
	"fmt"
	"time"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Slip      SlipConfig      `mapstructure:"slip" validate:"required"`
	Store     StoreConfig     `mapstructure:"store" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Feed      FeedConfig      `mapstructure:"feed" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// SlipConfig represents bet slip rules
type SlipConfig struct {
	MaxLegs            int     `mapstructure:"max_legs" validate:"gte=0"`
	AllowCorrelated    bool    `mapstructure:"allow_correlated"`
	DefaultStake       float64 `mapstructure:"default_stake" validate:"gte=0"`
	MaxRoundRobinPool  int     `mapstructure:"max_round_robin_pool" validate:"required,gte=2,lte=20"`
	SessionIdleMinutes int     `mapstructure:"session_idle_minutes" validate:"required,gt=0"`
}

// StoreConfig selects where slips are persisted
type StoreConfig struct {
	Backend         string `mapstructure:"backend" validate:"required,storebackend"`
	CacheEnabled    bool   `mapstructure:"cache_enabled"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	RetryQueueSize  int    `mapstructure:"retry_queue_size" validate:"required,gt=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// RedisConfig represents redis connection configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	TTLHours int    `mapstructure:"ttl_hours" validate:"gte=0"`
}

// FeedConfig represents the suggestion feed client configuration
type FeedConfig struct {
	BaseURL         string  `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts   int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	APIKey          string  `mapstructure:"api_key"`
}

// ServerConfig represents the HTTP and gRPC listeners
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	GRPCPort            int      `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
	HealthPort          int      `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	CORSOrigins         []string `mapstructure:"cors_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds cron expressions for background jobs
type SchedulerConfig struct {
	PersistRetry       string   `mapstructure:"persist_retry" validate:"required"`
	SessionEviction    string   `mapstructure:"session_eviction" validate:"required"`
	SuggestionPrefetch string   `mapstructure:"suggestion_prefetch"`
	PrefetchSports     []string `mapstructure:"prefetch_sports"`
}

// LoggingConfig enables rotated file output in addition to stdout
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SessionIdleTimeout returns how long an untouched session is kept in memory
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Slip.SessionIdleMinutes) * time.Minute
}

// CacheTTL returns the slip read-cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Store.CacheTTLSeconds) * time.Second
}

// RedisTTL returns the expiry applied to stored slips, zero for none
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLHours) * time.Hour
}
