// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Cache backends accepted by CacheBackend.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone used for day and month boundaries.
	Timezone string `koanf:"timezone"`

	// AssumedWorkingDays is the month length used by the absence approximation.
	AssumedWorkingDays int `koanf:"assumed_working_days"`

	// WorkerCount sets the number of report workers for company fan-out.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory report job queue. A company with more
	// drivers than this still fans out; submitters wait for room.
	QueueSize int `koanf:"queue_size"`

	// EnqueueTimeoutMs is how long a fan-out waits for queue room before the
	// request fails with backpressure.
	EnqueueTimeoutMs int `koanf:"enqueue_timeout_ms"`

	// DedupeSize sets how many event IDs the ingest guard remembers.
	DedupeSize int `koanf:"dedupe_size"`

	// DatabaseDSN points at the sqlite database. Empty keeps everything in memory.
	DatabaseDSN string `koanf:"database_dsn"`

	// CacheBackend is one of none, memory, redis.
	CacheBackend string `koanf:"cache_backend"`

	// CacheTTLSeconds is how long cached reports live.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Timezone:           "UTC",
		AssumedWorkingDays: 22,
		WorkerCount:        runtime.NumCPU() * 2,
		QueueSize:          1_024,
		EnqueueTimeoutMs:   5_000,
		DedupeSize:         100_000,
		CacheBackend:       CacheNone,
		CacheTTLSeconds:    60,
		RedisAddr:          "localhost:6379",
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// EnqueueTimeout returns EnqueueTimeoutMs as a duration.
func (c *Config) EnqueueTimeout() time.Duration {
	return time.Duration(c.EnqueueTimeoutMs) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.EnqueueTimeoutMs <= 0 {
		return fmt.Errorf("%w: enqueue_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.AssumedWorkingDays <= 0 {
		return fmt.Errorf("%w: assumed_working_days must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr required for redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	if c.CacheBackend != CacheNone && c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
