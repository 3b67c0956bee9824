package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the account security
// service. It merges file defaults and environment overrides to support both
// local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	ServiceTokenSecret string

	BcryptCost int

	SessionTTL             time.Duration
	DefaultLockoutDuration time.Duration
	PolicyCacheTTL         time.Duration
	StoreRetryAttempts     int
	StoreRetryBackoff      time.Duration
	AlertEmitTimeout       time.Duration

	MaxDBConns int32

	SweepInterval time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int

	GeoIPTable map[string]string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Security struct {
		ServiceTokenSecret string `yaml:"service_token_secret"`
		BcryptCost         int    `yaml:"bcrypt_cost"`
	} `yaml:"security"`
	GeoIP struct {
		Table map[string]string `yaml:"table"`
	} `yaml:"geoip"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "Account-Security-Service",
		HTTPPort:               8080,
		BcryptCost:             12,
		SessionTTL:             24 * time.Hour,
		DefaultLockoutDuration: 30 * time.Minute,
		PolicyCacheTTL:         5 * time.Minute,
		StoreRetryAttempts:     3,
		StoreRetryBackoff:      50 * time.Millisecond,
		AlertEmitTimeout:       3 * time.Second,
		MaxDBConns:             20,
		SweepInterval:          time.Minute,
		OutboxPollInterval:     2 * time.Second,
		OutboxBatchSize:        100,
		OutboxClaimTTL:         30 * time.Second,
		OutboxMaxRetries:       5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Security.ServiceTokenSecret != "" {
			cfg.ServiceTokenSecret = f.Security.ServiceTokenSecret
		}
		if f.Security.BcryptCost > 0 {
			cfg.BcryptCost = f.Security.BcryptCost
		}
		if len(f.GeoIP.Table) > 0 {
			cfg.GeoIPTable = f.GeoIP.Table
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.ServiceTokenSecret = envOrDefault("SERVICE_TOKEN_SECRET", cfg.ServiceTokenSecret)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.StoreRetryAttempts = envInt("STORE_RETRY_ATTEMPTS", cfg.StoreRetryAttempts)

	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour
	cfg.DefaultLockoutDuration = time.Duration(envInt("LOCKOUT_DURATION_MINUTES", int(cfg.DefaultLockoutDuration.Minutes()))) * time.Minute
	cfg.PolicyCacheTTL = time.Duration(envInt("POLICY_CACHE_TTL_SECONDS", int(cfg.PolicyCacheTTL.Seconds()))) * time.Second
	cfg.SweepInterval = time.Duration(envInt("SESSION_SWEEP_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.ServiceTokenSecret == "" {
		return Config{}, fmt.Errorf("missing SERVICE_TOKEN_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
