package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Environment string
	DatabaseURL string
	RedisAddr   string

	APIAddr      string
	MaxBodyBytes int64

	TLSCertFile        string
	TLSKeyFile         string
	TLSCAFile          string
	BranchNetworkCIDRs []string

	ApprovalSigningKey     string
	ApprovalThresholdCents int64
	ApprovalTokenTTL       time.Duration

	FeeIncomeAccount      string
	MiscIncomeAccount     string
	DraftLiabilityAccount string

	RateLimitPerMinute int
}

// Load reads configuration from environment variables. Required variables are
// reported together so an operator fixes one deploy, not one variable at a
// time.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:           os.Getenv("APP_ENV"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		APIAddr:               getEnv("API_ADDR", ":8080"),
		ApprovalSigningKey:    os.Getenv("APPROVAL_SIGNING_KEY"),
		FeeIncomeAccount:      getEnv("FEE_INCOME_ACCOUNT", "income:fees"),
		MiscIncomeAccount:     getEnv("MISC_INCOME_ACCOUNT", "income:misc"),
		DraftLiabilityAccount: getEnv("DRAFT_LIABILITY_ACCOUNT", "official_check:outstanding"),
		TLSCertFile:           os.Getenv("API_TLS_CERT"),
		TLSKeyFile:            os.Getenv("API_TLS_KEY"),
		TLSCAFile:             os.Getenv("API_TLS_CA"),
	}
	if cidrs := os.Getenv("BRANCH_NETWORK_CIDRS"); cidrs != "" {
		cfg.BranchNetworkCIDRs = strings.Split(cidrs, ",")
	}

	var err error
	if cfg.MaxBodyBytes, err = getEnvInt64("API_MAX_BODY_BYTES", 1<<20); err != nil {
		return nil, err
	}
	if cfg.ApprovalThresholdCents, err = getEnvInt64("APPROVAL_THRESHOLD_CENTS", 100_000); err != nil {
		return nil, err
	}
	ttlSeconds, err := getEnvInt64("APPROVAL_TOKEN_TTL_SECONDS", 900)
	if err != nil {
		return nil, err
	}
	cfg.ApprovalTokenTTL = time.Duration(ttlSeconds) * time.Second
	ratePerMinute, err := getEnvInt64("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitPerMinute = int(ratePerMinute)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var missing []string

	if c.Environment == "" {
		missing = append(missing, "APP_ENV")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.ApprovalSigningKey == "" {
		missing = append(missing, "APPROVAL_SIGNING_KEY")
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if c.ApprovalThresholdCents <= 0 {
		return errors.New("APPROVAL_THRESHOLD_CENTS must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("API_MAX_BODY_BYTES must be positive")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("API_TLS_CERT and API_TLS_KEY must be set together")
	}
	if c.Environment == "production" && len(c.ApprovalSigningKey) < 32 {
		return errors.New("APPROVAL_SIGNING_KEY must be at least 32 bytes in production")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
