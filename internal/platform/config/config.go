// Package config builds runtime configuration from the environment so main
// stays lean. Everything is an explicit struct handed to constructors; no
// package reads ambient globals, which lets test and prod credential sets
// coexist in the same process.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the root configuration for the server process.
type Config struct {
	Addr          string
	PostgresDSN   string
	JWTSigningKey string
	Redis         RedisConfig
	TrustProvider TrustProviderConfig
	Withdrawal    WithdrawalConfig
	MicroDeposit  MicroDepositConfig
}

// RedisConfig holds connection settings for the verification attempt limiter.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TrustProviderConfig carries the credential set and endpoints for the
// external identity trust provider. Constructed once and injected into the
// provider client; never held as package state.
type TrustProviderConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CountryCode  string
	Strength     string
	Timeout      time.Duration
}

// WithdrawalConfig carries the financial knobs of the withdrawal lifecycle.
//
// MinPoints is the single source of truth for the minimum withdrawal; every
// entry point reads it from here. The historical system enforced 1,000 in
// some paths and 5,000 in others; product settled on one configurable value.
type WithdrawalConfig struct {
	MinPoints int64
}

// MicroDepositConfig carries the bank transfer gateway settings and the
// depositor tag used for 1-unit ownership verification transfers.
type MicroDepositConfig struct {
	DepositorName string
	GatewayURL    string
	APIKey        string
	MatchPolicy   string
	Timeout       time.Duration
}

// FromEnv builds a Config from environment variables with dev-friendly defaults.
func FromEnv() Config {
	return Config{
		Addr:          envOr("CASHOUT_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("CASHOUT_POSTGRES_DSN"),
		JWTSigningKey: envOr("CASHOUT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("CASHOUT_REDIS_URL"),
			PoolSize:     envInt("CASHOUT_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CASHOUT_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		TrustProvider: TrustProviderConfig{
			BaseURL:      envOr("TRUST_PROVIDER_BASE_URL", "https://svc.niceapi.co.kr:22001"),
			ClientID:     os.Getenv("TRUST_PROVIDER_CLIENT_ID"),
			ClientSecret: os.Getenv("TRUST_PROVIDER_CLIENT_SECRET"),
			CountryCode:  envOr("TRUST_PROVIDER_COUNTRY_CODE", "ko"),
			Strength:     envOr("TRUST_PROVIDER_ENC_STRENGTH", "standard"),
			Timeout:      10 * time.Second,
		},
		Withdrawal: WithdrawalConfig{
			MinPoints: int64(envInt("WITHDRAWAL_MIN_POINTS", 5000)),
		},
		MicroDeposit: MicroDepositConfig{
			DepositorName: envOr("MICRO_DEPOSIT_NAME", "campaignpay"),
			GatewayURL:    os.Getenv("MICRO_DEPOSIT_GATEWAY_URL"),
			APIKey:        os.Getenv("MICRO_DEPOSIT_GATEWAY_API_KEY"),
			MatchPolicy:   envOr("MICRO_DEPOSIT_MATCH_POLICY", "containment"),
			Timeout:       10 * time.Second,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
