package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all configuration settings for the patron proxy.
type Config struct {
	// Server settings
	HTTPPort    int    `yaml:"httpPort"`
	Address     string `yaml:"address"`
	MetricsPort int    `yaml:"metricsPort"`

	// Server timeouts
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`

	// Backend settings
	BackendURL string `yaml:"backendURL"`
	// RequestTimeout is the per-request budget applied to each outward
	// backend call (login, patron lookup, dispatch).
	RequestTimeout Duration `yaml:"requestTimeout"`

	// Token cache settings
	TokenCacheTTL Duration `yaml:"tokenCacheTTL"`

	// Patron id cache settings
	PatronCacheType  string   `yaml:"patronCacheType"` // memory, redis
	PatronCacheTTL   Duration `yaml:"patronCacheTTL"`  // 0 = process lifetime
	PatronCacheSize  int      `yaml:"patronCacheSize"`
	RedisAddress     string   `yaml:"redisAddress"`
	RedisPassword    string   `yaml:"redisPassword"`
	RedisDB          int      `yaml:"redisDB"`

	// Secrets Provider settings
	SecretsProvider  string            `yaml:"secretsProvider"` // env, static, vault
	SecretsEnvPrefix string            `yaml:"secretsEnvPrefix"`
	SecretsStatic    map[string]string `yaml:"secretsStatic"`
	VaultAddress     string            `yaml:"vaultAddress"`
	VaultToken       string            `yaml:"vaultToken"`
	VaultMountPath   string            `yaml:"vaultMountPath"`

	// Circuit breaker
	BreakerEnabled     bool     `yaml:"breakerEnabled"`
	BreakerMaxFailures uint32   `yaml:"breakerMaxFailures"`
	BreakerTimeout     Duration `yaml:"breakerTimeout"`

	// Observability - Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	LogOutput string `yaml:"logOutput"`

	// Observability - Tracing
	TracingEnabled bool    `yaml:"tracingEnabled"`
	OTLPEndpoint   string  `yaml:"otlpEndpoint"`
	SampleRate     float64 `yaml:"sampleRate"`
	ServiceName    string  `yaml:"serviceName"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		HTTPPort:        8081,
		MetricsPort:     9090,
		ReadTimeout:     Duration(30 * time.Second),
		WriteTimeout:    Duration(60 * time.Second),
		IdleTimeout:     Duration(120 * time.Second),
		ShutdownTimeout: Duration(15 * time.Second),

		RequestTimeout: Duration(30 * time.Second),
		TokenCacheTTL:  Duration(100 * time.Minute),

		PatronCacheType: "memory",
		PatronCacheSize: 10000,

		SecretsProvider:  "env",
		SecretsEnvPrefix: "PATRONPROXY_SECRET_",
		VaultMountPath:   "secret",

		BreakerEnabled:     false,
		BreakerMaxFailures: 5,
		BreakerTimeout:     Duration(30 * time.Second),

		LogLevel:  "info",
		LogFormat: "json",
		LogOutput: "stdout",

		SampleRate:  1.0,
		ServiceName: "patronproxy",
	}
}

// Validate checks the configuration for missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid httpPort: %d", c.HTTPPort)
	}

	if c.BackendURL == "" {
		return fmt.Errorf("backendURL is required")
	}
	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("invalid backendURL: %w", err)
	}

	if c.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("requestTimeout must be positive")
	}
	if c.TokenCacheTTL.Duration() <= 0 {
		return fmt.Errorf("tokenCacheTTL must be positive")
	}

	switch c.PatronCacheType {
	case "memory":
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("redisAddress is required for redis patron cache")
		}
	default:
		return fmt.Errorf("invalid patronCacheType: %s, must be one of: memory, redis", c.PatronCacheType)
	}

	switch c.SecretsProvider {
	case "env", "static":
	case "vault":
		if c.VaultAddress == "" {
			return fmt.Errorf("vaultAddress is required for vault secrets provider")
		}
	default:
		return fmt.Errorf("invalid secretsProvider: %s, must be one of: env, static, vault", c.SecretsProvider)
	}

	if c.TracingEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("otlpEndpoint is required when tracing is enabled")
	}

	return nil
}
