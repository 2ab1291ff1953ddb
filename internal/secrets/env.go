package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultEnvPrefix is the default prefix for environment variable secrets
const DefaultEnvPrefix = "PATRONPROXY_SECRET_"

// EnvProviderConfig holds configuration for the environment variable secrets provider
type EnvProviderConfig struct {
	// Prefix is the prefix for environment variables
	// Default: "PATRONPROXY_SECRET_"
	Prefix string
	// Logger is the logger instance
	Logger *zap.Logger
}

// EnvProvider implements the Provider interface using environment variables.
// The credential for tenant "diku" and user "patron-user" is read from
// "{PREFIX}DIKU_PATRON_USER".
type EnvProvider struct {
	prefix string
	logger *zap.Logger
}

// NewEnvProvider creates a new environment variable secrets provider
func NewEnvProvider(cfg *EnvProviderConfig) (*EnvProvider, error) {
	if cfg == nil {
		cfg = &EnvProviderConfig{}
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EnvProvider{
		prefix: prefix,
		logger: logger,
	}, nil
}

// Type returns the provider type
func (p *EnvProvider) Type() ProviderType {
	return ProviderTypeEnv
}

// normalizeEnvName converts a tenant and username to an environment variable name
// - Converts to uppercase
// - Replaces dashes and dots with underscores
// - Adds the configured prefix
func (p *EnvProvider) normalizeEnvName(tenant, username string) string {
	name := strings.ToUpper(tenant + "_" + username)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")

	return p.prefix + name
}

// Password retrieves a login credential from environment variables
func (p *EnvProvider) Password(ctx context.Context, tenant, username string) (string, error) {
	start := time.Now()

	envName := p.normalizeEnvName(tenant, username)

	p.logger.Debug("Getting credential from environment variable",
		zap.String("tenant", tenant),
		zap.String("username", username),
		zap.String("envVar", envName),
	)

	value, exists := os.LookupEnv(envName)
	if !exists {
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return "", fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envName)
	}

	RecordOperation(p.Type(), "get", time.Since(start), nil)
	return value, nil
}

// Close cleans up provider resources
func (p *EnvProvider) Close() error {
	p.logger.Debug("Closing environment secrets provider")
	return nil
}
