package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StaticProviderConfig holds configuration for the static secrets provider
type StaticProviderConfig struct {
	// Credentials maps "tenant/username" to a password
	Credentials map[string]string
	// Logger is the logger instance
	Logger *zap.Logger
}

// StaticProvider implements the Provider interface using an in-memory map.
// Intended for development and tests.
type StaticProvider struct {
	mu          sync.RWMutex
	credentials map[string]string
	logger      *zap.Logger
}

// NewStaticProvider creates a new static secrets provider
func NewStaticProvider(cfg *StaticProviderConfig) (*StaticProvider, error) {
	if cfg == nil {
		cfg = &StaticProviderConfig{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	credentials := make(map[string]string, len(cfg.Credentials))
	for k, v := range cfg.Credentials {
		credentials[k] = v
	}

	return &StaticProvider{
		credentials: credentials,
		logger:      logger,
	}, nil
}

// Type returns the provider type
func (p *StaticProvider) Type() ProviderType {
	return ProviderTypeStatic
}

// credentialKey builds the map key for a tenant-scoped user
func credentialKey(tenant, username string) string {
	return tenant + "/" + username
}

// Password retrieves a login credential from the in-memory map
func (p *StaticProvider) Password(ctx context.Context, tenant, username string) (string, error) {
	start := time.Now()

	p.mu.RLock()
	value, exists := p.credentials[credentialKey(tenant, username)]
	p.mu.RUnlock()

	if !exists {
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return "", fmt.Errorf("%w: no credential for %s/%s", ErrSecretNotFound, tenant, username)
	}

	RecordOperation(p.Type(), "get", time.Since(start), nil)
	return value, nil
}

// SetPassword stores a login credential for a tenant-scoped user
func (p *StaticProvider) SetPassword(tenant, username, password string) {
	p.mu.Lock()
	p.credentials[credentialKey(tenant, username)] = password
	p.mu.Unlock()
}

// Close cleans up provider resources
func (p *StaticProvider) Close() error {
	p.logger.Debug("Closing static secrets provider")
	return nil
}
