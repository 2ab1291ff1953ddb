package secrets

import (
	"context"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// DefaultVaultMountPath is the default KV v2 mount point for credentials
const DefaultVaultMountPath = "secret"

// passwordField is the key holding the login credential inside a Vault secret
const passwordField = "password"

// VaultProviderConfig holds configuration for the Vault secrets provider
type VaultProviderConfig struct {
	// Address is the Vault server address
	Address string
	// Token is the Vault token
	Token string
	// MountPath is the KV v2 secrets engine mount point
	// Default: "secret"
	MountPath string
	// Timeout is the request timeout
	Timeout time.Duration
	// Logger is the logger instance
	Logger *zap.Logger
}

// VaultProvider implements the Provider interface using HashiCorp Vault.
// Credentials live in the KV v2 engine under "{mount}/{tenant}/{username}"
// with the password stored in the "password" field.
type VaultProvider struct {
	client    *vault.Client
	mountPath string
	logger    *zap.Logger
}

// NewVaultProvider creates a new Vault secrets provider
func NewVaultProvider(cfg *VaultProviderConfig) (*VaultProvider, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("vault address is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mountPath := cfg.MountPath
	if mountPath == "" {
		mountPath = DefaultVaultMountPath
	}

	clientConfig := vault.DefaultConfig()
	clientConfig.Address = cfg.Address
	if cfg.Timeout > 0 {
		clientConfig.Timeout = cfg.Timeout
	}

	client, err := vault.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	logger.Info("Vault secrets provider initialized",
		zap.String("address", cfg.Address),
		zap.String("mountPath", mountPath),
	)

	return &VaultProvider{
		client:    client,
		mountPath: mountPath,
		logger:    logger,
	}, nil
}

// Type returns the provider type
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// Password retrieves a login credential from Vault
func (p *VaultProvider) Password(ctx context.Context, tenant, username string) (string, error) {
	start := time.Now()

	secretPath := tenant + "/" + username

	p.logger.Debug("Getting credential from vault",
		zap.String("mountPath", p.mountPath),
		zap.String("path", secretPath),
	)

	secret, err := p.client.KVv2(p.mountPath).Get(ctx, secretPath)
	if err != nil {
		RecordOperation(p.Type(), "get", time.Since(start), err)
		return "", fmt.Errorf("%w: vault read %s failed: %v", ErrSecretNotFound, secretPath, err)
	}

	value, ok := secret.Data[passwordField].(string)
	if !ok || value == "" {
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return "", fmt.Errorf("%w: secret %s has no %q field", ErrSecretNotFound, secretPath, passwordField)
	}

	RecordOperation(p.Type(), "get", time.Since(start), nil)
	return value, nil
}

// Close cleans up provider resources
func (p *VaultProvider) Close() error {
	p.logger.Debug("Closing vault secrets provider")
	return nil
}
