package secrets

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/patronproxy/internal/config"
)

// NewFromConfig creates a secrets provider from the proxy configuration
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	providerType, err := ValidateProviderType(cfg.SecretsProvider)
	if err != nil {
		return nil, err
	}

	switch providerType {
	case ProviderTypeEnv:
		return NewEnvProvider(&EnvProviderConfig{
			Prefix: cfg.SecretsEnvPrefix,
			Logger: logger,
		})

	case ProviderTypeStatic:
		return NewStaticProvider(&StaticProviderConfig{
			Credentials: cfg.SecretsStatic,
			Logger:      logger,
		})

	case ProviderTypeVault:
		return NewVaultProvider(&VaultProviderConfig{
			Address:   cfg.VaultAddress,
			Token:     cfg.VaultToken,
			MountPath: cfg.VaultMountPath,
			Timeout:   cfg.RequestTimeout.Duration(),
			Logger:    logger,
		})

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderType, providerType)
	}
}
