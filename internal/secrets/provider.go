// Package secrets provides the credential store backing backend logins, with
// support for environment variable, static, and HashiCorp Vault backends.
package secrets

import (
	"context"
	"errors"
	"fmt"
)

// ProviderType represents the type of secrets provider.
type ProviderType string

const (
	// ProviderTypeEnv reads credentials from environment variables.
	ProviderTypeEnv ProviderType = "env"
	// ProviderTypeStatic reads credentials from an in-memory map.
	ProviderTypeStatic ProviderType = "static"
	// ProviderTypeVault reads credentials from HashiCorp Vault.
	ProviderTypeVault ProviderType = "vault"
)

// Common errors for secrets providers.
var (
	// ErrSecretNotFound is returned when no credential exists for the
	// requested identity.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidProviderType is returned when an unknown provider type is
	// specified.
	ErrInvalidProviderType = errors.New("invalid provider type")
)

// Provider supplies the institutional user password used for backend logins.
// The credential itself is opaque to the rest of the proxy.
type Provider interface {
	// Type returns the provider type.
	Type() ProviderType

	// Password returns the login credential for a tenant-scoped user.
	Password(ctx context.Context, tenant, username string) (string, error)

	// Close cleans up provider resources.
	Close() error
}

// ValidateProviderType validates that the given string is a known provider type.
func ValidateProviderType(providerType string) (ProviderType, error) {
	switch ProviderType(providerType) {
	case ProviderTypeEnv, ProviderTypeStatic, ProviderTypeVault:
		return ProviderType(providerType), nil
	default:
		return "", fmt.Errorf("%w: %s, must be one of: env, static, vault", ErrInvalidProviderType, providerType)
	}
}
