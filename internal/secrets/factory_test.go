package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/patronproxy/internal/config"
)

func TestValidateProviderType(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderType
		wantErr bool
	}{
		{"env", ProviderTypeEnv, false},
		{"static", ProviderTypeStatic, false},
		{"vault", ProviderTypeVault, false},
		{"kubernetes", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateProviderType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProviderType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFromConfig_Env(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SecretsProvider = "env"

	p, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, ProviderTypeEnv, p.Type())
}

func TestNewFromConfig_Static(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SecretsProvider = "static"
	cfg.SecretsStatic = map[string]string{"diku/user": "pw"}

	p, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, ProviderTypeStatic, p.Type())

	password, err := p.Password(context.Background(), "diku", "user")
	require.NoError(t, err)
	assert.Equal(t, "pw", password)
}

func TestNewFromConfig_Vault(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SecretsProvider = "vault"
	cfg.VaultAddress = "http://127.0.0.1:8200"
	cfg.VaultToken = "test-token"

	p, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, ProviderTypeVault, p.Type())
}

func TestNewFromConfig_InvalidType(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SecretsProvider = "consul"

	_, err := NewFromConfig(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidProviderType)
}
