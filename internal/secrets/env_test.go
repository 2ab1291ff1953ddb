package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider_Password(t *testing.T) {
	t.Setenv("PATRONPROXY_SECRET_DIKU_PATRON_USER", "s3cret")

	p, err := NewEnvProvider(nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, ProviderTypeEnv, p.Type())

	password, err := p.Password(context.Background(), "diku", "patron-user")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestEnvProvider_Password_NotFound(t *testing.T) {
	p, err := NewEnvProvider(nil)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Password(context.Background(), "diku", "no-such-user")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Contains(t, err.Error(), "PATRONPROXY_SECRET_DIKU_NO_SUCH_USER")
}

func TestEnvProvider_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_CRED_TEST_TENANT_ADMIN", "pw")

	p, err := NewEnvProvider(&EnvProviderConfig{Prefix: "MYAPP_CRED_"})
	require.NoError(t, err)
	defer p.Close()

	password, err := p.Password(context.Background(), "test.tenant", "admin")
	require.NoError(t, err)
	assert.Equal(t, "pw", password)
}

func TestEnvProvider_NormalizeEnvName(t *testing.T) {
	p, err := NewEnvProvider(nil)
	require.NoError(t, err)

	tests := []struct {
		tenant   string
		username string
		want     string
	}{
		{"diku", "patron", "PATRONPROXY_SECRET_DIKU_PATRON"},
		{"fs00001", "edge-user", "PATRONPROXY_SECRET_FS00001_EDGE_USER"},
		{"inst.one", "svc.patron", "PATRONPROXY_SECRET_INST_ONE_SVC_PATRON"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.normalizeEnvName(tt.tenant, tt.username))
	}
}
