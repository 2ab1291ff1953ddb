package apikey

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	key, err := Generate("client1", "diku", "diku")
	require.NoError(t, err)
	require.NotEmpty(t, key)

	info, err := Parse(key)
	require.NoError(t, err)
	assert.Equal(t, "client1", info.ClientID)
	assert.Equal(t, "diku", info.TenantID)
	assert.Equal(t, "diku", info.Username)
}

func TestGenerateRequiresAllParts(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		tenantID string
		username string
	}{
		{"missing clientID", "", "diku", "diku"},
		{"missing tenantID", "client1", "", "diku"},
		{"missing username", "client1", "diku", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.clientID, tt.tenantID, tt.username)
			assert.Error(t, err)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty key", ""},
		{"not base64", "!!!not-base64!!!"},
		{"not json", base64.RawURLEncoding.EncodeToString([]byte("plain text"))},
		{"incomplete identity", base64.RawURLEncoding.EncodeToString([]byte(`{"s":"client1","t":"diku"}`))},
		{"empty fields", base64.RawURLEncoding.EncodeToString([]byte(`{"s":"","t":"","u":""}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Parse(tt.key)
			assert.Nil(t, info)
			assert.ErrorIs(t, err, ErrMalformedKey)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	key, err := Generate("c", "t", "u")
	require.NoError(t, err)

	first, err := Parse(key)
	require.NoError(t, err)

	second, err := Parse(key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestQueryExtractor(t *testing.T) {
	e := NewQueryExtractor("")

	r := httptest.NewRequest("GET", "/account/123?apikey=abc", nil)
	assert.Equal(t, "abc", e.Extract(r))

	r = httptest.NewRequest("GET", "/account/123", nil)
	assert.Empty(t, e.Extract(r))

	r = httptest.NewRequest("GET", "/account/123?apikey=", nil)
	assert.Empty(t, e.Extract(r))
}

func TestDefaultExtractor(t *testing.T) {
	e := DefaultExtractor()

	key, err := Generate("client1", "diku", "diku")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/account/123?apikey="+key, nil)
	assert.Equal(t, key, e.Extract(r))
}
