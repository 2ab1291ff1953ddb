package apikey

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedKey indicates that an API key is absent, empty, or not a valid
// encoding. Callers must not distinguish malformed keys from unknown ones in
// anything sent back to the client.
var ErrMalformedKey = errors.New("malformed API key")

// ClientInfo is the identity carried by an API key. It is derived once per
// request and never persisted.
type ClientInfo struct {
	ClientID string
	TenantID string
	Username string
}

// keyPayload is the wire form of an API key before base64 encoding.
type keyPayload struct {
	ClientID string `json:"s"`
	TenantID string `json:"t"`
	Username string `json:"u"`
}

// Parse decodes an API key into a ClientInfo. It performs no I/O and is
// deterministic for a given key. Any key that cannot be decoded into a
// complete identity fails with ErrMalformedKey.
func Parse(key string) (*ClientInfo, error) {
	if key == "" {
		return nil, ErrMalformedKey
	}

	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedKey, err)
	}

	var payload keyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedKey, err)
	}

	if payload.ClientID == "" || payload.TenantID == "" || payload.Username == "" {
		return nil, fmt.Errorf("%w: incomplete identity", ErrMalformedKey)
	}

	return &ClientInfo{
		ClientID: payload.ClientID,
		TenantID: payload.TenantID,
		Username: payload.Username,
	}, nil
}

// Generate produces an API key for the given identity. Used by the keygen
// tool and by tests.
func Generate(clientID, tenantID, username string) (string, error) {
	if clientID == "" || tenantID == "" || username == "" {
		return "", errors.New("clientID, tenantID, and username are required")
	}

	raw, err := json.Marshal(keyPayload{
		ClientID: clientID,
		TenantID: tenantID,
		Username: username,
	})
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}
