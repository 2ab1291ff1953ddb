// Package token caches backend session tokens per credential identity
// (tenant, client, username). Concurrent requests for the same identity share
// a single in-flight backend login; requests for different identities never
// contend.
package token
