// Package apikey implements the opaque API key format presented by
// patron-facing clients: generation, parsing into tenant-scoped client
// identity, and extraction from incoming requests.
package apikey
