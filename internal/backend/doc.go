// Package backend implements the HTTP client for the internal multi-tenant
// backend: session login, patron lookup by external system id, and the
// tenant-scoped patron account operations the proxy dispatches to.
//
// All calls carry a per-call timeout derived from the request budget, and
// timeouts are surfaced as ErrTimeout, distinct from other transport
// failures.
package backend
