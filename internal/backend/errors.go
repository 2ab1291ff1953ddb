package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend operations.
var (
	// ErrTimeout indicates that a backend call exceeded its timeout budget.
	ErrTimeout = errors.New("backend request timed out")

	// ErrLoginFailed indicates that the backend rejected the login, either
	// because the tenant is unknown or the credentials are invalid. The two
	// cases are intentionally not distinguished.
	ErrLoginFailed = errors.New("backend login failed")

	// ErrPatronNotFound indicates that no patron matches the external id.
	ErrPatronNotFound = errors.New("patron not found")

	// ErrUnavailable indicates a transport-level failure talking to the
	// backend, including an open circuit breaker.
	ErrUnavailable = errors.New("backend unavailable")
)

// StatusError carries a non-2xx backend status for calls that do not stream
// the response back to the caller.
type StatusError struct {
	Operation  string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Operation, e.StatusCode)
}
