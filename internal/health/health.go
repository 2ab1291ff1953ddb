// Package health provides liveness and readiness probe endpoints.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 5 * time.Second

// Check represents an individual readiness check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// Checker serves the liveness and readiness endpoints. Liveness reports only
// that the process is up; readiness runs the registered dependency checks.
type Checker struct {
	version   string
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker(version string) *Checker {
	return &Checker{
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck registers a readiness check.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Register mounts the probe routes.
func (c *Checker) Register(r gin.IRouter) {
	r.GET("/health/live", c.Live)
	r.GET("/health/ready", c.Ready)
}

// Live answers the liveness probe.
func (c *Checker) Live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    StatusHealthy,
		"version":   c.version,
		"uptime":    time.Since(c.startTime).String(),
		"timestamp": time.Now().UTC(),
	})
}

// Ready answers the readiness probe, running every registered check.
func (c *Checker) Ready(ctx *gin.Context) {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]Check, len(checks))
	status := StatusHealthy

	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultCheckTimeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			status = StatusUnhealthy
			results[name] = Check{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		results[name] = Check{Status: StatusHealthy}
	}

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status":    status,
		"checks":    results,
		"timestamp": time.Now().UTC(),
	})
}
