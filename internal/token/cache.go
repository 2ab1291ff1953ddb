package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vyrodovalexey/patronproxy/internal/apikey"
)

// DefaultTTL is the token validity window assumed when none is configured.
// The backend does not report token expiry, so entries are aged out locally.
const DefaultTTL = 100 * time.Minute

// Authenticator performs the backend login call.
type Authenticator interface {
	Login(ctx context.Context, tenant, username, password string) (string, error)
}

// Secrets supplies the institutional user's credential for a login.
type Secrets interface {
	Password(ctx context.Context, tenant, username string) (string, error)
}

// entry is a cached session token. Entries are checked lazily on read; there
// is no background sweep.
type entry struct {
	token      string
	obtainedAt time.Time
	expiresAt  time.Time
}

// live reports whether the entry is still within its validity window.
func (e entry) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// Cache caches session tokens keyed by (tenant, client, username).
//
// A miss triggers at most one backend login per key at a time: concurrent
// callers for the same key await the in-flight login's result, and a failed
// attempt clears the flight so the next call retries.
type Cache struct {
	authenticator Authenticator
	secrets       Secrets
	ttl           time.Duration
	logger        *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// Option is a functional option for configuring the cache.
type Option func(*Cache)

// WithTTL sets the validity window applied to cached tokens.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger for the cache.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a new token cache.
func NewCache(authenticator Authenticator, secrets Secrets, opts ...Option) *Cache {
	c := &Cache{
		authenticator: authenticator,
		secrets:       secrets,
		ttl:           DefaultTTL,
		logger:        zap.NewNop(),
		entries:       make(map[string]entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns a valid session token for the identity, logging in to the
// backend when no live token is cached. Login failures and timeouts are
// returned as-is for the orchestrator to map.
func (c *Cache) Get(ctx context.Context, info *apikey.ClientInfo) (string, error) {
	key := cacheKey(info)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && e.live(time.Now()) {
		cacheHitsTotal.Inc()
		return e.token, nil
	}

	cacheMissesTotal.Inc()

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, key, info)
	})
	if err != nil {
		return "", err
	}

	if shared {
		c.logger.Debug("joined in-flight login",
			zap.String("tenant", info.TenantID),
			zap.String("username", info.Username),
		)
	}

	return value.(string), nil
}

// fetch performs the backend login and stores the result. It runs at most
// once per key per gap in validity.
func (c *Cache) fetch(ctx context.Context, key string, info *apikey.ClientInfo) (string, error) {
	// A caller may have raced past the read check just as a previous flight
	// completed; recheck before logging in again.
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	now := time.Now()
	if ok && e.live(now) {
		return e.token, nil
	}

	password, err := c.secrets.Password(ctx, info.TenantID, info.Username)
	if err != nil {
		loginsTotal.WithLabelValues(info.TenantID, "error").Inc()
		return "", fmt.Errorf("credential lookup for tenant %s: %w", info.TenantID, err)
	}

	token, err := c.authenticator.Login(ctx, info.TenantID, info.Username, password)
	if err != nil {
		loginsTotal.WithLabelValues(info.TenantID, "error").Inc()
		return "", err
	}

	loginsTotal.WithLabelValues(info.TenantID, "success").Inc()

	c.mu.Lock()
	c.entries[key] = entry{
		token:      token,
		obtainedAt: now,
		expiresAt:  now.Add(c.ttl),
	}
	c.mu.Unlock()

	c.logger.Info("session token acquired",
		zap.String("tenant", info.TenantID),
		zap.String("username", info.Username),
	)

	return token, nil
}

// Len returns the number of cached entries, live or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cacheKey builds the cache key for a credential identity.
func cacheKey(info *apikey.ClientInfo) string {
	return info.TenantID + ":" + info.ClientID + ":" + info.Username
}
