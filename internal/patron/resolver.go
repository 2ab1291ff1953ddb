package patron

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/patronproxy/internal/backend"
	"github.com/vyrodovalexey/patronproxy/internal/cache"
)

// Lookup performs the backend patron lookup call.
type Lookup interface {
	LookupPatron(ctx context.Context, session backend.Session, externalID string) (string, error)
}

// Resolver maps (tenant, external patron id) to the backend's internal id.
//
// Resolution is idempotent: once cached, repeated lookups return the same id
// without another backend call. Cache backend failures degrade to a direct
// lookup rather than failing the request.
type Resolver struct {
	lookup Lookup
	store  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// Option is a functional option for configuring the resolver.
type Option func(*Resolver)

// WithTTL sets the cache TTL for resolved ids. Zero keeps entries for the
// process lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.ttl = ttl
	}
}

// WithLogger sets the logger for the resolver.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a new patron id resolver backed by the given cache.
func NewResolver(lookup Lookup, store cache.Cache, opts ...Option) *Resolver {
	r := &Resolver{
		lookup: lookup,
		store:  store,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the internal patron id for an external one, looking it up
// in the backend on a cache miss. The token must already be valid for the
// tenant. Not-found and timeout errors pass through unwrapped for the
// orchestrator to map.
func (r *Resolver) Resolve(ctx context.Context, tenant, externalID, token string) (string, error) {
	key := tenant + ":" + externalID

	value, err := r.store.Get(ctx, key)
	if err == nil {
		resolveCacheHitsTotal.Inc()
		return string(value), nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("patron cache read failed, falling back to lookup",
			zap.String("tenant", tenant),
			zap.Error(err),
		)
	}

	resolveCacheMissesTotal.Inc()

	internalID, err := r.lookup.LookupPatron(ctx, backend.Session{Tenant: tenant, Token: token}, externalID)
	if err != nil {
		lookupsTotal.WithLabelValues(tenant, "error").Inc()
		return "", err
	}

	lookupsTotal.WithLabelValues(tenant, "success").Inc()

	if err := r.store.Set(ctx, key, []byte(internalID), r.ttl); err != nil {
		r.logger.Warn("patron cache write failed",
			zap.String("tenant", tenant),
			zap.Error(err),
		)
	}

	r.logger.Debug("patron id resolved",
		zap.String("tenant", tenant),
		zap.String("externalId", externalID),
	)

	return internalID, nil
}
