package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/patronproxy/internal/apikey"
)

// mockAuthenticator counts login calls and can be made slow or failing.
type mockAuthenticator struct {
	calls int64
	delay time.Duration
	err   error
	token string
}

func (m *mockAuthenticator) Login(ctx context.Context, tenant, username, _ string) (string, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	if m.token != "" {
		return m.token, nil
	}
	return "token-" + tenant + "-" + username, nil
}

func (m *mockAuthenticator) loginCalls() int64 {
	return atomic.LoadInt64(&m.calls)
}

// staticSecrets returns the same password for every identity.
type staticSecrets struct {
	err error
}

func (s *staticSecrets) Password(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "s3cret", nil
}

func clientInfo(tenant, username string) *apikey.ClientInfo {
	return &apikey.ClientInfo{ClientID: "c1", TenantID: tenant, Username: username}
}

func TestGetCachesToken(t *testing.T) {
	auth := &mockAuthenticator{}
	cache := NewCache(auth, &staticSecrets{})

	token, err := cache.Get(context.Background(), clientInfo("diku", "diku"))
	require.NoError(t, err)
	assert.Equal(t, "token-diku-diku", token)
	assert.EqualValues(t, 1, auth.loginCalls())

	// Five more sequential requests reuse the cached token.
	for i := 0; i < 5; i++ {
		got, err := cache.Get(context.Background(), clientInfo("diku", "diku"))
		require.NoError(t, err)
		assert.Equal(t, token, got)
	}
	assert.EqualValues(t, 1, auth.loginCalls())
}

func TestGetSingleFlight(t *testing.T) {
	auth := &mockAuthenticator{delay: 50 * time.Millisecond}
	cache := NewCache(auth, &staticSecrets{})

	const concurrency = 25
	tokens := make([]string, concurrency)
	errs := make([]error, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = cache.Get(context.Background(), clientInfo("diku", "diku"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < concurrency; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i])
	}
	assert.EqualValues(t, 1, auth.loginCalls())
}

func TestGetDistinctKeysDoNotShareFlights(t *testing.T) {
	auth := &mockAuthenticator{delay: 20 * time.Millisecond}
	cache := NewCache(auth, &staticSecrets{})

	var wg sync.WaitGroup
	results := make(map[int]string)
	var mu sync.Mutex

	tenants := []string{"diku", "other", "third"}
	for i, tenant := range tenants {
		wg.Add(1)
		go func(i int, tenant string) {
			defer wg.Done()
			token, err := cache.Get(context.Background(), clientInfo(tenant, "user"))
			require.NoError(t, err)
			mu.Lock()
			results[i] = token
			mu.Unlock()
		}(i, tenant)
	}
	wg.Wait()

	assert.EqualValues(t, 3, auth.loginCalls())
	assert.Equal(t, "token-diku-user", results[0])
	assert.Equal(t, "token-other-user", results[1])
	assert.Equal(t, "token-third-user", results[2])
	assert.Equal(t, 3, cache.Len())
}

func TestGetLoginFailurePropagatesAndClearsFlight(t *testing.T) {
	auth := &mockAuthenticator{err: errors.New("credentials rejected")}
	cache := NewCache(auth, &staticSecrets{})

	const concurrency = 10
	errs := make([]error, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Get(context.Background(), clientInfo("diku", "diku"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < concurrency; i++ {
		assert.Error(t, errs[i])
	}

	// The failed attempt must not be cached; a later call retries.
	auth.err = nil
	token, err := cache.Get(context.Background(), clientInfo("diku", "diku"))
	require.NoError(t, err)
	assert.Equal(t, "token-diku-diku", token)
}

func TestGetExpiredEntryTriggersRelogin(t *testing.T) {
	auth := &mockAuthenticator{}
	cache := NewCache(auth, &staticSecrets{}, WithTTL(30*time.Millisecond))

	_, err := cache.Get(context.Background(), clientInfo("diku", "diku"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, auth.loginCalls())

	time.Sleep(50 * time.Millisecond)

	_, err = cache.Get(context.Background(), clientInfo("diku", "diku"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, auth.loginCalls())
}

func TestGetSecretsFailure(t *testing.T) {
	auth := &mockAuthenticator{}
	cache := NewCache(auth, &staticSecrets{err: errors.New("no such tenant")})

	_, err := cache.Get(context.Background(), clientInfo("bogus", "diku"))
	assert.Error(t, err)
	assert.EqualValues(t, 0, auth.loginCalls())
}
