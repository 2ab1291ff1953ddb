package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Header names used on every backend call.
const (
	HeaderTenant = "X-Tenant"
	HeaderToken  = "X-Auth-Token"
)

// DefaultTimeout is the per-call timeout applied when none is configured.
const DefaultTimeout = 30 * time.Second

// tracerName is the OpenTelemetry tracer name for backend calls.
const tracerName = "patronproxy/backend"

// hopHeaders are caller headers that must not be forwarded to the backend.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Session is the tenant scope and token a dispatched call runs under.
type Session struct {
	Tenant string
	Token  string
}

// Client is the HTTP client for the internal backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-call timeout budget.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithBreaker wraps backend round trips in a circuit breaker. An open
// breaker surfaces as ErrUnavailable, never as a timeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "backend",
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		})
	}
}

// New creates a new backend client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// loginRequest is the wire form of a login call.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the body fallback when the token header is absent.
type loginResponse struct {
	Token string `json:"token"`
}

// Login obtains a session token for the tenant-scoped institutional user.
// Credential and unknown-tenant rejections both surface as ErrLoginFailed.
func (c *Client) Login(ctx context.Context, tenant, username, password string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "backend.Login",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tenant", tenant)),
	)
	defer span.End()

	start := time.Now()
	var err error
	defer func() { recordRequest("login", start, err) }()

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/authn/login", nil, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set(HeaderTenant, tenant)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		err = c.classify(err)
		return "", fmt.Errorf("login for tenant %s: %w", tenant, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		c.logger.Warn("backend rejected login",
			zap.String("tenant", tenant),
			zap.Int("status", resp.StatusCode),
		)
		err = fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
		return "", err
	}

	if token := resp.Header.Get(HeaderToken); token != "" {
		return token, nil
	}

	var lr loginResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&lr); decodeErr == nil && lr.Token != "" {
		return lr.Token, nil
	}

	err = fmt.Errorf("%w: no token in response", ErrLoginFailed)
	return "", err
}

// userLookupResponse is the wire form of a patron lookup result.
type userLookupResponse struct {
	Users []struct {
		ID string `json:"id"`
	} `json:"users"`
}

// LookupPatron resolves an external patron id to the backend's internal id.
func (c *Client) LookupPatron(ctx context.Context, session Session, externalID string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "backend.LookupPatron",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tenant", session.Tenant)),
	)
	defer span.End()

	start := time.Now()
	var err error
	defer func() { recordRequest("lookup_patron", start, err) }()

	query := url.Values{}
	query.Set("query", "externalSystemId=="+externalID)

	req, err := c.newRequest(ctx, http.MethodGet, "/users", query, nil)
	if err != nil {
		return "", err
	}
	c.applySession(req, session)

	resp, err := c.do(req)
	if err != nil {
		err = c.classify(err)
		return "", fmt.Errorf("patron lookup for tenant %s: %w", session.Tenant, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		err = ErrPatronNotFound
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		err = &StatusError{Operation: "lookup_patron", StatusCode: resp.StatusCode}
		return "", err
	}

	var lookup userLookupResponse
	if err = json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return "", fmt.Errorf("decoding patron lookup response: %w", err)
	}

	if len(lookup.Users) == 0 || lookup.Users[0].ID == "" {
		err = ErrPatronNotFound
		return "", err
	}

	return lookup.Users[0].ID, nil
}

// invoke issues a tenant-scoped backend call and returns the raw response for
// streaming. The caller owns the response body. Caller headers are forwarded
// minus hop-by-hop headers and the caller's own auth material.
func (c *Client) invoke(
	ctx context.Context, session Session, operation, method, path string,
	query url.Values, callerHeaders http.Header, body io.Reader,
) (*http.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "backend."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tenant", session.Tenant),
			attribute.String("operation", operation),
		),
	)
	defer span.End()

	start := time.Now()
	var err error
	defer func() { recordRequest(operation, start, err) }()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	forwardHeaders(req, callerHeaders)
	c.applySession(req, session)

	resp, err := c.do(req)
	if err != nil {
		err = c.classify(err)
		return nil, fmt.Errorf("backend %s: %w", operation, err)
	}

	return resp, nil
}

// newRequest builds a request against the backend base URL with the per-call
// timeout attached to its context. The returned request carries the cancel
// func through the response lifetime via context; callers streaming the body
// rely on the server handler's own deadline instead.
func (c *Client) newRequest(
	ctx context.Context, method, path string, query url.Values, body io.Reader,
) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	return req, nil
}

// applySession sets the tenant scope and token headers, overriding anything
// the caller supplied.
func (c *Client) applySession(req *http.Request, session Session) {
	req.Header.Set(HeaderTenant, session.Tenant)
	if session.Token != "" {
		req.Header.Set(HeaderToken, session.Token)
	}
}

// forwardHeaders copies caller headers onto the backend request, dropping
// hop-by-hop headers and the caller's auth material.
func forwardHeaders(req *http.Request, callerHeaders http.Header) {
	for name, values := range callerHeaders {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	for _, h := range hopHeaders {
		req.Header.Del(h)
	}
	req.Header.Del("Authorization")
	req.Header.Del(HeaderToken)
	req.Header.Del(HeaderTenant)
	req.Header.Del("Host")
}

// do executes the request with the per-call timeout, through the circuit
// breaker when one is configured.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	req = req.WithContext(ctx)

	var (
		resp *http.Response
		err  error
	)

	if c.breaker != nil {
		var result interface{}
		result, err = c.breaker.Execute(func() (interface{}, error) {
			return c.httpClient.Do(req)
		})
		if result != nil {
			resp = result.(*http.Response)
		}
	} else {
		resp, err = c.httpClient.Do(req)
	}

	if err != nil {
		cancel()
		return nil, err
	}

	// Tie the timeout cancel to body close so streamed responses stay
	// readable until the caller is done with them.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// classify maps a transport error to the package's sentinel errors.
func (c *Client) classify(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %s", ErrUnavailable, err)
}

// cancelReadCloser releases the per-call timeout context when the response
// body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

// Close closes the body and releases the call context.
func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
