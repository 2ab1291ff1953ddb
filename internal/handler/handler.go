package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/patronproxy/internal/apikey"
	"github.com/vyrodovalexey/patronproxy/internal/backend"
)

// Parameter names shared by the patron routes.
const (
	paramPatronID       = "patronId"
	paramItemID         = "itemId"
	paramInstanceID     = "instanceId"
	paramHoldID         = "holdId"
	paramIncludeLoans   = "includeLoans"
	paramIncludeCharges = "includeCharges"
	paramIncludeHolds   = "includeHolds"
)

// TokenSource supplies a valid session token for a decoded identity.
type TokenSource interface {
	Get(ctx context.Context, info *apikey.ClientInfo) (string, error)
}

// PatronSource resolves an external patron id to the backend's internal id.
type PatronSource interface {
	Resolve(ctx context.Context, tenant, externalID, token string) (string, error)
}

// Dispatcher issues the operation-specific backend calls.
type Dispatcher interface {
	GetAccount(ctx context.Context, session backend.Session, patronID string,
		includeLoans, includeCharges, includeHolds bool, callerHeaders http.Header) (*http.Response, error)
	RenewItem(ctx context.Context, session backend.Session,
		patronID, itemID string, callerHeaders http.Header) (*http.Response, error)
	PlaceItemHold(ctx context.Context, session backend.Session,
		patronID, itemID string, body io.Reader, callerHeaders http.Header) (*http.Response, error)
	EditItemHold(ctx context.Context, session backend.Session,
		patronID, itemID, holdID string, callerHeaders http.Header) (*http.Response, error)
	RemoveItemHold(ctx context.Context, session backend.Session,
		patronID, itemID, holdID string, callerHeaders http.Header) (*http.Response, error)
	PlaceInstanceHold(ctx context.Context, session backend.Session,
		patronID, instanceID string, body io.Reader, callerHeaders http.Header) (*http.Response, error)
	EditInstanceHold(ctx context.Context, session backend.Session,
		patronID, instanceID, holdID string, callerHeaders http.Header) (*http.Response, error)
	RemoveInstanceHold(ctx context.Context, session backend.Session,
		patronID, instanceID, holdID string, callerHeaders http.Header) (*http.Response, error)
}

// Handler orchestrates patron operations end to end.
type Handler struct {
	tokens     TokenSource
	patrons    PatronSource
	dispatcher Dispatcher
	extractor  apikey.Extractor
	logger     *zap.Logger
}

// Option is a functional option for configuring the handler.
type Option func(*Handler)

// WithLogger sets the logger for the handler.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithExtractor overrides how the API key is pulled from a request.
func WithExtractor(extractor apikey.Extractor) Option {
	return func(h *Handler) {
		h.extractor = extractor
	}
}

// New creates the patron operations handler.
func New(tokens TokenSource, patrons PatronSource, dispatcher Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		tokens:     tokens,
		patrons:    patrons,
		dispatcher: dispatcher,
		extractor:  apikey.DefaultExtractor(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register mounts the patron routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/account/:patronId", h.GetAccount)
	r.POST("/account/:patronId/item/:itemId/renew", h.RenewItem)
	r.POST("/account/:patronId/item/:itemId/hold", h.PlaceItemHold)
	r.PUT("/account/:patronId/item/:itemId/hold/:holdId", h.EditItemHold)
	r.DELETE("/account/:patronId/item/:itemId/hold/:holdId", h.RemoveItemHold)
	r.POST("/account/:patronId/instance/:instanceId/hold", h.PlaceInstanceHold)
	r.PUT("/account/:patronId/instance/:instanceId/hold/:holdId", h.EditInstanceHold)
	r.DELETE("/account/:patronId/instance/:instanceId/hold/:holdId", h.RemoveInstanceHold)
}

// dispatchFunc issues the backend call for one operation once identity,
// token, and patron id are in hand.
type dispatchFunc func(ctx context.Context, session backend.Session,
	patronID string, params map[string]string, r *http.Request) (*http.Response, error)

// operation describes what varies between the patron endpoints. Everything
// else is the shared handle sequence.
type operation struct {
	name           string
	requiredParams []string
	optionalParams []string
	dispatch       dispatchFunc
}

// GetAccount returns the patron account, optionally embedding loans,
// charges, and holds.
func (h *Handler) GetAccount(c *gin.Context) {
	h.handle(c, operation{
		name:           "get_account",
		optionalParams: []string{paramIncludeLoans, paramIncludeCharges, paramIncludeHolds},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.GetAccount(ctx, session, patronID,
				boolParam(params, paramIncludeLoans),
				boolParam(params, paramIncludeCharges),
				boolParam(params, paramIncludeHolds),
				r.Header)
		},
	})
}

// RenewItem renews the loan on an item.
func (h *Handler) RenewItem(c *gin.Context) {
	h.handle(c, operation{
		name:           "renew_item",
		requiredParams: []string{paramItemID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.RenewItem(ctx, session, patronID, params[paramItemID], r.Header)
		},
	})
}

// PlaceItemHold places a hold on an item, forwarding the caller's payload.
func (h *Handler) PlaceItemHold(c *gin.Context) {
	h.handle(c, operation{
		name:           "place_item_hold",
		requiredParams: []string{paramItemID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.PlaceItemHold(ctx, session, patronID, params[paramItemID], r.Body, r.Header)
		},
	})
}

// EditItemHold edits an existing item hold.
func (h *Handler) EditItemHold(c *gin.Context) {
	h.handle(c, operation{
		name:           "edit_item_hold",
		requiredParams: []string{paramItemID, paramHoldID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.EditItemHold(ctx, session, patronID,
				params[paramItemID], params[paramHoldID], r.Header)
		},
	})
}

// RemoveItemHold removes an existing item hold.
func (h *Handler) RemoveItemHold(c *gin.Context) {
	h.handle(c, operation{
		name:           "remove_item_hold",
		requiredParams: []string{paramItemID, paramHoldID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.RemoveItemHold(ctx, session, patronID,
				params[paramItemID], params[paramHoldID], r.Header)
		},
	})
}

// PlaceInstanceHold places a title-level hold, forwarding the caller's
// payload.
func (h *Handler) PlaceInstanceHold(c *gin.Context) {
	h.handle(c, operation{
		name:           "place_instance_hold",
		requiredParams: []string{paramInstanceID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.PlaceInstanceHold(ctx, session, patronID,
				params[paramInstanceID], r.Body, r.Header)
		},
	})
}

// EditInstanceHold edits an existing title-level hold.
func (h *Handler) EditInstanceHold(c *gin.Context) {
	h.handle(c, operation{
		name:           "edit_instance_hold",
		requiredParams: []string{paramInstanceID, paramHoldID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.EditInstanceHold(ctx, session, patronID,
				params[paramInstanceID], params[paramHoldID], r.Header)
		},
	})
}

// RemoveInstanceHold removes an existing title-level hold.
func (h *Handler) RemoveInstanceHold(c *gin.Context) {
	h.handle(c, operation{
		name:           "remove_instance_hold",
		requiredParams: []string{paramInstanceID, paramHoldID},
		dispatch: func(ctx context.Context, session backend.Session,
			patronID string, params map[string]string, r *http.Request) (*http.Response, error) {
			return h.dispatcher.RemoveInstanceHold(ctx, session, patronID,
				params[paramInstanceID], params[paramHoldID], r.Header)
		},
	})
}

// handle runs the shared orchestration sequence. Stages run strictly in
// order and short-circuit on the first failure; no backend call happens
// before validation passes.
func (h *Handler) handle(c *gin.Context, op operation) {
	start := time.Now()
	defer func() { recordOperation(op.name, c.Writer.Status(), start) }()

	key := h.extractor.Extract(c.Request)
	if key == "" {
		accessDenied(c)
		return
	}

	extPatronID := requestParam(c, paramPatronID)
	if extPatronID == "" {
		badRequest(c, "Missing required parameter: "+paramPatronID)
		return
	}

	params := make(map[string]string, len(op.requiredParams)+len(op.optionalParams))
	for _, name := range op.requiredParams {
		value := requestParam(c, name)
		if value == "" {
			badRequest(c, "Missing required parameter: "+name)
			return
		}
		params[name] = value
	}
	for _, name := range op.optionalParams {
		params[name] = requestParam(c, name)
	}

	info, err := apikey.Parse(key)
	if err != nil {
		h.logger.Debug("rejecting malformed API key", zap.Error(err))
		accessDenied(c)
		return
	}

	ctx := c.Request.Context()

	token, err := h.tokens.Get(ctx, info)
	if err != nil {
		if errors.Is(err, backend.ErrTimeout) {
			requestTimeout(c)
			return
		}
		h.logger.Info("token acquisition failed",
			zap.String("tenant", info.TenantID),
			zap.String("operation", op.name),
			zap.Error(err),
		)
		accessDenied(c)
		return
	}

	session := backend.Session{Tenant: info.TenantID, Token: token}

	patronID, err := h.patrons.Resolve(ctx, info.TenantID, extPatronID, token)
	if err != nil {
		if errors.Is(err, backend.ErrTimeout) {
			requestTimeout(c)
			return
		}
		notFound(c, "Unable to find patron "+extPatronID)
		return
	}

	resp, err := op.dispatch(ctx, session, patronID, params, c.Request)
	if err != nil {
		if errors.Is(err, backend.ErrTimeout) {
			requestTimeout(c)
			return
		}
		h.logger.Error("backend dispatch failed",
			zap.String("tenant", info.TenantID),
			zap.String("operation", op.name),
			zap.Error(err),
		)
		internalServerError(c)
		return
	}

	relayResponse(c, resp, h.logger)
}

// requestParam reads a parameter from the path, falling back to the query
// string.
func requestParam(c *gin.Context, name string) string {
	if v := c.Param(name); v != "" {
		return v
	}
	return c.Query(name)
}

// boolParam parses an optional boolean parameter. Anything other than
// "true" counts as false, so empty-but-present values stay lenient rather
// than becoming validation errors.
func boolParam(params map[string]string, name string) bool {
	return strings.EqualFold(params[name], "true")
}
