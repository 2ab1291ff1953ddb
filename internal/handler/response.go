package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fixed caller-facing messages. Tenant-unknown and bad-credential failures
// share the access-denied message and are not distinguished on the wire.
const (
	MsgAccessDenied        = "Access Denied"
	MsgRequestTimeout      = "Request to backend timed out"
	MsgInternalServerError = "Internal Server Error"

	msgNoErrorMessage     = "No error message found"
	msgErrorExtractFailed = "A problem encountered when extracting error message"
)

// maxErrorBody bounds how much of a backend error payload is read for
// message extraction.
const maxErrorBody = 64 * 1024

// ErrorMessage is the uniform error body returned to callers. The status
// code is duplicated in the body for clients that cannot read the HTTP
// status directly.
type ErrorMessage struct {
	Message        string `json:"message"`
	HTTPStatusCode int    `json:"httpStatusCode"`
}

// writeError writes the uniform error body. Exactly one response is written
// per request; a write after the response has started is suppressed.
func writeError(c *gin.Context, status int, message string) {
	if c.Writer.Written() {
		return
	}
	c.JSON(status, ErrorMessage{Message: message, HTTPStatusCode: status})
}

func accessDenied(c *gin.Context) {
	writeError(c, http.StatusUnauthorized, MsgAccessDenied)
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, message)
}

func notFound(c *gin.Context, message string) {
	writeError(c, http.StatusNotFound, message)
}

func requestTimeout(c *gin.Context) {
	writeError(c, http.StatusRequestTimeout, MsgRequestTimeout)
}

func internalServerError(c *gin.Context) {
	writeError(c, http.StatusInternalServerError, MsgInternalServerError)
}

// relayResponse writes the backend response to the caller. Success and
// redirect responses stream through verbatim with their content type.
// Error responses are converted to the uniform error body, keeping the
// backend's status code and extracting its message.
func relayResponse(c *gin.Context, resp *http.Response, logger *zap.Logger) {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		writeError(c, resp.StatusCode, extractBackendMessage(resp))
		return
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// The response has started; nothing useful can be written now.
		logger.Warn("streaming backend response failed", zap.Error(err))
	}
}

// backendError is the shape of backend error payloads. Some calls return a
// flat message, others a list of errors.
type backendError struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// extractBackendMessage pulls a human-readable message out of a backend
// error response. JSON payloads yield their first error message, falling
// back to fixed text when the payload is empty or unparsable. Non-JSON
// payloads are used as the message verbatim.
func extractBackendMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return msgErrorExtractFailed
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return string(body)
	}

	var payload backendError
	if err := json.Unmarshal(body, &payload); err != nil {
		return msgErrorExtractFailed
	}

	if len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
		return payload.Errors[0].Message
	}
	if payload.Message != "" {
		return payload.Message
	}

	return msgNoErrorMessage
}
