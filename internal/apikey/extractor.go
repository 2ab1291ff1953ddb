package apikey

import (
	"net/http"
)

// DefaultQueryParam is the query parameter clients use to supply their API key.
const DefaultQueryParam = "apikey"

// Extractor extracts an API key from an HTTP request. An empty return value
// means no key was supplied.
type Extractor interface {
	Extract(r *http.Request) string
}

// QueryExtractor extracts API keys from a query parameter.
type QueryExtractor struct {
	param string
}

// NewQueryExtractor creates a new query parameter extractor.
// If param is empty, it defaults to DefaultQueryParam.
func NewQueryExtractor(param string) *QueryExtractor {
	if param == "" {
		param = DefaultQueryParam
	}
	return &QueryExtractor{param: param}
}

// Extract returns the API key from the query parameter, or "" when absent.
func (e *QueryExtractor) Extract(r *http.Request) string {
	return r.URL.Query().Get(e.param)
}

// ExtractorFunc is a function type that implements Extractor.
type ExtractorFunc func(r *http.Request) string

// Extract implements Extractor.
func (f ExtractorFunc) Extract(r *http.Request) string {
	return f(r)
}

// DefaultExtractor returns the extractor used by the public surface: the
// apikey query parameter.
func DefaultExtractor() Extractor {
	return NewQueryExtractor(DefaultQueryParam)
}
