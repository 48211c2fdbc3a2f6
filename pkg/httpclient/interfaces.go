package httpclient

import (
	"context"
	"net/http"
)

// Request describes a single outbound call. URL must already carry any query string.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
	// URL is the final URL after redirects.
	URL() string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations must honor ctx cancellation and deadlines.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
