package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds every request that does not carry its own timeout.
const DefaultTimeout = 3000 * time.Millisecond

// HTTPDoer represents the subset of *http.Client required by the transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestMutator allows callers to tweak the outbound request prior to dispatch.
type RequestMutator func(req *http.Request) error

// Option configures a Client.
type Option func(*Client)

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithHTTPClient overrides the HTTP client used to dispatch requests.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		c.doer = client
	}
}

// WithLogger injects the logger used by the default error handler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestMutator registers a mutator that runs before every request is
// dispatched. A mutator error resolves the request with an EventError
// diagnostic.
func WithRequestMutator(mutator RequestMutator) Option {
	return func(c *Client) {
		c.mutators = append(c.mutators, mutator)
	}
}

// WithDefaultTimeout replaces DefaultTimeout for requests issued by the client.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithTimeout bounds a single request.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(r *Request) {
		r.Timeout = timeout
	}
}

// WithHeader sets a header on a single request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
	}
}
