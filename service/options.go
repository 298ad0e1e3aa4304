package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/drblury/bedrock/transport"
)

// FailurePolicy decides what happens to a failure when the caller supplied no
// failure continuation.
type FailurePolicy func(ctx context.Context, event string, env *Envelope)

// DropFailures discards unhandled failures. The failure has already been logged
// by the client when the policy runs. It is the default policy.
func DropFailures(context.Context, string, *Envelope) {}

// LogFailures reports unhandled failures to logger at warning level in addition
// to the client's own error record.
func LogFailures(logger *slog.Logger) FailurePolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, event string, env *Envelope) {
		logger.WarnContext(ctx, "unhandled event failure",
			"event", event,
			"status", env.Status,
			"error", env.ErrorMessage(),
		)
	}
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the transport used to dispatch requests.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient builds the client's transport around the supplied HTTP doer.
func WithHTTPClient(doer transport.HTTPDoer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithLogger injects the logger used for request and failure records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout replaces the per-request timeout (DefaultTimeout).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithFailurePolicy selects how failures without a caller continuation are
// handled.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(c *Client) {
		if policy != nil {
			c.failurePolicy = policy
		}
	}
}

// WithClock overrides the time source behind the cache-busting query value.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// CallOption configures a single event request.
type CallOption func(*callConfig)

type callConfig struct {
	url     string
	timeout time.Duration
}

// WithURL posts the event to url instead of the context path endpoint.
func WithURL(url string) CallOption {
	return func(cfg *callConfig) {
		cfg.url = url
	}
}

// WithCallTimeout bounds a single event request.
func WithCallTimeout(timeout time.Duration) CallOption {
	return func(cfg *callConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}
