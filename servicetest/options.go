package servicetest

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/drblury/bedrock/responder"
	"github.com/drblury/bedrock/router"
)

// Option configures a Handler.
type Option func(*Handler)

// WithEvent registers fn as the handler of the named event. The event must
// also be declared in the specification; a registration for a built-in event
// replaces it.
func WithEvent(name string, fn HandlerFunc) Option {
	return func(h *Handler) {
		if name != "" && fn != nil {
			h.handlers[name] = fn
		}
	}
}

// WithVersion sets the reply to the version event.
func WithVersion(version Version) Option {
	return func(h *Handler) {
		h.version = version
	}
}

// WithLogger injects the logger used for request and failure records.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithResponder replaces the responder that writes envelopes.
func WithResponder(r *responder.Responder) Option {
	return func(h *Handler) {
		if r != nil {
			h.responder = r
		}
	}
}

// WithOpenAPIValidation validates every request against the OpenAPI document
// derived from the specification before the handler sees it.
func WithOpenAPIValidation() Option {
	return func(h *Handler) {
		h.validate = true
	}
}

// WithRouterOptions appends options to the router the handler mounts behind.
func WithRouterOptions(opts ...router.Option) Option {
	return func(h *Handler) {
		h.routerOpts = append(h.routerOpts, opts...)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}
