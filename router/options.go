package router

import (
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Option configures New.
type Option func(*options)

type options struct {
	config        Config
	logger        *slog.Logger
	swagger       *openapi3.T
	onInvalid     ValidationErrorHandler
	outer         []Middleware
	enableOpenAPI bool
	enableCORS    bool
	enableTimeout bool
	enableLogging bool
}

func defaultOptions() *options {
	return &options{
		config:        DefaultConfig(),
		logger:        slog.Default(),
		enableOpenAPI: true,
		enableCORS:    true,
		enableTimeout: true,
		enableLogging: true,
	}
}

// WithConfig replaces the router configuration, defaults included.
func WithConfig(cfg Config) Option {
	cfg = cfg.clone()
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the logger that records served requests.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSwagger validates incoming requests against swagger, usually the
// document built by descriptor.OpenAPI.
func WithSwagger(swagger *openapi3.T) Option {
	return func(o *options) {
		o.swagger = swagger
	}
}

// ValidationErrorHandler writes the reply to a request rejected by OpenAPI
// validation. status is the HTTP status the validator chose.
type ValidationErrorHandler func(w http.ResponseWriter, message string, status int)

// WithValidationErrorHandler replaces the plain-text reply written for
// requests that fail OpenAPI validation.
func WithValidationErrorHandler(handler ValidationErrorHandler) Option {
	return func(o *options) {
		o.onInvalid = handler
	}
}

// WithMiddlewares runs middlewares ahead of the default chain, outermost
// first.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.outer = append(o.outer, middlewares...)
	}
}

// WithoutOpenAPIValidation serves requests without checking them against the
// document.
func WithoutOpenAPIValidation() Option {
	return func(o *options) {
		o.enableOpenAPI = false
	}
}

// WithoutCORSMiddleware skips CORS handling even when origins are configured.
func WithoutCORSMiddleware() Option {
	return func(o *options) {
		o.enableCORS = false
	}
}

// WithoutTimeoutMiddleware leaves handlers unbounded.
func WithoutTimeoutMiddleware() Option {
	return func(o *options) {
		o.enableTimeout = false
	}
}

// WithoutLoggingMiddleware stops recording served requests.
func WithoutLoggingMiddleware() Option {
	return func(o *options) {
		o.enableLogging = false
	}
}
