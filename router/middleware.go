package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapiMW "github.com/oapi-codegen/nethttp-middleware"
)

// RequestIDHeader carries the caller's request identifier into request logs.
const RequestIDHeader = "X-Request-Id"

func validationMiddleware(swagger *openapi3.T, onInvalid ValidationErrorHandler) Middleware {
	// Validate against a copy without servers so that the document matches
	// whatever host the service ends up listening on.
	doc := *swagger
	doc.Servers = nil

	validatorOptions := &oapiMW.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error {
				return nil
			},
			MultiError: true,
		},
	}
	if onInvalid != nil {
		validatorOptions.ErrorHandler = oapiMW.ErrorHandler(onInvalid)
	}
	return oapiMW.OapiRequestValidatorWithOptions(&doc, validatorOptions)
}

func corsMiddleware(cfg CORSConfig) Middleware {
	allowMethods := strings.Join(cfg.Methods, ",")
	allowHeaders := strings.Join(cfg.Headers, ",")
	anyOrigin := slices.Contains(cfg.Origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if anyOrigin || slices.Contains(cfg.Origins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.WriteHeader(http.StatusOK)
		})
	}
}

func bodyLimitMiddleware(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Timeout")
	}
}

// loggingMiddleware writes one debug record per served request, after the
// handler has answered.
func loggingMiddleware(logger *slog.Logger, quietdownRoutes, hideHeaders []string) Middleware {
	quiet := slices.Clone(quietdownRoutes)
	hidden := slices.Clone(hideHeaders)
	logger.Debug("request logging enabled", "quietdownRoutes", quiet, "hideHeaders", hidden)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(quiet, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"header", redactHeaders(r.Header, hidden),
			}
			if id := r.Header.Get(RequestIDHeader); id != "" {
				attrs = append(attrs, "requestId", id)
			}
			if r.ContentLength > 0 {
				attrs = append(attrs, "contentLength", r.ContentLength)
			}
			logger.DebugContext(r.Context(), "request served", attrs...)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.written {
		s.status = status
		s.written = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.written = true
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// redactHeaders returns a copy of headers with the hidden ones replaced by
// their length.
func redactHeaders(headers http.Header, hidden []string) http.Header {
	out := headers.Clone()
	for _, name := range hidden {
		key := http.CanonicalHeaderKey(name)
		values, ok := out[key]
		if !ok {
			continue
		}
		size := 0
		for _, v := range values {
			size += len(v)
		}
		out[key] = []string{fmt.Sprintf("[REDACTED - %d bytes]", size)}
	}
	return out
}
