package servicetest

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync/atomic"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/responder"
	"github.com/drblury/bedrock/router"
	"github.com/drblury/bedrock/service"
)

const (
	msgInvalidBody = "Invalid or empty POST data."
	msgLocked      = "Instance locked"
)

// HandlerFunc answers one event. The returned value becomes the envelope's
// response; a non-nil error becomes its error, with the error text as the
// message.
type HandlerFunc func(ctx context.Context, query service.Parameters) (any, error)

// Rejection is an error whose text is sent to the caller verbatim.
type Rejection string

func (r Rejection) Error() string { return string(r) }

// Handler serves one specification. It is safe for concurrent use.
type Handler struct {
	spec       *descriptor.Specification
	handlers   map[string]HandlerFunc
	responder  *responder.Responder
	logger     *slog.Logger
	version    Version
	validate   bool
	routerOpts []router.Option
	locked     atomic.Bool
	mux        http.Handler
}

// NewHandler validates spec and builds the handler. The built-in events are
// added to the served specification unless spec already declares them.
func NewHandler(spec *descriptor.Specification, opts ...Option) (*Handler, error) {
	if spec == nil {
		return nil, fmt.Errorf("servicetest: nil specification")
	}

	h := &Handler{
		spec:     withBuiltins(spec),
		handlers: make(map[string]HandlerFunc),
		logger:   slog.Default(),
		version:  Version{PomVersion: "0.0.0", DisplayName: spec.Name},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.responder == nil {
		h.responder = responder.NewResponder(responder.WithLogger(h.logger))
	}
	for name, fn := range h.builtinHandlers() {
		if _, ok := h.handlers[name]; !ok {
			h.handlers[name] = fn
		}
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /"+service.APISuffix, h.serveEvent)

	routerOpts := []router.Option{
		router.WithLogger(h.logger),
		router.WithConfig(router.Config{CORS: router.OpenCORS()}),
		router.WithoutTimeoutMiddleware(),
		router.WithValidationErrorHandler(h.rejectInvalid),
	}
	if h.validate {
		doc, err := descriptor.OpenAPI(h.spec, descriptor.WithUnpublishedEvents())
		if err != nil {
			return nil, fmt.Errorf("servicetest: %w", err)
		}
		routerOpts = append(routerOpts, router.WithSwagger(doc))
	} else {
		routerOpts = append(routerOpts, router.WithoutOpenAPIValidation())
	}
	h.mux = router.New(api, append(routerOpts, h.routerOpts...)...)
	return h, nil
}

// Specification returns the served specification, built-in events included.
func (h *Handler) Specification() *descriptor.Specification {
	return h.spec
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) serveEvent(w http.ResponseWriter, r *http.Request) {
	query, err := responder.ReadQuery(r)
	if err != nil {
		h.logger.DebugContext(r.Context(), "rejected event body", "error", err)
		h.responder.RespondFailure(w, r, h.responder.Begin(nil), msgInvalidBody)
		return
	}

	ex := h.responder.Begin(query)
	env := h.dispatch(r.Context(), query)
	if env.Status != responder.StatusOK {
		h.logger.InfoContext(r.Context(), "event failed",
			"event", query[service.FieldEvent],
			"error", env.Error,
			"requestId", r.Header.Get(service.RequestIDHeader),
		)
	}
	h.responder.RespondEnvelope(w, r, ex, env)
}

func (h *Handler) rejectInvalid(w http.ResponseWriter, message string, _ int) {
	h.responder.RespondEnvelope(w, nil, nil, responder.Envelope{
		Status: responder.StatusError,
		Error:  message,
	})
}

// dispatch validates query against the specification and runs its event.
func (h *Handler) dispatch(ctx context.Context, query map[string]any) responder.Envelope {
	if h.locked.Load() {
		return failure(query, msgLocked)
	}

	name, _ := query[service.FieldEvent].(string)
	if name == "" {
		return failure(query, "Missing 'event'")
	}
	ev, ok := h.spec.Events[name]
	if !ok || ev == nil {
		return failure(query, fmt.Sprintf("Unknown 'event' (%s)", name))
	}

	if problems := validateEvent(query, ev); len(problems) > 0 {
		return failure(query, problems)
	}

	fn, ok := h.handlers[name]
	if !ok {
		return failure(query, fmt.Sprintf("No handler installed for 'event' (%s)", name))
	}

	response, err := fn(ctx, service.Parameters(query))
	if err != nil {
		return failure(query, err.Error())
	}
	return responder.Envelope{Status: responder.StatusOK, Query: query, Response: response}
}

func failure(query, errValue any) responder.Envelope {
	return responder.Envelope{Status: responder.StatusError, Query: query, Error: errValue}
}

func withBuiltins(spec *descriptor.Specification) *descriptor.Specification {
	served := *spec
	served.Events = maps.Clone(spec.Events)
	if served.Events == nil {
		served.Events = make(map[string]*descriptor.Event)
	}
	for name, ev := range builtinEvents() {
		if _, ok := served.Events[name]; !ok {
			served.Events[name] = ev
		}
	}
	return &served
}
