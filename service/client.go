package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/transport"
)

const (
	// APISuffix is appended to the context path to form the default endpoint.
	APISuffix = "api"

	// DefaultTimeout bounds every event request unless overridden.
	DefaultTimeout = 3000 * time.Millisecond
)

// ErrMissingEvent is returned when an event name is empty. Nothing is sent.
var ErrMissingEvent = errors.New("service: event is required")

// Parameters are the flat key/value pairs merged into an event request body.
type Parameters map[string]any

// Client posts events to one service.
type Client struct {
	contextPath   string
	transport     *transport.Client
	doer          transport.HTTPDoer
	logger        *slog.Logger
	timeout       time.Duration
	failurePolicy FailurePolicy
	now           func() time.Time
}

// NewClient constructs a Client whose default endpoint is contextPath + "api".
// The context path usually ends with a slash, for example
// "https://example.com/bedrock/".
func NewClient(contextPath string, opts ...Option) *Client {
	c := &Client{
		contextPath:   contextPath,
		logger:        slog.Default(),
		timeout:       DefaultTimeout,
		failurePolicy: DropFailures,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.transport == nil {
		c.transport = transport.NewClient(
			transport.WithHTTPClient(c.doer),
			transport.WithLogger(c.logger),
			transport.WithDefaultTimeout(c.timeout),
		)
	}
	return c
}

// ContextPath returns the configured context path.
func (c *Client) ContextPath() string {
	return c.contextPath
}

// QueryURL returns explicit when it is non-empty, otherwise the context path
// endpoint.
func (c *Client) QueryURL(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return c.contextPath + APISuffix
}

// PostWithFullResponse posts event with parameters and hands the complete
// envelope to onSuccess or onFailure. Either continuation may be nil; a nil
// onFailure defers to the client's FailurePolicy. The returned Pending can be
// used to wait for or cancel the request.
func (c *Client) PostWithFullResponse(ctx context.Context, event string, parameters Parameters, onSuccess, onFailure func(*Envelope), opts ...CallOption) (*transport.Pending, error) {
	if strings.TrimSpace(event) == "" {
		return nil, ErrMissingEvent
	}

	cfg := callConfig{timeout: c.timeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	body, err := encodeEvent(event, parameters)
	if err != nil {
		return nil, fmt.Errorf("service: failed to encode %q parameters: %w", event, err)
	}

	query := cacheBust(c.QueryURL(cfg.url), c.now())
	requestID := newRequestID()
	logger := c.logger.With("event", event, "requestId", requestID)

	fail := func(env *Envelope) {
		if onFailure != nil {
			onFailure(env)
			return
		}
		c.failurePolicy(ctx, event, env)
	}

	succeed := func(resp *transport.Response) {
		env := &Envelope{}
		if err := resp.Decode(env); err != nil {
			diag := &transport.Diagnostic{
				Method: http.MethodPost,
				URL:    query,
				Status: resp.Status,
				Event:  transport.EventParse,
				Err:    fmt.Errorf("%w: %w", transport.ErrMalformed, err),
			}
			logger.Error("malformed envelope", "url", query, "error", diag.Error())
			fail(transportEnvelope(diag))
			return
		}

		logger.Info(fmt.Sprintf("%s (status: %s)", query, env.Status))
		if !env.OK() {
			fail(env)
			return
		}
		if onSuccess != nil {
			onSuccess(env)
		}
	}

	failTransport := func(diag *transport.Diagnostic) {
		logger.Error("event request failed",
			"url", diag.URL,
			"status", diag.Status,
			"transportEvent", string(diag.Event),
			"error", diag.Error(),
		)
		fail(transportEnvelope(diag))
	}

	return c.transport.Post(ctx, query, body, succeed, failTransport,
		transport.WithTimeout(cfg.timeout),
		transport.WithHeader("Content-Type", "application/json"),
		transport.WithHeader(RequestIDHeader, requestID),
	), nil
}

// Post is PostWithFullResponse with unwrapped continuations: onSuccess receives
// the envelope's response (or its status when no response was sent) and
// onFailure receives its error.
func (c *Client) Post(ctx context.Context, event string, parameters Parameters, onSuccess, onFailure func(jsonutil.RawMessage), opts ...CallOption) (*transport.Pending, error) {
	var success, failure func(*Envelope)
	if onSuccess != nil {
		success = func(env *Envelope) {
			onSuccess(env.Result())
		}
	}
	if onFailure != nil {
		failure = func(env *Envelope) {
			onFailure(env.Error)
		}
	}
	return c.PostWithFullResponse(ctx, event, parameters, success, failure, opts...)
}

func encodeEvent(event string, parameters Parameters) ([]byte, error) {
	payload := make(map[string]any, len(parameters)+1)
	for key, value := range parameters {
		payload[key] = value
	}
	payload[FieldEvent] = event
	return jsonutil.Marshal(payload)
}

func cacheBust(target string, now time.Time) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + strconv.FormatInt(now.UnixMilli(), 10)
}
