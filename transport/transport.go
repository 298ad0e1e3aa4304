package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/drblury/bedrock/jsonutil"
)

// Request describes one outbound call. It is copied on dispatch and discarded
// once the call resolves.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Header  http.Header
	Timeout time.Duration
}

// Response is a successful exchange: HTTP 200 carrying well-formed JSON.
type Response struct {
	URL    string
	Status int
	Header http.Header
	Body   jsonutil.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	return jsonutil.Unmarshal(r.Body, v)
}

// SuccessFunc receives the parsed body of a successful request.
type SuccessFunc func(resp *Response)

// ErrorFunc receives the diagnostic of a failed request.
type ErrorFunc func(diag *Diagnostic)

// Client dispatches requests. A Client holds no per-request state and is safe
// for concurrent use.
type Client struct {
	doer     HTTPDoer
	logger   *slog.Logger
	timeout  time.Duration
	mutators []RequestMutator
}

// NewClient constructs a Client backed by http.DefaultClient and the global
// slog logger unless options say otherwise.
func NewClient(opts ...Option) *Client {
	c := &Client{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.doer == nil {
		c.doer = http.DefaultClient
	}
	return c
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, onSuccess SuccessFunc, onError ErrorFunc, opts ...RequestOption) *Pending {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url}, onSuccess, onError, opts...)
}

// Post issues a POST request carrying body.
func (c *Client) Post(ctx context.Context, url string, body []byte, onSuccess SuccessFunc, onError ErrorFunc, opts ...RequestOption) *Pending {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body}, onSuccess, onError, opts...)
}

// Do dispatches req on its own goroutine and returns immediately. Exactly one
// of onSuccess or onError runs once the request resolves. A nil onError is
// replaced by a handler that logs the diagnostic and continues.
func (c *Client) Do(ctx context.Context, req Request, onSuccess SuccessFunc, onError ErrorFunc, opts ...RequestOption) *Pending {
	req.Header = req.Header.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Timeout <= 0 {
		req.Timeout = c.timeout
	}
	if onError == nil {
		onError = c.logFailure
	}

	start := time.Now()
	base, abort := context.WithCancelCause(contextOrBackground(ctx))
	reqCtx, stop := context.WithTimeoutCause(base, req.Timeout, ErrTimeout)

	p := &Pending{
		abort: abort,
		done:  make(chan struct{}),
	}
	go func() {
		defer abort(nil)
		defer stop()
		c.run(reqCtx, req, start, p, onSuccess, onError)
	}()
	return p
}

type exchange struct {
	status int
	header http.Header
	body   []byte
	err    error
}

func (c *Client) run(ctx context.Context, req Request, start time.Time, p *Pending, onSuccess SuccessFunc, onError ErrorFunc) {
	result := make(chan exchange, 1)
	go func() {
		result <- c.roundTrip(ctx, req)
	}()

	select {
	case <-ctx.Done():
		p.fail(onError, c.contextDiagnostic(ctx, req, start))
	case ex := <-result:
		if diag := c.classify(ctx, req, start, ex); diag != nil {
			p.fail(onError, diag)
			return
		}
		p.succeed(onSuccess, &Response{
			URL:    req.URL,
			Status: ex.status,
			Header: ex.header,
			Body:   ex.body,
		})
	}
}

func (c *Client) roundTrip(ctx context.Context, req Request) exchange {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return exchange{err: fmt.Errorf("failed to build request: %w", err)}
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	for _, mutate := range c.mutators {
		if mutate == nil {
			continue
		}
		if err := mutate(httpReq); err != nil {
			return exchange{err: fmt.Errorf("request mutation failed: %w", err)}
		}
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return exchange{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return exchange{status: resp.StatusCode, err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return exchange{status: resp.StatusCode, header: resp.Header, body: data}
}

func (c *Client) classify(ctx context.Context, req Request, start time.Time, ex exchange) *Diagnostic {
	diag := &Diagnostic{
		Method:  req.Method,
		URL:     req.URL,
		Status:  ex.status,
		Timeout: req.Timeout,
	}
	switch {
	case ex.err != nil && ctx.Err() != nil:
		return c.contextDiagnostic(ctx, req, start)
	case ex.err != nil:
		diag.Event = EventError
		diag.Err = fmt.Errorf("%w: %w", ErrNetwork, ex.err)
	case ex.status != http.StatusOK:
		diag.Event = EventLoad
		diag.Err = fmt.Errorf("%w %d", ErrStatus, ex.status)
	case !jsonutil.Valid(ex.body):
		diag.Event = EventParse
		diag.Err = fmt.Errorf("%w (%d bytes)", ErrMalformed, len(ex.body))
	default:
		return nil
	}
	return diag
}

// contextDiagnostic reports a request ended by its context. The request's own
// limit and a deadline inherited from the caller both count as a timeout.
func (c *Client) contextDiagnostic(ctx context.Context, req Request, start time.Time) *Diagnostic {
	diag := &Diagnostic{
		Method:  req.Method,
		URL:     req.URL,
		Timeout: req.Timeout,
		Elapsed: time.Since(start),
	}
	switch cause := context.Cause(ctx); {
	case errors.Is(cause, ErrTimeout):
		diag.Event = EventTimeout
		diag.Err = ErrTimeout
	case errors.Is(cause, context.DeadlineExceeded):
		diag.Event = EventTimeout
		diag.Err = fmt.Errorf("%w: %w", ErrTimeout, context.DeadlineExceeded)
	default:
		diag.Event = EventAbort
		diag.Err = ErrAborted
	}
	return diag
}

func (c *Client) logFailure(diag *Diagnostic) {
	c.logger.Error("request failed",
		"method", diag.Method,
		"url", diag.URL,
		"status", diag.Status,
		"event", string(diag.Event),
		"error", diag.Error(),
	)
}

// Pending is the handle of an in-flight request. It doubles as the request's
// cancellation token.
type Pending struct {
	abort   context.CancelCauseFunc
	done    chan struct{}
	settled atomic.Bool
	err     error
}

// Cancel aborts the request. If it has not resolved yet, the error
// continuation receives an EventAbort diagnostic.
func (p *Pending) Cancel() {
	p.abort(ErrAborted)
}

// Done is closed after the request's continuation has returned.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request resolves or ctx ends. It returns the request's
// diagnostic when the request failed.
func (p *Pending) Wait(ctx context.Context) error {
	ctx = contextOrBackground(ctx)
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the diagnostic of a failed request once Done is closed, and nil
// before that or after a success.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *Pending) succeed(onSuccess SuccessFunc, resp *Response) {
	if !p.settled.CompareAndSwap(false, true) {
		return
	}
	defer close(p.done)
	if onSuccess != nil {
		onSuccess(resp)
	}
}

func (p *Pending) fail(onError ErrorFunc, diag *Diagnostic) {
	if !p.settled.CompareAndSwap(false, true) {
		return
	}
	p.err = diag
	defer close(p.done)
	onError(diag)
}
