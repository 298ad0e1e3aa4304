package service

import (
	"context"
	"fmt"

	"github.com/drblury/bedrock/jsonutil"
)

// Failure is the error returned by Call and Invoke. Envelope is the received
// envelope for application failures, or the synthesised one for transport
// failures.
type Failure struct {
	Event    string
	Envelope *Envelope
}

func (f *Failure) Error() string {
	if f.Envelope.Transport != nil {
		return fmt.Sprintf("event %q: %s", f.Event, f.Envelope.Transport.Error())
	}
	return fmt.Sprintf("event %q failed (status: %s): %s", f.Event, f.Envelope.Status, f.Envelope.ErrorMessage())
}

// Unwrap exposes the transport diagnostic so callers can match transport
// sentinels such as transport.ErrTimeout.
func (f *Failure) Unwrap() error {
	if f.Envelope.Transport == nil {
		return nil
	}
	return f.Envelope.Transport
}

// Call posts event and blocks until it resolves. A failed request returns its
// envelope alongside a *Failure.
func (c *Client) Call(ctx context.Context, event string, parameters Parameters, opts ...CallOption) (*Envelope, error) {
	var (
		result  *Envelope
		failure *Failure
	)
	pending, err := c.PostWithFullResponse(ctx, event, parameters,
		func(env *Envelope) { result = env },
		func(env *Envelope) { failure = &Failure{Event: event, Envelope: env} },
		opts...,
	)
	if err != nil {
		return nil, err
	}

	<-pending.Done()
	if failure != nil {
		return failure.Envelope, failure
	}
	return result, nil
}

// Invoke calls event and decodes the unwrapped response into T.
func Invoke[T any](ctx context.Context, c *Client, event string, parameters Parameters, opts ...CallOption) (T, error) {
	var out T
	env, err := c.Call(ctx, event, parameters, opts...)
	if err != nil {
		return out, err
	}
	if err := jsonutil.Unmarshal(env.Result(), &out); err != nil {
		return out, fmt.Errorf("service: failed to decode %q response: %w", event, err)
	}
	return out, nil
}
