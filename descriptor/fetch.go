package descriptor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/service"
)

var (
	// ErrUnknownEvent is returned when an event is not in the specification.
	ErrUnknownEvent = errors.New("descriptor: unknown event")
	// ErrNoExample is returned when an event publishes no example.
	ErrNoExample = errors.New("descriptor: event has no example")
)

// Fetch posts the help event and decodes the service's specification.
func Fetch(ctx context.Context, client *service.Client, opts ...service.CallOption) (*Specification, error) {
	spec, err := service.Invoke[*Specification](ctx, client, EventHelp, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("descriptor: failed to fetch specification: %w", err)
	}
	if spec == nil {
		spec = &Specification{}
	}
	return spec, nil
}

// Display fetches the service's specification and renders it to w.
func Display(ctx context.Context, w io.Writer, client *service.Client, opts ...RenderOption) error {
	spec, err := Fetch(ctx, client)
	if err != nil {
		return err
	}
	return Render(w, spec, opts...)
}

// ExampleResult is the outcome of running an event's published example. Err
// is set when the service rejected the example or could not be reached; the
// Envelope is populated either way.
type ExampleResult struct {
	Name     string
	Envelope *service.Envelope
	Err      error
}

// Failed reports whether the example request failed.
func (r *ExampleResult) Failed() bool { return r.Err != nil }

// TryExample fetches the specification, then posts the named event with its
// published example parameters. The returned error covers the help request
// and a missing example; a failed example request, including one aborted
// because ctx ended, is reported through the result.
func TryExample(ctx context.Context, client *service.Client, name string) (*ExampleResult, error) {
	spec, err := Fetch(ctx, client)
	if err != nil {
		return nil, err
	}
	ev, ok := spec.Events[name]
	if !ok || ev == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if !ev.HasExample() {
		return nil, fmt.Errorf("%w: %q", ErrNoExample, name)
	}

	example, err := ev.ExampleParameters()
	if err != nil {
		return nil, fmt.Errorf("descriptor: malformed example for %q: %w", name, err)
	}

	result := &ExampleResult{Name: name}
	pending, err := client.PostWithFullResponse(ctx, name, example,
		func(env *service.Envelope) { result.Envelope = env },
		func(env *service.Envelope) {
			result.Envelope = env
			result.Err = &service.Failure{Event: name, Envelope: env}
		},
	)
	if err != nil {
		return nil, err
	}
	// The transport settles every request, cancelled ones included, so the
	// continuation has finished writing result once Done is closed.
	<-pending.Done()
	return result, nil
}

type exampleView struct {
	Name       string
	Failed     bool
	Error      string
	JSON       string
	Stylesheet string
}

// RenderExample writes the outcome of an example run as an HTML page: the
// pretty-printed envelope on success, the envelope's error otherwise.
func RenderExample(w io.Writer, result *ExampleResult, opts ...RenderOption) error {
	if result == nil {
		return fmt.Errorf("descriptor: nil example result")
	}
	cfg := newRenderConfig(opts)
	view := exampleView{Name: result.Name, Stylesheet: cfg.stylesheet}

	switch {
	case result.Failed() && result.Envelope != nil:
		view.Failed = true
		view.Error = result.Envelope.ErrorMessage()
	case result.Failed():
		view.Failed = true
		view.Error = result.Err.Error()
	default:
		pretty, err := jsonutil.MarshalIndent(result.Envelope, "", "    ")
		if err != nil {
			return fmt.Errorf("descriptor: failed to encode example response: %w", err)
		}
		view.JSON = string(pretty)
	}

	if err := exampleTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("descriptor: failed to render example: %w", err)
	}
	return nil
}
