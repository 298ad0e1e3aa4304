package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/drblury/bedrock/service"
)

// Func is a health check. It returns an error while its target is unavailable.
type Func func(ctx context.Context) error

// PingFunc is an arbitrary availability check adapted by NewPingProbe.
type PingFunc func(ctx context.Context) error

// HTTPDoer is the part of *http.Client that NewHTTPProbe needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// EventCaller is the subset of *service.Client used by the service probe.
type EventCaller interface {
	Call(ctx context.Context, event string, parameters service.Parameters, opts ...service.CallOption) (*service.Envelope, error)
}

// NewPingProbe names the errors of fn after the probe.
func NewPingProbe(name string, fn PingFunc) Func {
	return func(ctx context.Context) error {
		if fn == nil {
			return nilComponentError(name, "ping function")
		}
		ctx = contextOrBackground(ctx)

		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}

// NewServiceProbe creates a Func that posts the "ok" event, or the event set
// with WithEvent, and succeeds when the service answers with a successful
// envelope. Transport failures keep their diagnostic in the error chain, so
// callers can test for transport.ErrTimeout and friends.
func NewServiceProbe(name string, client EventCaller, opts ...ServiceProbeOption) Func {
	cfg := buildServiceProbeConfig(opts...)
	return func(ctx context.Context) error {
		if client == nil {
			return nilComponentError(name, "service client")
		}
		ctx = contextOrBackground(ctx)

		env, err := client.Call(ctx, cfg.event, cfg.parameters, cfg.callOptions()...)
		if err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		if err := cfg.validateEnvelope(env); err != nil {
			return fmt.Errorf("%s probe: %w", name, err)
		}
		return nil
	}
}

// NewHTTPProbe creates a Func that performs an HTTP request against the supplied endpoint,
// such as the static site serving a service's documentation.
// The probe succeeds when the response status code is within the 2xx range.
func NewHTTPProbe(name, method, target string, client HTTPDoer, opts ...HTTPProbeOption) Func {
	cfg := buildHTTPProbeConfig(client, opts...)
	return func(ctx context.Context) error {
		trimmedTarget := strings.TrimSpace(target)
		if trimmedTarget == "" {
			return fmt.Errorf("%s probe: target URL is required", name)
		}

		verb := strings.ToUpper(strings.TrimSpace(method))
		if verb == "" {
			verb = http.MethodGet
		}

		ctx = contextOrBackground(ctx)

		req, err := http.NewRequestWithContext(ctx, verb, trimmedTarget, nil)
		if err != nil {
			return fmt.Errorf("%s probe: failed to build request: %w", name, err)
		}

		if err := cfg.applyMutators(req); err != nil {
			return fmt.Errorf("%s probe: request mutation failed: %w", name, err)
		}

		resp, err := cfg.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s probe request failed: %w", name, err)
		}
		defer resp.Body.Close()

		if err := cfg.validateResponse(resp); err != nil {
			return fmt.Errorf("%s probe: %w", name, err)
		}

		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return fmt.Errorf("%s probe: failed to drain response body: %w", name, err)
		}
		return nil
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func nilComponentError(name, component string) error {
	return fmt.Errorf("%s probe: %s is nil", name, component)
}
