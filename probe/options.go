package probe

import (
	"fmt"
	"net/http"
	"time"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/service"
)

// EnvelopeValidator inspects a successful envelope and can veto the probe.
type EnvelopeValidator func(env *service.Envelope) error

// ServiceProbeOption configures the behaviour of NewServiceProbe.
type ServiceProbeOption func(*serviceProbeConfig)

type serviceProbeConfig struct {
	event      string
	parameters service.Parameters
	timeout    time.Duration
	validators []EnvelopeValidator
}

func buildServiceProbeConfig(opts ...ServiceProbeOption) *serviceProbeConfig {
	cfg := &serviceProbeConfig{event: descriptor.EventOK}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *serviceProbeConfig) callOptions() []service.CallOption {
	if c.timeout <= 0 {
		return nil
	}
	return []service.CallOption{service.WithCallTimeout(c.timeout)}
}

func (c *serviceProbeConfig) validateEnvelope(env *service.Envelope) error {
	for _, validate := range c.validators {
		if validate == nil {
			continue
		}
		if err := validate(env); err != nil {
			return err
		}
	}
	return nil
}

// WithEvent probes with event and parameters instead of the "ok" event.
func WithEvent(event string, parameters service.Parameters) ServiceProbeOption {
	return func(cfg *serviceProbeConfig) {
		if event != "" {
			cfg.event = event
			cfg.parameters = parameters
		}
	}
}

// WithCallTimeout bounds the probe's event request.
func WithCallTimeout(timeout time.Duration) ServiceProbeOption {
	return func(cfg *serviceProbeConfig) {
		cfg.timeout = timeout
	}
}

// WithEnvelopeValidator registers a check that runs on the service's reply.
func WithEnvelopeValidator(validator EnvelopeValidator) ServiceProbeOption {
	return func(cfg *serviceProbeConfig) {
		cfg.validators = append(cfg.validators, validator)
	}
}

// HTTPStatusExpectation determines whether a given HTTP status code is acceptable.
type HTTPStatusExpectation func(status int) bool

// HTTPRequestMutator allows callers to tweak the outbound request prior to dispatch.
type HTTPRequestMutator func(req *http.Request) error

// HTTPResponseValidator inspects the received response and can veto the probe.
type HTTPResponseValidator func(resp *http.Response) error

// HTTPProbeOption configures the behaviour of NewHTTPProbe.
type HTTPProbeOption func(*httpProbeConfig)

type httpProbeConfig struct {
	client             HTTPDoer
	expect             HTTPStatusExpectation
	requestMutators    []HTTPRequestMutator
	responseValidators []HTTPResponseValidator
}

func buildHTTPProbeConfig(client HTTPDoer, opts ...HTTPProbeOption) *httpProbeConfig {
	cfg := &httpProbeConfig{
		client: client,
		expect: isSuccessStatus,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}
	if cfg.expect == nil {
		cfg.expect = isSuccessStatus
	}
	return cfg
}

func (c *httpProbeConfig) applyMutators(req *http.Request) error {
	for _, mutate := range c.requestMutators {
		if mutate == nil {
			continue
		}
		if err := mutate(req); err != nil {
			return err
		}
	}
	return nil
}

func (c *httpProbeConfig) validateResponse(resp *http.Response) error {
	if !c.expect(resp.StatusCode) {
		return fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	for _, validator := range c.responseValidators {
		if validator == nil {
			continue
		}
		if err := validator(resp); err != nil {
			return err
		}
	}
	return nil
}

// WithHTTPAllowedStatuses restricts the probe to succeed only for the provided status codes.
func WithHTTPAllowedStatuses(statuses ...int) HTTPProbeOption {
	allowed := make(map[int]struct{}, len(statuses))
	for _, status := range statuses {
		allowed[status] = struct{}{}
	}
	return func(cfg *httpProbeConfig) {
		if len(allowed) == 0 {
			return
		}
		cfg.expect = func(status int) bool {
			_, ok := allowed[status]
			return ok
		}
	}
}

// WithHTTPRequestMutator registers a mutator that runs before the request is dispatched.
func WithHTTPRequestMutator(mutator HTTPRequestMutator) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.requestMutators = append(cfg.requestMutators, mutator)
	}
}

// WithHTTPResponseValidator registers a validator that runs after a response is received.
func WithHTTPResponseValidator(validator HTTPResponseValidator) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.responseValidators = append(cfg.responseValidators, validator)
	}
}

func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
