package info

import (
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/probe"
	"github.com/drblury/bedrock/responder"
	"github.com/drblury/bedrock/service"
)

// InfoProvider returns the payload exposed by the version endpoint. Without
// one the endpoint relays the service's own version event.
type InfoProvider func() any

// InfoOption configures an InfoHandler.
type InfoOption func(*InfoHandler)

// TemplateDataProvider builds the data handed to the OpenAPI viewer template
// for one request.
type TemplateDataProvider func(r *http.Request, baseURL string) any

const defaultProbeTimeout = 2 * time.Second

// ProbeFunc is one liveness or readiness check. A non-nil error fails the
// probe.
type ProbeFunc = probe.Func

// InfoHandler serves the documentation of one Bedrock service: the rendered
// specification, example runs, the derived OpenAPI document, and health
// endpoints whose readiness follows the service.
type InfoHandler struct {
	*responder.Responder
	client          *service.Client
	baseURL         string
	infoProvider    InfoProvider
	openapiTemplate *template.Template
	dataProvider    TemplateDataProvider
	renderOptions   []descriptor.RenderOption
	openapiOptions  []descriptor.OpenAPIOption
	probeTimeout    time.Duration
	livenessChecks  []ProbeFunc
	readinessChecks []ProbeFunc
	readinessSet    bool
}

// NewInfoHandler constructs an InfoHandler for the service behind client.
// Unless WithReadinessChecks says otherwise, readiness is the service's "ok"
// event.
func NewInfoHandler(client *service.Client, opts ...InfoOption) *InfoHandler {
	ih := &InfoHandler{
		Responder:       responder.NewResponder(),
		client:          client,
		openapiTemplate: defaultOpenAPITemplate,
		dataProvider:    defaultTemplateDataProvider,
		probeTimeout:    defaultProbeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ih)
		}
	}
	if !ih.readinessSet && client != nil {
		ih.readinessChecks = []ProbeFunc{probe.NewServiceProbe("service", client)}
	}
	return ih
}

// WithInfoResponder sets the responder that writes envelopes and problem
// documents for the handler.
func WithInfoResponder(responder *responder.Responder) InfoOption {
	return func(ih *InfoHandler) {
		if responder != nil {
			ih.Responder = responder
		}
	}
}

// WithBaseURL sets the prefix the handler is mounted under. It is used for the
// example links in the rendered page and by the OpenAPI viewer.
func WithBaseURL(baseURL string) InfoOption {
	return func(ih *InfoHandler) {
		ih.baseURL = baseURL
	}
}

// WithInfoProvider serves a fixed payload from the version endpoint instead of
// relaying the service's version event.
func WithInfoProvider(provider InfoProvider) InfoOption {
	return func(ih *InfoHandler) {
		if provider != nil {
			ih.infoProvider = provider
		}
	}
}

// WithOpenAPITemplate replaces the page served at /openapi.html.
func WithOpenAPITemplate(tmpl *template.Template) InfoOption {
	return func(ih *InfoHandler) {
		if tmpl != nil {
			ih.openapiTemplate = tmpl
		}
	}
}

// WithOpenAPITemplateData replaces the data passed to the /openapi.html
// template.
func WithOpenAPITemplateData(provider TemplateDataProvider) InfoOption {
	return func(ih *InfoHandler) {
		if provider != nil {
			ih.dataProvider = provider
		}
	}
}

// WithRenderOptions passes options to descriptor.Render and
// descriptor.RenderExample. They apply after the handler's own example link.
func WithRenderOptions(opts ...descriptor.RenderOption) InfoOption {
	return func(ih *InfoHandler) {
		ih.renderOptions = append(ih.renderOptions, opts...)
	}
}

// WithOpenAPIOptions passes options to descriptor.OpenAPI.
func WithOpenAPIOptions(opts ...descriptor.OpenAPIOption) InfoOption {
	return func(ih *InfoHandler) {
		ih.openapiOptions = append(ih.openapiOptions, opts...)
	}
}

// WithProbeTimeout bounds how long one round of health checks may take.
func WithProbeTimeout(timeout time.Duration) InfoOption {
	return func(ih *InfoHandler) {
		if timeout > 0 {
			ih.probeTimeout = timeout
		}
	}
}

// WithLivenessChecks sets the checks behind /healthz. Nil checks are dropped.
func WithLivenessChecks(checks ...ProbeFunc) InfoOption {
	return func(ih *InfoHandler) {
		ih.livenessChecks = compactProbes(checks)
	}
}

// WithReadinessChecks replaces the default readiness check, the service's
// "ok" event, with the supplied functions.
func WithReadinessChecks(checks ...ProbeFunc) InfoOption {
	return func(ih *InfoHandler) {
		ih.readinessChecks = compactProbes(checks)
		ih.readinessSet = true
	}
}

func (ih *InfoHandler) exampleLink(event string) string {
	return ih.baseURL + "/example/" + url.PathEscape(event)
}

func (ih *InfoHandler) renderOpts() []descriptor.RenderOption {
	opts := make([]descriptor.RenderOption, 0, len(ih.renderOptions)+1)
	opts = append(opts, descriptor.WithExampleLink(ih.exampleLink))
	return append(opts, ih.renderOptions...)
}

func defaultTemplateDataProvider(_ *http.Request, baseURL string) any {
	return openapiPageData{BaseURL: baseURL, Title: "Bedrock API"}
}
