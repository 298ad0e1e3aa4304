package descriptor

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/bedrock/service"
)

// OpenAPIOption customises the exported document.
type OpenAPIOption func(*openapiConfig)

type openapiConfig struct {
	path        string
	version     string
	serverURL   string
	unpublished bool
}

// WithAPIPath sets the path of the event operation. Defaults to "/api".
func WithAPIPath(path string) OpenAPIOption {
	return func(cfg *openapiConfig) {
		if path != "" {
			cfg.path = path
		}
	}
}

// WithAPIVersion sets info.version. Defaults to "1.0.0".
func WithAPIVersion(version string) OpenAPIOption {
	return func(cfg *openapiConfig) {
		if version != "" {
			cfg.version = version
		}
	}
}

// WithServerURL adds a server entry to the document.
func WithServerURL(url string) OpenAPIOption {
	return func(cfg *openapiConfig) {
		cfg.serverURL = url
	}
}

// WithUnpublishedEvents includes events marked as unpublished, so that a
// validator built from the document accepts them too.
func WithUnpublishedEvents() OpenAPIOption {
	return func(cfg *openapiConfig) {
		cfg.unpublished = true
	}
}

// OpenAPI describes spec as an OpenAPI 3 document with a single POST
// operation. Its request body is one schema per published event, each fixing
// the event name and listing the event's parameters; strict events forbid
// additional properties. The 200 response is the event envelope.
func OpenAPI(spec *Specification, opts ...OpenAPIOption) (*openapi3.T, error) {
	if spec == nil {
		return nil, fmt.Errorf("descriptor: nil specification")
	}
	cfg := openapiConfig{path: "/" + service.APISuffix, version: "1.0.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	title := spec.Name
	if title == "" {
		title = defaultTitle
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title,
			Description: spec.Description,
			Version:     cfg.version,
		},
	}
	if cfg.serverURL != "" {
		doc.Servers = openapi3.Servers{{URL: cfg.serverURL}}
	}

	var body *openapi3.Schema
	names := spec.PublishedEventNames()
	if cfg.unpublished {
		names = spec.EventNames()
	}
	if len(names) == 0 {
		body = openapi3.NewObjectSchema().
			WithProperty(service.FieldEvent, openapi3.NewStringSchema())
		body.Required = []string{service.FieldEvent}
	} else {
		body = openapi3.NewSchema()
		for _, name := range names {
			if ev := spec.Events[name]; ev != nil {
				body.OneOf = append(body.OneOf, openapi3.NewSchemaRef("", eventSchema(name, ev)))
			}
		}
	}

	op := openapi3.NewOperation()
	op.OperationID = "postEvent"
	op.Summary = "Post an event"
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(body),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Event envelope").
				WithJSONSchema(envelopeSchema()),
		}),
	)
	doc.Paths = openapi3.NewPaths(openapi3.WithPath(cfg.path, &openapi3.PathItem{Post: op}))

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("descriptor: invalid openapi document: %w", err)
	}
	return doc, nil
}

func eventSchema(name string, ev *Event) *openapi3.Schema {
	schema := openapi3.NewObjectSchema().
		WithProperty(service.FieldEvent, openapi3.NewStringSchema().WithEnum(name))
	schema.Title = name
	schema.Description = ev.Description
	schema.Required = []string{service.FieldEvent}

	for _, param := range sortedKeys(ev.Parameters) {
		p := ev.Parameters[param]
		prop := openapi3.NewSchema()
		if p != nil {
			prop.Description = p.Description
			if param == ParameterPostData && len(p.Parameters) > 0 {
				prop = nestedSchema(p)
			}
			if p.IsRequired() {
				schema.Required = append(schema.Required, param)
			}
		}
		schema.WithProperty(param, prop)
	}
	if ev.IsStrict() {
		schema.WithoutAdditionalProperties()
	}
	return schema
}

func nestedSchema(p *Parameter) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Description = p.Description
	for _, name := range sortedKeys(p.Parameters) {
		child := openapi3.NewSchema()
		if nested := p.Parameters[name]; nested != nil {
			child.Description = nested.Description
			if nested.IsRequired() {
				schema.Required = append(schema.Required, name)
			}
		}
		schema.WithProperty(name, child)
	}
	if p.IsStrict() {
		schema.WithoutAdditionalProperties()
	}
	return schema
}

func envelopeSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema().
		WithProperty(service.FieldStatus, openapi3.NewStringSchema()).
		WithProperty(service.FieldResponse, openapi3.NewSchema()).
		WithProperty(service.FieldError, openapi3.NewSchema()).
		WithProperty("query", openapi3.NewObjectSchema()).
		WithProperty("response-time-ns", openapi3.NewInt64Schema())
	schema.Description = "Every reply carries a status; ok replies may carry a response and failed replies an error."
	return schema
}
