// Package router wraps http.ServeMux with CORS, a request body limit,
// OpenAPI validation, timeouts and request logging. Bedrock services mount
// their event endpoint behind it; validation runs against the document
// descriptor.OpenAPI builds from the service's own specification, and
// WithValidationErrorHandler lets the service answer rejected events with an
// envelope instead of plain text.
//
// Config carries yaml tags so that command line tools can read it from their
// configuration files.
package router
