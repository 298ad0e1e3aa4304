// Package info serves the documentation and health endpoints of a Bedrock
// service.
//
// An InfoHandler talks to the service through a service.Client: it renders
// the specification returned by the help event, runs published examples,
// derives an OpenAPI document with a Stoplight viewer, relays the version
// event, and reports readiness from the ok event. Mount InfoHandler.Routes
// wherever the documentation should live.
//
// See ExampleInfoHandler_full for a runnable wiring of the handler and probes.
package info
