// Package servicetest runs an in-process Bedrock service for tests and local
// development.
//
// A Handler serves a descriptor.Specification at /api the way a Bedrock
// server does: it rejects unknown events and parameters the specification does
// not allow, answers the built-in help, version, ok, lock and multiple events,
// and dispatches everything else to handlers registered with WithEvent. Every
// reply is an event envelope carrying the query and the response time.
package servicetest
