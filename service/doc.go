// Package service posts named events to a Bedrock-style service and interprets
// the envelope it answers with.
//
// A request is a POST to <contextPath>api?<timestamp> whose JSON body merges the
// caller's parameters with a mandatory "event" field. The reply is an envelope
// carrying "status", and optionally "response" and "error". A missing status or
// a status of "ok" is a success; any other status is an application failure.
// Transport failures (network errors, non-200 statuses, timeouts, aborts, and
// malformed bodies) reach the same failure continuation as an envelope whose
// "error" holds the diagnostic text.
//
// Callers choose between three surfaces:
//
//   - PostWithFullResponse hands the complete Envelope to the continuations.
//   - Post unwraps "response" (or "status") and "error" first.
//   - Call and Invoke block until the request resolves and return a result and
//     an error, for callers that prefer straight-line code.
//
// The context path is configuration injected at construction; the client never
// reads ambient session state.
package service
