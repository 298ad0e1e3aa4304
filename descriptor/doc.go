// Package descriptor models the self-describing specification a Bedrock
// service returns from its "help" event and turns it into documentation.
//
// Render produces an HTML page listing every published event with its
// parameters, post data, and response shape. TryExample runs an event's
// published example against the live service. OpenAPI converts the
// specification into an OpenAPI 3 document so typed clients can be generated
// ahead of time and requests can be validated.
//
// See ExampleRender for a runnable rendering of a small specification.
package descriptor
