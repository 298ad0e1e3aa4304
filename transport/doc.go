// Package transport issues single JSON HTTP requests and resolves each one
// into exactly one success or error continuation.
//
// Every request carries its own timeout (three seconds unless overridden), so
// a call never hangs indefinitely. Outcomes are classified as success (HTTP 200
// with a well-formed JSON body) or as a Diagnostic whose Event names the
// failure: a non-200 load, a network error, a timeout, an abort, or a malformed
// payload. A per-request settled flag guarantees that a response arriving after
// the timeout cannot also fire the success continuation.
//
//	client := transport.NewClient(transport.WithLogger(logger))
//	pending := client.Post(ctx, url, body,
//	    func(resp *transport.Response) { ... },
//	    func(diag *transport.Diagnostic) { ... },
//	    transport.WithTimeout(5*time.Second),
//	)
//	defer pending.Cancel()
package transport
