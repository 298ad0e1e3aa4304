// Package bedrock is a Go client for services that speak the Bedrock event
// convention: every call is a JSON POST to <context-path>api carrying an
// "event" name plus flat parameters, and every reply is an envelope of the
// form {"status", "response", "error"}.
//
// The transport package performs the HTTP exchange with a per-request timeout
// and guarantees that exactly one continuation runs per request. The service
// package builds event requests on top of it, interprets envelopes and offers
// both continuation-style and blocking calls. The descriptor package turns a
// service's self-description (its "help" event) into an HTML page or an
// OpenAPI document.
//
// # Packages
//
//   - transport: GET/POST with timeout, abort and parse classification.
//   - service: the event envelope layer (PostWithFullResponse, Post, Call,
//     Invoke) with an explicit failure policy.
//   - descriptor: specification types, the HTML renderer, example runs and
//     the OpenAPI export.
//   - servicetest: an in-process stub service for tests and local work.
//   - responder: envelope and problem-details writers used by the servers.
//   - router: CORS, OpenAPI validation, timeout and logging middleware.
//   - probe: readiness checks that ping a service's "ok" event or a URL.
//   - info: documentation, example, OpenAPI and health endpoints for one
//     service.
//   - jsonutil: sonic-backed JSON helpers.
//   - cli: the bedrock command line.
//
// # Quick Start
//
//	client := service.NewClient("https://api.example.com/",
//	    service.WithLogger(logger),
//	    service.WithFailurePolicy(service.LogFailures(logger)),
//	)
//
//	pending, err := client.Post(ctx, "version", nil,
//	    func(resp jsonutil.RawMessage) { fmt.Println(string(resp)) },
//	    nil,
//	)
//	if err != nil {
//	    return err
//	}
//	<-pending.Done()
//
// Blocking callers use Call or Invoke instead:
//
//	spec, err := descriptor.Fetch(ctx, client)
//	if err != nil {
//	    return err
//	}
//	return descriptor.Render(os.Stdout, spec)
package bedrock
