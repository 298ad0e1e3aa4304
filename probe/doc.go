// Package probe turns dependencies into readiness and liveness checks for the
// info handlers. NewServiceProbe asks a Bedrock service for its "ok" event;
// NewHTTPProbe checks any plain HTTP endpoint; NewPingProbe adapts a custom
// ping function. See ExampleNewServiceProbe and ExampleNewHTTPProbe_withOptions
// for quick-start patterns.
package probe
