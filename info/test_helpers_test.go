package info

import (
	"context"
	"testing"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/responder"
	"github.com/drblury/bedrock/service"
	"github.com/drblury/bedrock/servicetest"
)

func decodeProbePayload(t *testing.T, body []byte) probePayload {
	t.Helper()

	var payload probePayload
	if err := jsonutil.Unmarshal(body, &payload); err != nil {
		t.Fatalf("failed to decode probe payload: %v (body: %s)", err, string(body))
	}
	return payload
}

func decodeProblemDetails(t *testing.T, body []byte) responder.ProblemDetails {
	t.Helper()

	var problem responder.ProblemDetails
	if err := jsonutil.Unmarshal(body, &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v (body: %s)", err, string(body))
	}
	return problem
}

// newUpstream starts a stub service with one documented event and registers
// its shutdown with t.
func newUpstream(t *testing.T) *servicetest.Server {
	t.Helper()

	srv := servicetest.NewServer(&descriptor.Specification{
		Name:        "Echo",
		Description: "Returns what it is given.",
		Events: map[string]*descriptor.Event{
			"echo": {
				Description: "Echo the name.",
				Example:     jsonutil.RawMessage(`{"name":"weaver"}`),
				Parameters: map[string]*descriptor.Parameter{
					"name": {Description: "Who to echo.", Required: descriptor.FlagTrue},
				},
			},
			"quiet": {Description: "Has no example."},
		},
	},
		servicetest.WithEvent("echo", func(_ context.Context, query service.Parameters) (any, error) {
			return map[string]any{"name": query["name"]}, nil
		}),
		servicetest.WithVersion(servicetest.Version{PomVersion: "4.5.6", DisplayName: "Echo"}),
	)
	t.Cleanup(srv.Close)
	return srv
}
