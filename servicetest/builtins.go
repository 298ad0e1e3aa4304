package servicetest

import (
	"context"
	"fmt"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/responder"
	"github.com/drblury/bedrock/service"
)

const (
	EventLock     = "lock"
	EventMultiple = "multiple"
)

// Version is the reply to the version event.
type Version struct {
	PomVersion  string `json:"pom-version"`
	DisplayName string `json:"display-name"`
}

var emptyExample = jsonutil.RawMessage(`{}`)

func builtinEvents() map[string]*descriptor.Event {
	return map[string]*descriptor.Event{
		descriptor.EventHelp: {
			Description: "Get the API definition.",
			Example:     emptyExample,
		},
		descriptor.EventVersion: {
			Description: "Get the version and name of the service.",
			Example:     emptyExample,
			Response: &descriptor.ResponseSpec{Fields: map[string]*descriptor.Parameter{
				"pom-version":  {Description: "The build version."},
				"display-name": {Description: "The service name."},
			}},
		},
		descriptor.EventOK: {
			Description: "Check that the service is up.",
			Example:     emptyExample,
		},
		EventLock: {
			Description: "Lock the service; every later event fails.",
			Published:   descriptor.FlagFalse,
		},
		EventMultiple: {
			Description: "Run several events in one request and return their envelopes in order.",
			Parameters: map[string]*descriptor.Parameter{
				descriptor.ParameterPostData: {
					Description: "The events to run.",
					Required:    descriptor.FlagTrue,
					Strict:      descriptor.FlagFalse,
				},
			},
			Response: &descriptor.ResponseSpec{Array: true},
		},
	}
}

func (h *Handler) builtinHandlers() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		descriptor.EventHelp: func(context.Context, service.Parameters) (any, error) {
			return h.spec, nil
		},
		descriptor.EventVersion: func(context.Context, service.Parameters) (any, error) {
			return h.version, nil
		},
		descriptor.EventOK: func(context.Context, service.Parameters) (any, error) {
			return nil, nil
		},
		EventLock: func(context.Context, service.Parameters) (any, error) {
			h.locked.Store(true)
			return nil, nil
		},
		EventMultiple: h.handleMultiple,
	}
}

func (h *Handler) handleMultiple(ctx context.Context, query service.Parameters) (any, error) {
	events, ok := query[descriptor.ParameterPostData].([]any)
	if !ok {
		return nil, Rejection(fmt.Sprintf("No events found (expected an array in '%s')", descriptor.ParameterPostData))
	}
	results := make([]responder.Envelope, 0, len(events))
	for _, entry := range events {
		sub, ok := entry.(map[string]any)
		if !ok {
			results = append(results, failure(entry, msgInvalidBody))
			continue
		}
		results = append(results, h.dispatch(ctx, sub))
	}
	return results, nil
}
