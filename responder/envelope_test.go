package responder

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drblury/bedrock/service"
	"github.com/drblury/bedrock/transport"
)

func TestRespondEnvelopeAddsTiming(t *testing.T) {
	r := NewResponder()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(1500 * time.Nanosecond)}
	r.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}

	ex := r.Begin(map[string]any{"event": "ok"})
	rec := httptest.NewRecorder()
	r.RespondOK(rec, httptest.NewRequest(http.MethodPost, "/api", nil), ex, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}

	var env map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env["status"] != "ok" {
		t.Fatalf("expected ok status, got %v", env["status"])
	}
	if env["response-time-ns"] != float64(1500) {
		t.Fatalf("expected response-time-ns 1500, got %v", env["response-time-ns"])
	}
	if _, ok := env["response"]; ok {
		t.Fatal("expected response to be omitted when nil")
	}
}

func TestProblemHonoursIncomingTraceID(t *testing.T) {
	r := NewResponder()
	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	req.Header.Set(TraceIDHeader, "01HZZZZZZZZZZZZZZZZZZZZZZZ")

	rec := httptest.NewRecorder()
	r.HandleInternalServerError(rec, req, errTest("boom"))

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if problem.TraceID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Fatalf("expected incoming trace id, got %q", problem.TraceID)
	}
	if got := rec.Header().Get("Content-Type"); got != problemContentType {
		t.Fatalf("expected problem content type, got %q", got)
	}
}

func TestProblemGeneratesTraceID(t *testing.T) {
	r := NewResponder()
	rec := httptest.NewRecorder()
	r.HandleAPIError(rec, httptest.NewRequest(http.MethodPost, "/api", nil), http.StatusBadRequest, errTest("bad"))

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if len(problem.TraceID) != 26 {
		t.Fatalf("expected a ULID trace id, got %q", problem.TraceID)
	}
	if problem.Type != statusDocBaseURL+"/400" {
		t.Fatalf("unexpected problem type %q", problem.Type)
	}
}

func TestHandleEventError(t *testing.T) {
	timeout := &transport.Diagnostic{Event: transport.EventTimeout, Err: transport.ErrTimeout}
	refused := &transport.Diagnostic{Event: transport.EventError, Err: transport.ErrNetwork}

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantEvent string
	}{
		{
			name:      "application failure",
			err:       &service.Failure{Event: "help", Envelope: &service.Envelope{Status: "error", HasStatus: true}},
			wantCode:  http.StatusBadGateway,
			wantEvent: "help",
		},
		{
			name:      "wrapped network failure",
			err:       fmt.Errorf("fetch: %w", &service.Failure{Event: "version", Envelope: &service.Envelope{Transport: refused}}),
			wantCode:  http.StatusBadGateway,
			wantEvent: "version",
		},
		{
			name:      "timeout",
			err:       &service.Failure{Event: "ok", Envelope: &service.Envelope{Transport: timeout}},
			wantCode:  http.StatusGatewayTimeout,
			wantEvent: "ok",
		},
		{
			name:     "not an event failure",
			err:      errTest("template broke"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewResponder().HandleEventError(rec, httptest.NewRequest(http.MethodGet, "/docs", nil), tt.err)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			var problem ProblemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("failed to decode problem: %v", err)
			}
			if problem.Event != tt.wantEvent {
				t.Fatalf("expected event %q, got %q", tt.wantEvent, problem.Event)
			}
		})
	}
}

func TestReadQuery(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"event":"ok","n":1}`},
		{name: "empty", body: "", wantErr: true},
		{name: "null", body: "null", wantErr: true},
		{name: "array", body: `[{"event":"ok"}]`, wantErr: true},
		{name: "garbage", body: "event=ok", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := ReadQuery(httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(tt.body)))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuery) {
					t.Fatalf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if query["event"] != "ok" {
				t.Fatalf("unexpected query %v", query)
			}
		})
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
