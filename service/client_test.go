package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/service"
	"github.com/drblury/bedrock/transport"
)

type capturedRequest struct {
	method      string
	path        string
	rawQuery    string
	contentType string
	requestID   string
	body        map[string]any
}

type stubService struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

func newStubService(t *testing.T, status int, body string) *stubService {
	t.Helper()
	stub := &stubService{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		captured := capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			requestID:   r.Header.Get(service.RequestIDHeader),
		}
		_ = jsonutil.Unmarshal(data, &captured.body)

		stub.mu.Lock()
		stub.requests = append(stub.requests, captured)
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(stub.Close)
	return stub
}

func (s *stubService) contextPath() string {
	return s.URL + "/"
}

func (s *stubService) captured() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedRequest(nil), s.requests...)
}

type outcome struct {
	successes atomic.Int32
	failures  atomic.Int32
	value     jsonutil.RawMessage
	failure   jsonutil.RawMessage
}

func (o *outcome) onSuccess(v jsonutil.RawMessage) {
	o.successes.Add(1)
	o.value = v
}

func (o *outcome) onFailure(v jsonutil.RawMessage) {
	o.failures.Add(1)
	o.failure = v
}

func wait(t *testing.T, p *transport.Pending) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("request did not resolve")
	}
}

func TestQueryURL(t *testing.T) {
	client := service.NewClient("https://example.com/bedrock/")

	tests := []struct {
		name     string
		explicit string
		want     string
	}{
		{name: "explicit url wins", explicit: "https://x/api", want: "https://x/api"},
		{name: "empty falls back to context path", explicit: "", want: "https://example.com/bedrock/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.QueryURL(tt.explicit))
			assert.Equal(t, tt.want, client.QueryURL(tt.explicit), "resolution is stable across calls")
		})
	}
}

func TestPostUnwrapsResponse(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"ok","response":{"events":{}}}`)
	client := service.NewClient(stub.contextPath())

	out := &outcome{}
	p, err := client.Post(context.Background(), "help", service.Parameters{}, out.onSuccess, out.onFailure)
	require.NoError(t, err)
	wait(t, p)

	assert.EqualValues(t, 1, out.successes.Load())
	assert.EqualValues(t, 0, out.failures.Load())
	assert.JSONEq(t, `{"events":{}}`, string(out.value))
}

func TestPostUnwrapsStatusWithoutResponse(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"ok"}`)
	client := service.NewClient(stub.contextPath())

	out := &outcome{}
	p, err := client.Post(context.Background(), "ok", nil, out.onSuccess, out.onFailure)
	require.NoError(t, err)
	wait(t, p)

	require.EqualValues(t, 1, out.successes.Load())
	assert.JSONEq(t, `"ok"`, string(out.value))
}

func TestPostTreatsMissingStatusAsSuccess(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"response":[1,2,3]}`)
	client := service.NewClient(stub.contextPath())

	out := &outcome{}
	p, err := client.Post(context.Background(), "list", nil, out.onSuccess, out.onFailure)
	require.NoError(t, err)
	wait(t, p)

	require.EqualValues(t, 1, out.successes.Load())
	assert.EqualValues(t, 0, out.failures.Load())
	assert.JSONEq(t, `[1,2,3]`, string(out.value))
}

func TestPostApplicationFailureUnwrapsError(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"error","error":"Unknown 'event' (nope)"}`)
	client := service.NewClient(stub.contextPath())

	out := &outcome{}
	p, err := client.Post(context.Background(), "nope", nil, out.onSuccess, out.onFailure)
	require.NoError(t, err)
	wait(t, p)

	assert.EqualValues(t, 0, out.successes.Load())
	require.EqualValues(t, 1, out.failures.Load())
	assert.JSONEq(t, `"Unknown 'event' (nope)"`, string(out.failure))
}

func TestPostWithFullResponseHandsOverEnvelope(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"error","error":["Missing required parameter: 'id'"],"query":{"event":"get"}}`)
	client := service.NewClient(stub.contextPath())

	var got *service.Envelope
	p, err := client.PostWithFullResponse(context.Background(), "get", nil,
		func(*service.Envelope) { t.Error("unexpected success") },
		func(env *service.Envelope) { got = env },
	)
	require.NoError(t, err)
	wait(t, p)

	require.NotNil(t, got)
	assert.Equal(t, "error", got.Status)
	assert.JSONEq(t, `["Missing required parameter: 'id'"]`, string(got.Error))
	assert.Contains(t, got.Extra, "query")
	assert.Nil(t, got.Transport)
}

func TestPostHTTPErrorReachesFailure(t *testing.T) {
	stub := newStubService(t, http.StatusInternalServerError, `oops`)
	client := service.NewClient(stub.contextPath())

	var env *service.Envelope
	out := &outcome{}
	p, err := client.PostWithFullResponse(context.Background(), "help", service.Parameters{},
		func(*service.Envelope) { out.successes.Add(1) },
		func(e *service.Envelope) {
			out.failures.Add(1)
			env = e
		},
	)
	require.NoError(t, err)
	wait(t, p)

	assert.EqualValues(t, 0, out.successes.Load())
	require.EqualValues(t, 1, out.failures.Load())
	require.NotNil(t, env.Transport)
	assert.Equal(t, http.StatusInternalServerError, env.Transport.Status)
	assert.Equal(t, transport.EventLoad, env.Transport.Event)

	var message string
	require.NoError(t, jsonutil.Unmarshal(env.Error, &message))
	assert.Contains(t, message, "status: 500")

	out = &outcome{}
	p, err = client.Post(context.Background(), "help", service.Parameters{}, out.onSuccess, out.onFailure)
	require.NoError(t, err)
	wait(t, p)

	assert.EqualValues(t, 0, out.successes.Load())
	require.EqualValues(t, 1, out.failures.Load())
	require.NoError(t, jsonutil.Unmarshal(out.failure, &message))
	assert.Contains(t, message, "unexpected status 500")
}

func TestPostTimeoutFiresFailureOnce(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(300 * time.Millisecond):
		}
		io.WriteString(w, `{"status":"ok"}`)
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client := service.NewClient(server.URL+"/", service.WithTimeout(25*time.Millisecond))

	out := &outcome{}
	p, err := client.Post(context.Background(), "slow", nil, out.onSuccess, out.onFailure)
	require.NoError(t, err)
	wait(t, p)

	time.Sleep(350 * time.Millisecond)
	assert.EqualValues(t, 0, out.successes.Load())
	assert.EqualValues(t, 1, out.failures.Load())

	var message string
	require.NoError(t, jsonutil.Unmarshal(out.failure, &message))
	assert.Contains(t, message, "request took more than 25 ms")
}

func TestPostRequestShape(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"ok"}`)
	fixed := time.UnixMilli(1700000000123)
	client := service.NewClient(stub.contextPath(), service.WithClock(func() time.Time { return fixed }))

	p, err := client.Post(context.Background(), "echo", service.Parameters{"name": "weaver", "event": "overridden", "count": 2}, nil, nil)
	require.NoError(t, err)
	wait(t, p)

	requests := stub.captured()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api", req.path)
	assert.Equal(t, "1700000000123", req.rawQuery)
	assert.Equal(t, "application/json", req.contentType)
	assert.NotEmpty(t, req.requestID)
	assert.Equal(t, map[string]any{"name": "weaver", "event": "echo", "count": float64(2)}, req.body)
}

func TestPostExplicitURL(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"ok"}`)
	client := service.NewClient("http://unused.invalid/")

	p, err := client.Post(context.Background(), "ok", nil, nil, nil, service.WithURL(stub.URL+"/custom?tenant=a"))
	require.NoError(t, err)
	wait(t, p)

	requests := stub.captured()
	require.Len(t, requests, 1)
	assert.Equal(t, "/custom", requests[0].path)
	assert.Regexp(t, `^tenant=a&\d+$`, requests[0].rawQuery)
}

func TestPostRejectsMissingEvent(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"ok"}`)
	client := service.NewClient(stub.contextPath())

	p, err := client.Post(context.Background(), "  ", nil, nil, nil)
	require.ErrorIs(t, err, service.ErrMissingEvent)
	assert.Nil(t, p)
	assert.Empty(t, stub.captured())
}

func TestFailurePolicyHandlesUnclaimedFailures(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"error","error":"denied"}`)

	var (
		mu     sync.Mutex
		events []string
	)
	client := service.NewClient(stub.contextPath(), service.WithFailurePolicy(func(_ context.Context, event string, env *service.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event+":"+env.ErrorMessage())
	}))

	p, err := client.Post(context.Background(), "lock", nil, nil, nil)
	require.NoError(t, err)
	wait(t, p)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"lock:denied"}, events)
}

func TestLogFailuresWarnsOnce(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"error","error":"denied"}`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := service.NewClient(stub.contextPath(), service.WithFailurePolicy(service.LogFailures(logger)))

	p, err := client.Post(context.Background(), "lock", nil, nil, nil)
	require.NoError(t, err)
	wait(t, p)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, jsonutil.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "unhandled event failure", record["msg"])
	assert.Equal(t, "lock", record["event"])
	assert.Equal(t, "error", record["status"])
	assert.Equal(t, "denied", record["error"])
}

func TestCall(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stub := newStubService(t, http.StatusOK, `{"status":"ok","response":{"version":"1.2.3"}}`)
		client := service.NewClient(stub.contextPath())

		env, err := client.Call(context.Background(), "version", nil)
		require.NoError(t, err)
		assert.True(t, env.OK())
		assert.JSONEq(t, `{"version":"1.2.3"}`, string(env.Response))
	})

	t.Run("application failure", func(t *testing.T) {
		stub := newStubService(t, http.StatusOK, `{"status":"error","error":"Instance locked"}`)
		client := service.NewClient(stub.contextPath())

		env, err := client.Call(context.Background(), "ok", nil)
		var failure *service.Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "ok", failure.Event)
		assert.Equal(t, "Instance locked", env.ErrorMessage())
		assert.EqualError(t, err, `event "ok" failed (status: error): Instance locked`)
	})

	t.Run("timeout unwraps to transport sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(server.Close)
		client := service.NewClient(server.URL + "/")

		_, err := client.Call(context.Background(), "slow", nil, service.WithCallTimeout(20*time.Millisecond))
		require.Error(t, err)
		assert.True(t, errors.Is(err, transport.ErrTimeout))
	})
}

func TestInvoke(t *testing.T) {
	stub := newStubService(t, http.StatusOK, `{"status":"ok","response":{"pom-version":"1.2.3","name":"site"}}`)
	client := service.NewClient(stub.contextPath())

	type version struct {
		Name    string `json:"name"`
		Version string `json:"pom-version"`
	}
	got, err := service.Invoke[version](context.Background(), client, "version", nil)
	require.NoError(t, err)
	assert.Equal(t, version{Name: "site", Version: "1.2.3"}, got)
}
