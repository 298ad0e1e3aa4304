package info

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestInfoHandler_respondProbe(t *testing.T) {
	handler := NewInfoHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rr := httptest.NewRecorder()

	handler.respondProbe(rr, req, http.StatusAccepted, "WARN", "service", "docs")

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}

	payload := decodeProbePayload(t, rr.Body.Bytes())
	if payload.Status != "WARN" {
		t.Fatalf("expected status WARN, got %s", payload.Status)
	}
	expectedDetails := []string{"service", "docs"}
	if !reflect.DeepEqual(payload.Details, expectedDetails) {
		t.Fatalf("expected details %v, got %v", expectedDetails, payload.Details)
	}
}

func TestInfoHandler_runChecks(t *testing.T) {
	handler := NewInfoHandler(nil)

	t.Run("no checks", func(t *testing.T) {
		if err := handler.runChecks(context.Background(), nil); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})

	t.Run("skips nil checks", func(t *testing.T) {
		checks := []ProbeFunc{nil, func(context.Context) error { return nil }}
		if err := handler.runChecks(context.Background(), checks); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})

	t.Run("reports every failure", func(t *testing.T) {
		first := errors.New("service down")
		second := errors.New("docs down")
		var ran atomic.Int32
		err := handler.runChecks(context.Background(), []ProbeFunc{
			func(context.Context) error { ran.Add(1); return first },
			func(context.Context) error { ran.Add(1); return nil },
			func(context.Context) error { ran.Add(1); return second },
		})
		if ran.Load() != 3 {
			t.Fatalf("expected every check to run, ran %d", ran.Load())
		}
		if !errors.Is(err, first) || !errors.Is(err, second) {
			t.Fatalf("expected both failures to be wrapped, got %v", err)
		}
		if !strings.Contains(err.Error(), "probe 1 failed") || !strings.Contains(err.Error(), "probe 3 failed") {
			t.Fatalf("expected error message to name failing probes, got %v", err)
		}
	})

	t.Run("checks run concurrently", func(t *testing.T) {
		// Each check waits for the other; run one after the other they would
		// both hit the deadline.
		left, right := make(chan struct{}), make(chan struct{})
		meet := func(mine, theirs chan struct{}) ProbeFunc {
			return func(ctx context.Context) error {
				close(mine)
				select {
				case <-theirs:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err := handler.runChecks(context.Background(), []ProbeFunc{meet(left, right), meet(right, left)}); err != nil {
			t.Fatalf("expected concurrent checks to pass, got %v", err)
		}
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		slow := NewInfoHandler(nil, WithProbeTimeout(5*time.Millisecond))
		err := slow.runChecks(context.Background(), []ProbeFunc{func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}})
		if err == nil || !strings.Contains(err.Error(), "timed out after 5ms") {
			t.Fatalf("expected timeout error, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := handler.runChecks(ctx, []ProbeFunc{func(ctx context.Context) error { return ctx.Err() }})
		if err == nil || !strings.Contains(err.Error(), "was cancelled") {
			t.Fatalf("expected cancellation error, got %v", err)
		}
	})
}

func TestCompactProbes(t *testing.T) {
	fn1 := func(context.Context) error { return nil }
	fn2 := func(context.Context) error { return nil }

	t.Run("returns nil when no probes provided", func(t *testing.T) {
		if filtered := compactProbes(nil); filtered != nil {
			t.Fatalf("expected nil slice, got %v", filtered)
		}
	})

	t.Run("strips nil entries", func(t *testing.T) {
		filtered := compactProbes([]ProbeFunc{nil, fn1, nil, fn2})
		if len(filtered) != 2 {
			t.Fatalf("expected two probes, got %d", len(filtered))
		}
		if reflect.ValueOf(filtered[0]).Pointer() != reflect.ValueOf(fn1).Pointer() {
			t.Fatalf("expected first probe to be fn1")
		}
		if reflect.ValueOf(filtered[1]).Pointer() != reflect.ValueOf(fn2).Pointer() {
			t.Fatalf("expected second probe to be fn2")
		}
	})

	t.Run("returns nil when all entries are nil", func(t *testing.T) {
		if filtered := compactProbes([]ProbeFunc{nil, nil}); filtered != nil {
			t.Fatalf("expected nil slice, got %v", filtered)
		}
	})
}
