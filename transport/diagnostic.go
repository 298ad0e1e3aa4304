package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EventType names the terminal event that ended an unsuccessful request.
type EventType string

const (
	// EventLoad is a completed exchange with a status other than 200.
	EventLoad EventType = "load"
	// EventError is a network-level failure before any status was received.
	EventError EventType = "error"
	// EventTimeout marks a request that exceeded its timeout.
	EventTimeout EventType = "timeout"
	// EventAbort marks a request cancelled by its caller or parent context.
	EventAbort EventType = "abort"
	// EventParse marks a 200 response whose body is not well-formed JSON.
	EventParse EventType = "parse"
)

var (
	ErrStatus    = errors.New("unexpected status")
	ErrNetwork   = errors.New("request could not be completed")
	ErrTimeout   = errors.New("request timed out")
	ErrAborted   = errors.New("request aborted")
	ErrMalformed = errors.New("malformed response body")
)

// Diagnostic describes a failed request. It is handed to the error
// continuation and implements error so it can travel through error returns.
type Diagnostic struct {
	Method  string
	URL     string
	Status  int
	Event   EventType
	Timeout time.Duration
	// Elapsed is how long the request ran before its context ended. It is
	// only set for timeout and abort diagnostics.
	Elapsed time.Duration
	Err     error
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.Method != "" {
		b.WriteString(d.Method)
		b.WriteByte(' ')
	}
	b.WriteString(d.URL)
	b.WriteString(" (event: ")
	b.WriteString(string(d.Event))
	if d.Status != 0 {
		fmt.Fprintf(&b, ", status: %d", d.Status)
	}
	b.WriteString("): ")
	b.WriteString(d.detail())
	return b.String()
}

func (d *Diagnostic) detail() string {
	switch d.Event {
	case EventTimeout:
		if errors.Is(d.Err, context.DeadlineExceeded) {
			return fmt.Sprintf("caller deadline passed after %d ms", d.Elapsed.Milliseconds())
		}
		return fmt.Sprintf("request took more than %d ms", d.Timeout.Milliseconds())
	case EventAbort:
		return ErrAborted.Error()
	case EventLoad:
		return fmt.Sprintf("%s %d %s", ErrStatus, d.Status, http.StatusText(d.Status))
	}
	if d.Err != nil {
		return d.Err.Error()
	}
	return string(d.Event)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}
