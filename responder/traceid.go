package responder

import (
	mathrand "math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TraceIDHeader is honoured as the trace identifier when a caller sends one.
const TraceIDHeader = "X-Request-Id"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func traceIDFor(req *http.Request) string {
	if req != nil {
		if id := strings.TrimSpace(req.Header.Get(TraceIDHeader)); id != "" {
			return id
		}
	}
	return newTraceID()
}

func newTraceID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
