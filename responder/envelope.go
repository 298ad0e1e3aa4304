package responder

import (
	"net/http"
	"time"
)

// StatusOK is the envelope status of a successful event.
const StatusOK = "ok"

// StatusError is the envelope status written by RespondFailure.
const StatusError = "error"

// Envelope is the wire form of an event reply.
type Envelope struct {
	Status         string `json:"status"`
	Query          any    `json:"query,omitempty"`
	Response       any    `json:"response,omitempty"`
	Error          any    `json:"error,omitempty"`
	ResponseTimeNS int64  `json:"response-time-ns,omitempty"`
}

// Exchange tracks one event from decoded query to written envelope.
type Exchange struct {
	Query   any
	started time.Time
}

// Begin starts timing an event whose decoded request body is query.
func (r *Responder) Begin(query any) *Exchange {
	return &Exchange{Query: query, started: r.timeNow()}
}

// RespondOK writes a success envelope carrying response, which may be nil.
func (r *Responder) RespondOK(w http.ResponseWriter, req *http.Request, ex *Exchange, response any) {
	r.RespondEnvelope(w, req, ex, Envelope{Status: StatusOK, Response: response})
}

// RespondFailure writes an error envelope. errValue is typically a string or a
// list of validation messages.
func (r *Responder) RespondFailure(w http.ResponseWriter, req *http.Request, ex *Exchange, errValue any) {
	r.logger().InfoContext(requestContext(req), "event failed", "error", errValue, "traceId", traceIDFor(req))
	r.RespondEnvelope(w, req, ex, Envelope{Status: StatusError, Error: errValue})
}

// RespondEnvelope fills in the query and timing fields from ex and writes env
// with HTTP 200.
func (r *Responder) RespondEnvelope(w http.ResponseWriter, req *http.Request, ex *Exchange, env Envelope) {
	if ex != nil {
		if env.Query == nil {
			env.Query = ex.Query
		}
		if r.timing && !ex.started.IsZero() {
			env.ResponseTimeNS = r.timeNow().Sub(ex.started).Nanoseconds()
		}
	}
	if w != nil {
		w.Header().Set("X-Content-Type-Options", "nosniff")
	}
	r.respondWithJSON(w, req, http.StatusOK, env, jsonContentType)
}
