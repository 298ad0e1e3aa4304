package responder

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/drblury/bedrock/service"
	"github.com/drblury/bedrock/transport"
)

// ProblemDetails aligns HTTP error responses with RFC 9457 problem documents.
// Event names the upstream Bedrock event when the problem came from one.
type ProblemDetails struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Event     string `json:"event,omitempty"`
	Instance  string `json:"instance,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HandleAPIError renders a problem document for the supplied HTTP status and
// logs it using the configured logger.
func (r *Responder) HandleAPIError(w http.ResponseWriter, req *http.Request, status int, err error, logMsg ...string) {
	if err == nil {
		return
	}
	r.handleProblem(w, req, status, "", err, logMsg)
}

// HandleInternalServerError is a shortcut that reports a 500 status code.
func (r *Responder) HandleInternalServerError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusInternalServerError, err, logMsg...)
}

// HandleEventError reports a failed call to an upstream Bedrock service. A
// timed out event maps to 504 and any other failed event to 502; both name
// the event in the problem document. Errors that did not come from an event
// call go through HandleErrors.
func (r *Responder) HandleEventError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	if err == nil {
		return
	}

	var failure *service.Failure
	if !errors.As(err, &failure) {
		r.HandleErrors(w, req, err, logMsg...)
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, transport.ErrTimeout) {
		status = http.StatusGatewayTimeout
	}
	r.handleProblem(w, req, status, failure.Event, err, logMsg)
}

// HandleErrors inspects err using the configured classifier and emits an
// appropriate problem document.
func (r *Responder) HandleErrors(w http.ResponseWriter, req *http.Request, err error, msgs ...string) {
	if err == nil {
		return
	}

	if status, handled := r.classifyError(err); handled {
		r.HandleAPIError(w, req, status, err, msgs...)
		return
	}

	r.HandleInternalServerError(w, req, err, msgs...)
}

func (r *Responder) handleProblem(w http.ResponseWriter, req *http.Request, status int, event string, err error, msgs []string) {
	meta := normalizeStatusMeta(status, r.statusMetadata[status])
	problem := ProblemDetails{
		Type:      meta.typeURI,
		Title:     meta.title,
		Status:    status,
		Detail:    err.Error(),
		Event:     event,
		Instance:  requestInstance(req),
		TraceID:   traceIDFor(req),
		Timestamp: r.timeNow().UTC().Format(time.RFC3339),
	}

	logger := r.logger().With("error", err.Error(), "traceId", problem.TraceID, "status", status)
	if event != "" {
		logger = logger.With("event", event)
	}
	if len(msgs) > 0 {
		logger = logger.With("logMessages", msgs)
	}
	logger.Log(requestContext(req), meta.logLevel, meta.logMsg)

	r.respondWithJSON(w, req, status, problem, problemContentType)
}

func normalizeStatusMeta(status int, meta statusMeta) statusMeta {
	if meta.logLevel == 0 {
		meta.logLevel = slog.LevelError
	}
	if meta.title == "" {
		meta.title = http.StatusText(status)
	}
	if meta.logMsg == "" {
		meta.logMsg = meta.title
	}
	if meta.typeURI == "" {
		meta.typeURI = fmt.Sprintf("%s/%d", statusDocBaseURL, status)
	}
	return meta
}
