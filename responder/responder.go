// Package responder writes Bedrock event envelopes and HTTP problem documents.
//
// Event handlers answer with RespondOK or RespondFailure; both always use HTTP
// 200 because the envelope status, not the HTTP status, carries the outcome.
// Faults outside the convention use problem documents (RFC 9457) with a trace
// identifier: HandleEventError for a failed upstream event, HandleAPIError and
// HandleErrors for everything else.
package responder

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	jsonContentType    = "application/json"
	problemContentType = "application/problem+json"
	statusDocBaseURL   = "https://httpstatuses.io"
)

// ErrorClassifierFunc maps an error to an HTTP status. It reports false for
// errors it does not recognise, which then become 500 responses.
type ErrorClassifierFunc func(err error) (status int, handled bool)

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

type statusMeta struct {
	typeURI  string
	title    string
	logLevel slog.Level
	logMsg   string
}

// StatusMetadata customises how an HTTP status is logged and titled in problem
// documents.
type StatusMetadata struct {
	TypeURI  string
	Title    string
	LogLevel slog.Level
	LogMsg   string
}

// Responder renders envelopes and problem documents and logs failures.
type Responder struct {
	log             *slog.Logger
	statusMetadata  map[int]statusMeta
	errorClassifier ErrorClassifierFunc
	timing          bool
	now             func() time.Time
}

// NewResponder constructs a Responder with default status metadata, response
// timing enabled, and the global slog logger.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{
		log:            slog.Default(),
		statusMetadata: defaultStatusMetadata(),
		timing:         true,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithLogger injects a custom slog logger.
func WithLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithErrorClassifier sets the classifier consulted by HandleErrors.
func WithErrorClassifier(classifier ErrorClassifierFunc) ResponderOption {
	return func(r *Responder) {
		r.errorClassifier = classifier
	}
}

// WithResponseTiming toggles the "response-time-ns" envelope field.
func WithResponseTiming(enabled bool) ResponderOption {
	return func(r *Responder) {
		r.timing = enabled
	}
}

// WithStatusMetadata sets the title, type link and log record used for
// problems with the given status.
func WithStatusMetadata(status int, meta StatusMetadata) ResponderOption {
	return func(r *Responder) {
		if r.statusMetadata == nil {
			r.statusMetadata = make(map[int]statusMeta)
		}
		r.statusMetadata[status] = normalizeStatusMeta(status, statusMeta{
			typeURI:  meta.TypeURI,
			title:    meta.Title,
			logLevel: meta.LogLevel,
			logMsg:   meta.LogMsg,
		})
	}
}

// Logger returns the responder's logger.
func (r *Responder) Logger() *slog.Logger {
	return r.logger()
}

func (r *Responder) logger() *slog.Logger {
	if r == nil || r.log == nil {
		return slog.Default()
	}
	return r.log
}

func (r *Responder) classifyError(err error) (int, bool) {
	if r.errorClassifier == nil {
		return 0, false
	}
	return r.errorClassifier(err)
}

func defaultStatusMetadata() map[int]statusMeta {
	return map[int]statusMeta{
		http.StatusInternalServerError: {title: http.StatusText(http.StatusInternalServerError), logLevel: slog.LevelError, logMsg: "Internal Server Error"},
		http.StatusBadGateway:          {title: http.StatusText(http.StatusBadGateway), logLevel: slog.LevelError, logMsg: "Upstream event failed"},
		http.StatusGatewayTimeout:      {title: http.StatusText(http.StatusGatewayTimeout), logLevel: slog.LevelError, logMsg: "Upstream event timed out"},
		http.StatusNotFound:            {title: http.StatusText(http.StatusNotFound), logLevel: slog.LevelWarn, logMsg: "Not Found"},
		http.StatusBadRequest:          {title: http.StatusText(http.StatusBadRequest), logLevel: slog.LevelWarn, logMsg: "Bad Request"},
	}
}

func (r *Responder) timeNow() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
