package responder

import (
	"net/http"

	"github.com/drblury/bedrock/jsonutil"
)

// RespondWithJSON serialises v and writes it with the supplied status code.
func (r *Responder) RespondWithJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	r.respondWithJSON(w, req, status, v, jsonContentType)
}

func (r *Responder) respondWithJSON(w http.ResponseWriter, req *http.Request, status int, payload any, contentType string) {
	if w == nil {
		return
	}

	body, err := jsonutil.Marshal(payload)
	if err != nil {
		r.logger().ErrorContext(requestContext(req), "failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	body = append(body, '\n')

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		r.logger().ErrorContext(requestContext(req), "failed to write response", "error", err)
	}
}
