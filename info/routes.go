package info

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/service"
)

const htmlContentType = "text/html; charset=utf-8"

var errNoClient = errors.New("service client not configured")

// Routes returns a mux serving every endpoint relative to the handler's mount
// point:
//
//	GET /                 rendered specification (?example=<event> runs an example)
//	GET /example/{event}  example run for one event
//	GET /openapi.json     OpenAPI document derived from the specification
//	GET /openapi          OpenAPI viewer
//	GET /status, /healthz, /readyz, /version
func (ih *InfoHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ih.GetServiceHTML)
	mux.HandleFunc("GET /example/{event}", ih.GetExampleHTML)
	mux.HandleFunc("GET /openapi.json", ih.GetOpenAPIJSON)
	mux.HandleFunc("GET /openapi", ih.GetOpenAPIHTML)
	mux.HandleFunc("GET /status", ih.GetStatus)
	mux.HandleFunc("GET /healthz", ih.GetHealthz)
	mux.HandleFunc("GET /readyz", ih.GetReadyz)
	mux.HandleFunc("GET /version", ih.GetVersion)
	return mux
}

// GetServiceHTML fetches the service's specification and renders it.
func (ih *InfoHandler) GetServiceHTML(w http.ResponseWriter, r *http.Request) {
	if event := r.URL.Query().Get("example"); event != "" {
		ih.serveExample(w, r, event)
		return
	}
	if ih.client == nil {
		ih.HandleInternalServerError(w, r, errNoClient, "failed to render specification")
		return
	}

	var buf bytes.Buffer
	if err := descriptor.Display(r.Context(), &buf, ih.client, ih.renderOpts()...); err != nil {
		ih.HandleEventError(w, r, err, "failed to render specification")
		return
	}
	ih.writeHTML(w, buf.Bytes())
}

// GetExampleHTML runs the published example of the event named in the path and
// renders the outcome.
func (ih *InfoHandler) GetExampleHTML(w http.ResponseWriter, r *http.Request) {
	ih.serveExample(w, r, r.PathValue("event"))
}

func (ih *InfoHandler) serveExample(w http.ResponseWriter, r *http.Request, event string) {
	if ih.client == nil {
		ih.HandleInternalServerError(w, r, errNoClient, "failed to run example")
		return
	}

	result, err := descriptor.TryExample(r.Context(), ih.client, event)
	switch {
	case errors.Is(err, descriptor.ErrUnknownEvent), errors.Is(err, descriptor.ErrNoExample):
		ih.HandleAPIError(w, r, http.StatusNotFound, err, "example not available")
		return
	case err != nil:
		ih.HandleEventError(w, r, err, "failed to run example")
		return
	}

	var buf bytes.Buffer
	if err := descriptor.RenderExample(&buf, result, ih.renderOptions...); err != nil {
		ih.HandleInternalServerError(w, r, err, "failed to render example")
		return
	}
	ih.writeHTML(w, buf.Bytes())
}

// GetOpenAPIJSON derives an OpenAPI document from the service's specification.
func (ih *InfoHandler) GetOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	if ih.client == nil {
		ih.HandleInternalServerError(w, r, errNoClient, "failed to build openapi document")
		return
	}

	spec, err := descriptor.Fetch(r.Context(), ih.client)
	if err != nil {
		ih.HandleEventError(w, r, err, "failed to fetch service specification")
		return
	}

	doc, err := descriptor.OpenAPI(spec, ih.openapiOptions...)
	if err != nil {
		ih.HandleInternalServerError(w, r, err, "failed to build openapi document")
		return
	}

	body, err := doc.MarshalJSON()
	if err != nil {
		ih.HandleInternalServerError(w, r, err, "failed to encode openapi document")
		return
	}
	ih.RespondWithJSON(w, r, http.StatusOK, jsonutil.RawMessage(body))
}

// GetOpenAPIHTML renders an embedded Stoplight viewer that fetches the OpenAPI document from the JSON endpoint.
func (ih *InfoHandler) GetOpenAPIHTML(w http.ResponseWriter, r *http.Request) {
	if ih.openapiTemplate == nil {
		err := errors.New("openapi template not configured")
		ih.HandleAPIError(w, r, http.StatusInternalServerError, err, "failed to render openapi template")
		return
	}

	var data any
	if ih.dataProvider != nil {
		data = ih.dataProvider(r, ih.baseURL)
	}
	if data == nil {
		data = defaultTemplateDataProvider(r, ih.baseURL)
	}

	var buf bytes.Buffer
	if err := ih.openapiTemplate.Execute(&buf, data); err != nil {
		ih.HandleAPIError(w, r, http.StatusInternalServerError, err, "failed to render openapi template")
		return
	}
	ih.writeHTML(w, buf.Bytes())
}

// GetStatus returns a simple health payload that can be used for lightweight diagnostics.
func (ih *InfoHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ih.respondProbe(w, r, http.StatusOK, "HEALTHY")
}

// GetHealthz implements the liveness probe recommended for Kubernetes.
func (ih *InfoHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	if err := ih.runChecks(r.Context(), ih.livenessChecks); err != nil {
		ih.HandleAPIError(w, r, http.StatusServiceUnavailable, err, "liveness probe failed")
		return
	}
	ih.respondProbe(w, r, http.StatusOK, "ok")
}

// GetReadyz implements the readiness probe recommended for Kubernetes. By
// default it is ready while the service answers its "ok" event.
func (ih *InfoHandler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	if err := ih.runChecks(r.Context(), ih.readinessChecks); err != nil {
		ih.HandleAPIError(w, r, http.StatusServiceUnavailable, err, "readiness probe failed")
		return
	}
	ih.respondProbe(w, r, http.StatusOK, "ready")
}

// GetVersion returns the InfoProvider payload, or else the response of the
// service's version event.
func (ih *InfoHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	if ih.infoProvider != nil {
		payload := ih.infoProvider()
		if payload == nil {
			payload = map[string]string{}
		}
		ih.RespondWithJSON(w, r, http.StatusOK, payload)
		return
	}
	if ih.client == nil {
		ih.RespondWithJSON(w, r, http.StatusOK, map[string]string{})
		return
	}

	version, err := service.Invoke[jsonutil.RawMessage](r.Context(), ih.client, descriptor.EventVersion, nil)
	if err != nil {
		ih.HandleEventError(w, r, err, "failed to fetch service version")
		return
	}
	ih.RespondWithJSON(w, r, http.StatusOK, version)
}

func (ih *InfoHandler) writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", htmlContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		ih.Logger().Error("failed to write response", "error", err)
	}
}
