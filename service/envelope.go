package service

import (
	"maps"
	"strings"

	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/transport"
)

// Envelope field names and the success status.
const (
	FieldStatus   = "status"
	FieldResponse = "response"
	FieldError    = "error"
	FieldEvent    = "event"

	StatusOK = "ok"
)

// Envelope is the JSON wrapper a service answers every event with. Fields the
// client does not interpret are kept verbatim in Extra.
type Envelope struct {
	Status    string
	HasStatus bool
	Response  jsonutil.RawMessage
	Error     jsonutil.RawMessage
	Extra     map[string]jsonutil.RawMessage

	// Transport is set when the envelope was synthesised from a transport
	// failure rather than received from the service.
	Transport *transport.Diagnostic
}

// OK reports whether the envelope denotes success. An absent status counts as
// success for compatibility with older services.
func (e *Envelope) OK() bool {
	return !e.HasStatus || e.Status == StatusOK
}

// HasResponse reports whether the service supplied a "response" field.
func (e *Envelope) HasResponse() bool {
	return e.Response != nil
}

// Result is the value Post hands to its success continuation: the response
// field when present, otherwise the status encoded as a JSON string.
func (e *Envelope) Result() jsonutil.RawMessage {
	if e.HasResponse() {
		return e.Response
	}
	if !e.HasStatus {
		return nil
	}
	data, err := jsonutil.Marshal(e.Status)
	if err != nil {
		return nil
	}
	return data
}

// DecodeResponse unmarshals Result into v.
func (e *Envelope) DecodeResponse(v any) error {
	return jsonutil.Unmarshal(e.Result(), v)
}

// ErrorMessage renders the error field as text. String errors are unquoted;
// structured errors are returned as their JSON encoding.
func (e *Envelope) ErrorMessage() string {
	if len(e.Error) == 0 {
		return ""
	}
	var text string
	if err := jsonutil.Unmarshal(e.Error, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(e.Error))
}

// UnmarshalJSON decodes an envelope while tracking which fields were present.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var fields map[string]jsonutil.RawMessage
	if err := jsonutil.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = Envelope{}
	if raw, ok := fields[FieldStatus]; ok {
		e.HasStatus = true
		if err := jsonutil.Unmarshal(raw, &e.Status); err != nil {
			e.Status = strings.TrimSpace(string(raw))
		}
		delete(fields, FieldStatus)
	}
	if raw, ok := fields[FieldResponse]; ok {
		e.Response = raw
		delete(fields, FieldResponse)
	}
	if raw, ok := fields[FieldError]; ok {
		e.Error = raw
		delete(fields, FieldError)
	}
	if len(fields) > 0 {
		e.Extra = fields
	}
	return nil
}

// MarshalJSON encodes the envelope in its wire form.
func (e Envelope) MarshalJSON() ([]byte, error) {
	fields := make(map[string]jsonutil.RawMessage, len(e.Extra)+3)
	maps.Copy(fields, e.Extra)
	if e.HasStatus {
		status, err := jsonutil.Marshal(e.Status)
		if err != nil {
			return nil, err
		}
		fields[FieldStatus] = status
	}
	if e.Response != nil {
		fields[FieldResponse] = e.Response
	}
	if e.Error != nil {
		fields[FieldError] = e.Error
	}
	return jsonutil.Marshal(fields)
}

func transportEnvelope(diag *transport.Diagnostic) *Envelope {
	message, _ := jsonutil.Marshal(diag.Error())
	return &Envelope{Error: message, Transport: diag}
}
