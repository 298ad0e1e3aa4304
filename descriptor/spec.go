package descriptor

import (
	"bytes"
	"slices"
	"strings"

	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/service"
)

// Well-known specification keys.
const (
	EventHelp    = "help"
	EventVersion = "version"
	EventOK      = "ok"

	ParameterPostData = "post-data"
)

// Flag is a specification boolean. Services write flags either as JSON
// booleans or as the strings "true" and "false"; Flag records which value was
// given so absent flags can fall back to their own defaults.
type Flag int8

const (
	FlagUnset Flag = iota
	FlagTrue
	FlagFalse
	FlagOther
)

// IsTrue reports whether the flag was given as true or "true".
func (f Flag) IsTrue() bool { return f == FlagTrue }

// IsFalse reports whether the flag was given as false or "false".
func (f Flag) IsFalse() bool { return f == FlagFalse }

// UnmarshalJSON accepts booleans and their string forms.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", `"true"`:
		*f = FlagTrue
	case "false", `"false"`:
		*f = FlagFalse
	case "null":
		*f = FlagUnset
	default:
		*f = FlagOther
	}
	return nil
}

// MarshalJSON writes the flag as a JSON boolean.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f == FlagFalse {
		return []byte("false"), nil
	}
	return []byte("true"), nil
}

// Specification is the reply to the "help" event.
type Specification struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Events      map[string]*Event `json:"events,omitempty"`
}

// Event describes one event the service accepts.
type Event struct {
	Description string                `json:"description,omitempty"`
	Example     jsonutil.RawMessage   `json:"example,omitempty"`
	Parameters  map[string]*Parameter `json:"parameters,omitempty"`
	Strict      Flag                  `json:"strict,omitempty"`
	Published   Flag                  `json:"published,omitempty"`
	Response    *ResponseSpec         `json:"response,omitempty"`
}

// Parameter describes a request parameter. The "post-data" parameter nests
// its own parameters and strictness.
type Parameter struct {
	Description string                `json:"description,omitempty"`
	Required    Flag                  `json:"required,omitempty"`
	Strict      Flag                  `json:"strict,omitempty"`
	Parameters  map[string]*Parameter `json:"parameters,omitempty"`
}

// ResponseSpec describes an event's response: either an object of fields, or
// an array whose optional single element is the prototype of every entry.
type ResponseSpec struct {
	Array  bool
	Fields map[string]*Parameter
}

// UnmarshalJSON decodes both the object and the array form.
func (r *ResponseSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var protos []map[string]*Parameter
		if err := jsonutil.Unmarshal(data, &protos); err != nil {
			return err
		}
		*r = ResponseSpec{Array: true}
		if len(protos) > 0 {
			r.Fields = protos[0]
		}
		return nil
	}

	var fields map[string]*Parameter
	if err := jsonutil.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = ResponseSpec{Fields: fields}
	return nil
}

// MarshalJSON writes the response in the form it was read.
func (r ResponseSpec) MarshalJSON() ([]byte, error) {
	if !r.Array {
		if r.Fields == nil {
			return []byte("{}"), nil
		}
		return jsonutil.Marshal(r.Fields)
	}
	if len(r.Fields) == 0 {
		return []byte("[]"), nil
	}
	return jsonutil.Marshal([]map[string]*Parameter{r.Fields})
}

// IsPublished reports whether the event belongs in documentation. Events are
// published unless marked otherwise.
func (e *Event) IsPublished() bool { return !e.Published.IsFalse() }

// IsStrict reports whether the event rejects unspecified parameters. Events
// are strict unless marked otherwise.
func (e *Event) IsStrict() bool { return !e.Strict.IsFalse() }

// HasExample reports whether the event publishes an example request.
func (e *Event) HasExample() bool {
	example := bytes.TrimSpace(e.Example)
	return len(example) > 0 && !bytes.Equal(example, []byte("null"))
}

// ExampleParameters decodes the event's example request.
func (e *Event) ExampleParameters() (service.Parameters, error) {
	if !e.HasExample() {
		return nil, nil
	}
	var params service.Parameters
	if err := jsonutil.Unmarshal(e.Example, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// PostData returns the nested post-data parameter, if declared.
func (e *Event) PostData() *Parameter { return e.Parameters[ParameterPostData] }

// IsRequired reports whether the parameter must be present.
func (p *Parameter) IsRequired() bool { return p.Required.IsTrue() }

// IsStrict reports whether nested parameters reject unspecified keys.
func (p *Parameter) IsStrict() bool { return !p.Strict.IsFalse() }

// EventNames returns all event names in alphabetical order.
func (s *Specification) EventNames() []string {
	return sortedKeys(s.Events)
}

// PublishedEventNames returns the published event names in alphabetical
// order.
func (s *Specification) PublishedEventNames() []string {
	names := make([]string, 0, len(s.Events))
	for _, name := range s.EventNames() {
		if ev := s.Events[name]; ev != nil && ev.IsPublished() {
			names = append(names, name)
		}
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}
