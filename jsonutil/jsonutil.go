// Package jsonutil wraps sonic with the encoding/json compatible configuration
// so envelopes, specifications, and request bodies share one codec.
package jsonutil

import (
	"encoding/json"
	"io"

	"github.com/bytedance/sonic"
)

// RawMessage is a raw encoded JSON value. It aliases json.RawMessage so values
// round-trip through sonic and the standard library alike.
type RawMessage = json.RawMessage

var api = sonic.ConfigStd

// Marshal encodes v using sonic's standard-compatible configuration.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent is like Marshal but applies prefix and indent to the output.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Encode writes the JSON encoding of v to w followed by a newline.
func Encode(w io.Writer, v any) error {
	return api.NewEncoder(w).Encode(v)
}

// Decode reads the next JSON value from r into v.
func Decode(r io.Reader, v any) error {
	return api.NewDecoder(r).Decode(v)
}

// Valid reports whether data is a single well-formed JSON value.
func Valid(data []byte) bool {
	return api.Valid(data)
}
