package responder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/drblury/bedrock/jsonutil"
)

// ErrInvalidQuery is returned by ReadQuery when the request body is not a
// JSON object.
var ErrInvalidQuery = errors.New("responder: event body must be a JSON object")

// ReadQuery decodes the body of an event request. Empty bodies, null and
// anything other than an object yield ErrInvalidQuery.
func ReadQuery(req *http.Request) (map[string]any, error) {
	if req == nil || req.Body == nil {
		return nil, fmt.Errorf("%w: no body", ErrInvalidQuery)
	}

	var query map[string]any
	if err := jsonutil.Decode(req.Body, &query); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", ErrInvalidQuery)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if query == nil {
		return nil, fmt.Errorf("%w: null", ErrInvalidQuery)
	}
	return query, nil
}

func requestInstance(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.RequestURI()
}

func requestContext(req *http.Request) context.Context {
	if req == nil {
		return context.Background()
	}
	return req.Context()
}
