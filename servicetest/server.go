package servicetest

import (
	"net/http/httptest"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/service"
)

// Server is a Handler listening on a local httptest server.
type Server struct {
	*httptest.Server
	Handler *Handler
}

// NewServer starts a server for spec. Like httptest.NewServer it panics when
// it cannot start, which here includes an invalid specification. Callers
// should Close it when done.
func NewServer(spec *descriptor.Specification, opts ...Option) *Server {
	h, err := NewHandler(spec, opts...)
	if err != nil {
		panic(err)
	}
	return &Server{Server: httptest.NewServer(h), Handler: h}
}

// ContextPath returns the server URL with a trailing slash, ready for
// service.NewClient.
func (s *Server) ContextPath() string {
	return s.URL + "/"
}

// ServiceClient returns a service client bound to the server.
func (s *Server) ServiceClient(opts ...service.Option) *service.Client {
	return service.NewClient(s.ContextPath(), append([]service.Option{service.WithHTTPClient(s.Server.Client())}, opts...)...)
}
