package router

import "net/http"

// Middleware wraps an http.Handler to produce a new http.Handler.
type Middleware func(http.Handler) http.Handler

// New returns a new *http.ServeMux that serves handler behind the configured
// middleware chain. From the outside in, the chain is: WithMiddlewares, CORS,
// body limit, OpenAPI validation, timeout and request logging.
func New(handler http.Handler, opts ...Option) *http.ServeMux {
	if handler == nil {
		panic("router: handler cannot be nil")
	}

	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	chain := settings.chain()
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	return mux
}

func (o *options) chain() []Middleware {
	chain := make([]Middleware, 0, len(o.outer)+5)
	for _, mw := range o.outer {
		if mw != nil {
			chain = append(chain, mw)
		}
	}

	cfg := o.config
	// Preflight requests are answered before validation sees them.
	if o.enableCORS && len(cfg.CORS.Origins) > 0 {
		chain = append(chain, corsMiddleware(cfg.CORS))
	}
	if cfg.MaxBodyBytes > 0 {
		chain = append(chain, bodyLimitMiddleware(cfg.MaxBodyBytes))
	}
	if o.enableOpenAPI && o.swagger != nil {
		chain = append(chain, validationMiddleware(o.swagger, o.onInvalid))
	}
	if o.enableTimeout && cfg.Timeout > 0 {
		chain = append(chain, timeoutMiddleware(cfg.Timeout))
	}
	if o.enableLogging && o.logger != nil {
		chain = append(chain, loggingMiddleware(o.logger, cfg.QuietdownRoutes, cfg.HideHeaders))
	}
	return chain
}
