package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/info"
	"github.com/drblury/bedrock/probe"
	"github.com/drblury/bedrock/responder"
	"github.com/drblury/bedrock/router"
	"github.com/drblury/bedrock/service"
	"github.com/drblury/bedrock/servicetest"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var (
		addr      string
		baseURL   string
		probeURLs []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve browsable documentation for the service",
		Long: `Serve the service's rendered specification, example runs, its OpenAPI
document and health endpoints. Readiness follows the service's ok event plus a
GET against every --probe-url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serve := a.cfg.Serve
			flags := cmd.Flags()
			if flags.Changed("addr") {
				serve.Addr = addr
			}
			if flags.Changed("base-url") {
				serve.BaseURL = baseURL
			}
			if flags.Changed("probe-url") {
				serve.ProbeURLs = probeURLs
			}
			serve.BaseURL = strings.TrimSuffix(serve.BaseURL, "/")

			return a.listenAndServe(cmd.Context(), serve.Addr, a.docsHandler(serve), func(bound string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving docs for %s on http://%s%s/\n", a.cfg.ContextPath, bound, serve.BaseURL)
			})
		},
	}

	defaults := DefaultConfig().Serve
	cmd.Flags().StringVar(&addr, "addr", defaults.Addr, "Listen address")
	cmd.Flags().StringVar(&baseURL, "base-url", defaults.BaseURL, "Path prefix the docs are mounted under")
	cmd.Flags().StringSliceVar(&probeURLs, "probe-url", nil, "Extra URL that must answer 2xx for readiness (repeatable)")
	return cmd
}

// docsHandler mounts the info routes behind the router middleware chain.
func (a *app) docsHandler(serve ServeConfig) http.Handler {
	client := a.client()

	readiness := []probe.Func{probe.NewServiceProbe("service", client)}
	httpClient := &http.Client{Timeout: a.cfg.Timeout}
	for i, target := range serve.ProbeURLs {
		name := fmt.Sprintf("probe-url-%d", i+1)
		readiness = append(readiness, probe.NewHTTPProbe(name, http.MethodGet, target, httpClient))
	}

	ih := info.NewInfoHandler(client,
		info.WithBaseURL(serve.BaseURL),
		info.WithInfoResponder(responder.NewResponder(responder.WithLogger(a.logger))),
		info.WithProbeTimeout(a.cfg.Timeout),
		info.WithReadinessChecks(readiness...),
	)

	var handler http.Handler = ih.Routes()
	if serve.BaseURL != "" {
		mux := http.NewServeMux()
		mux.Handle(serve.BaseURL+"/", http.StripPrefix(serve.BaseURL, handler))
		handler = mux
	}
	return router.New(handler,
		router.WithLogger(a.logger),
		router.WithConfig(serve.Router),
	)
}

func newStubCommand(a *app) *cobra.Command {
	var (
		addr     string
		echo     bool
		validate bool
		version  string
	)

	cmd := &cobra.Command{
		Use:   "stub <spec.json>",
		Short: "Serve a local stand-in for a service described by a specification file",
		Long: `Serve the Bedrock convention at <addr>/api for the events a specification
file declares. Requests are checked against the declared parameters; events
without a handler answer with an error unless --echo is set, in which case they
reply with their own parameters. help, version, ok, lock and multiple are built in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpecification(args[0])
			if err != nil {
				return err
			}

			handler, err := servicetest.NewHandler(spec, a.stubOptions(spec, echo, validate, version)...)
			if err != nil {
				return err
			}
			return a.listenAndServe(cmd.Context(), addr, handler, func(bound string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s/api\n", args[0], bound)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().BoolVar(&echo, "echo", false, "Answer every declared event with its own parameters")
	cmd.Flags().BoolVar(&validate, "validate", false, "Validate requests against the derived OpenAPI document")
	cmd.Flags().StringVar(&version, "version", "", "pom-version reported by the version event")
	return cmd
}

func (a *app) stubOptions(spec *descriptor.Specification, echo, validate bool, version string) []servicetest.Option {
	opts := []servicetest.Option{servicetest.WithLogger(a.logger)}
	if version != "" {
		opts = append(opts, servicetest.WithVersion(servicetest.Version{PomVersion: version, DisplayName: spec.Name}))
	}
	if validate {
		opts = append(opts, servicetest.WithOpenAPIValidation())
	}
	if echo {
		for name := range spec.Events {
			opts = append(opts, servicetest.WithEvent(name, echoEvent))
		}
	}
	return opts
}

// echoEvent replies with the query minus its event name.
func echoEvent(_ context.Context, query service.Parameters) (any, error) {
	reply := make(service.Parameters, len(query))
	for name, value := range query {
		if name != service.FieldEvent {
			reply[name] = value
		}
	}
	return reply, nil
}

// listenAndServe serves handler on addr until ctx ends, then shuts down
// gracefully. ready receives the bound address once the listener is open.
func (a *app) listenAndServe(ctx context.Context, addr string, handler http.Handler, ready func(bound string)) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.logger.Info("server started", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down server", "addr", ln.Addr().String())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
