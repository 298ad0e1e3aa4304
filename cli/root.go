package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/drblury/bedrock/service"
	"github.com/drblury/bedrock/transport"
)

// BuildInfo identifies the binary. cmd/bedrock fills it from linker flags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// Option configures the root command.
type Option func(*app)

// WithBuildInfo sets what the version command prints.
func WithBuildInfo(info BuildInfo) Option {
	return func(a *app) {
		a.build = info
	}
}

// WithHTTPClient routes every outbound request through doer.
func WithHTTPClient(doer transport.HTTPDoer) Option {
	return func(a *app) {
		a.httpClient = doer
	}
}

// app carries the state one invocation of the root command shares with its
// subcommands.
type app struct {
	build      BuildInfo
	httpClient transport.HTTPDoer

	configPath  string
	contextPath string
	timeout     time.Duration
	logLevel    string
	logFormat   string

	cfg    Config
	logger *slog.Logger
}

// NewRootCommand assembles the bedrock command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		build:  BuildInfo{Version: "dev", Commit: "none", BuildDate: "unknown"},
		cfg:    DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	defaults := DefaultConfig()
	root := &cobra.Command{
		Use:   "bedrock",
		Short: "Talk to Bedrock event services",
		Long: `bedrock posts events to services that speak the Bedrock convention,
fetches and renders their self-description, exports it as OpenAPI, and serves
browsable documentation or a local stub of a service.

Settings come from flags, BEDROCK_* environment variables, and an optional
YAML file given with --config, in that order of precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.resolve,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file (env "+EnvConfig+")")
	flags.StringVar(&a.contextPath, "context-path", defaults.ContextPath, "Service context path; events are posted to <context-path>api (env "+EnvContextPath+")")
	flags.DurationVar(&a.timeout, "timeout", defaults.Timeout, "Request timeout (env "+EnvTimeout+")")
	flags.StringVar(&a.logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error (env "+EnvLogLevel+")")
	flags.StringVar(&a.logFormat, "log-format", defaults.Log.Format, "Log format: text, json (env "+EnvLogFormat+")")

	root.AddCommand(
		newPostCommand(a),
		newSpecCommand(a),
		newDocsCommand(a),
		newOpenAPICommand(a),
		newServeCommand(a),
		newStubCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the command tree against the process arguments. A failure is
// printed to stderr before it is returned.
func Execute(ctx context.Context, opts ...Option) error {
	err := NewRootCommand(opts...).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// resolve merges defaults, the configuration file, the environment and the
// flags the user set, then builds the logger.
func (a *app) resolve(cmd *cobra.Command, _ []string) error {
	cfg := DefaultConfig()

	flags := cmd.Flags()
	path := a.configPath
	if !flags.Changed("config") {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		loaded, err := LoadConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return err
	}

	if flags.Changed("context-path") {
		cfg.ContextPath = a.contextPath
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	cfg.ContextPath = normalizeContextPath(cfg.ContextPath)
	if err := cfg.validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = NewLogger(cmd.ErrOrStderr(), cfg.Log)
	a.logger.Debug("configuration resolved",
		"contextPath", cfg.ContextPath,
		"timeout", cfg.Timeout,
		"config", path,
	)
	return nil
}

// client builds a service client from the resolved configuration.
func (a *app) client() *service.Client {
	opts := []service.Option{
		service.WithLogger(a.logger),
		service.WithTimeout(a.cfg.Timeout),
	}
	if a.httpClient != nil {
		opts = append(opts, service.WithHTTPClient(a.httpClient))
	}
	return service.NewClient(a.cfg.ContextPath, opts...)
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bedrock version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bedrock %s (commit %s, built %s)\n",
				a.build.Version, a.build.Commit, a.build.BuildDate)
			return err
		},
	}
}
