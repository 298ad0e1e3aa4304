// Command bedrock posts events to Bedrock services and renders their
// documentation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/drblury/bedrock/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.buildDate=...".
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, cli.WithBuildInfo(cli.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	}))
	stop()
	if err != nil {
		os.Exit(1)
	}
}
