// Command canvas-tools-mcp serves positioned-canvas compositing tools over
// MCP and renders composition recipes from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// versionText is shown by --version and the version command.
func versionText() string {
	return fmt.Sprintf("canvas-tools-mcp %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit)
}
