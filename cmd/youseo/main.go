// Command youseo analyzes YouTube videos and manages the local API
// response cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/youseo/internal/cli"
	"github.com/rshade/youseo/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its result to an exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode returns 0 for a nil error and 1 otherwise.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
