// Command hans is the Spotify DJ command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/hansdj/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	runner := NewRunner(RunnerOpts{Output: stdout, Logger: shared.NewLogger(stderr)})
	defer runner.Close()

	err := runner.app().Run(ctx, args)
	return report(stdout, stderr, err)
}

// report prints err and picks the exit status. Usage errors exit 1; service failures are
// printed as "Error: <err>" and exit 0.
func report(stdout, stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case isUsageError(err):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	default:
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 0
	}
}

func isUsageError(err error) bool {
	return errors.Is(err, shared.ErrMissingArgument) ||
		errors.Is(err, shared.ErrInvalidArgument) ||
		errors.Is(err, shared.ErrInvalidConfig)
}
