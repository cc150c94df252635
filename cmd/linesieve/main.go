// Command linesieve runs the line-set operations of Line Sieve from a terminal.
package main

import (
	"context"
	"os"
	"os/signal"

	"line-sieve/internal/logger"
)

func main() {
	logger.Init(logger.FromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
