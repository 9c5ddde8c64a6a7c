package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bigbuild/buildwizard/cmd"
	"github.com/bigbuild/buildwizard/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if err := cmd.InitCommands(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize commands: %v\n", err)
		stop()
		os.Exit(1)
	}
	err := cmd.Execute(ctx)
	stop()
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrUserCancelled), errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Cancelled.")
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
