package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"poetry-migrate/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	cancel()
	if ctx.Err() != nil && code != 0 {
		os.Exit(130) // SIGINT convention
	}
	os.Exit(code)
}
