package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/apest/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		_, _ = os.Stderr.WriteString("apestctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
