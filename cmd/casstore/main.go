// Command casstore is a content-addressed, type-partitioned blob store
// backed by SQLite.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/casstore/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
