// Command crunch runs declarative crunch job files.
//
//	crunch run users.toml -- --db users.db
//	crunch run --workers 4 --worker-index 2 users.toml
//	crunch describe users.toml
//	crunch plugins
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
