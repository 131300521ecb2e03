// Command compound administers compound objects: repository objects, the
// parent/child links between them, and the order of each parent's children.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "compound:", err)
		os.Exit(exitCode(err))
	}
}
