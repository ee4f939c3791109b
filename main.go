// hellosrv - a one-peer TCP greeting server and its client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hellosrv/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "hellosrv: %v\n", err)
		os.Exit(1)
	}
}
