package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edallison777/hypermage-vr/pkg/funcs/addfn"
	"github.com/edallison777/hypermage-vr/pkg/tools/mcpserver"
)

const version = "0.1.0"

// addfn exposes the remote addition function as a stdio MCP server. The
// agent runtime spawns it as a subprocess and calls its single tool.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := mcpserver.New("addfn", version)
	srv.Register(addfn.Tool())

	err := srv.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
