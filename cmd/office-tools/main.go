package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/walkingzzzy/office-bridge/example/office"
	"github.com/walkingzzzy/office-bridge/internal/log"
)

// options configures the standalone office tool provider.
type options struct {
	LogLevel string `short:"l" long:"log-level" description:"log level (debug, info, warn, error)" default:"info"`
}

func main() {
	opts := &options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.New(opts.LogLevel)
	server := office.New(logger)
	if err := server.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		logger.Error("provider terminated", "error", err)
		os.Exit(1)
	}
}
