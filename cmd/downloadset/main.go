package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgivc/downloadset/internal/app"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	dryRun := flag.Bool("n", false, "Resolve manifests and print the plan without downloading")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(*cfgFileName).Run(ctx, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "downloadset: %s\n", err)
		os.Exit(1)
	}
}
