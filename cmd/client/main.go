package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/linkstash/internal/client/cli"
	"github.com/dmitrijs2005/linkstash/internal/client/config"
	"github.com/dmitrijs2005/linkstash/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	log := logging.NewDefault()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	app.Run(ctx)
}
