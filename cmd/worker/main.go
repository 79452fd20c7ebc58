package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/easonnong/nft-marketplace/internal/app/bootstrap"
)

// Worker process entrypoint: polls the marketplace outbox and relays
// notifications to the event bus.
func main() {
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("build worker app: %v", err)
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run worker app: %v", err)
	}
}
