package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/easonnong/nft-marketplace/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
//
// @title NFT Marketplace API
// @version 1.0
// @description Fixed-price asset marketplace ledger with pull-payment seller proceeds.
// @BasePath /
func main() {
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("build api app: %v", err)
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run api app: %v", err)
	}
}
