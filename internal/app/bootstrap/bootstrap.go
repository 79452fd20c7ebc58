package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	marketplace "github.com/easonnong/nft-marketplace/contexts/trading/marketplace"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/adapters/memory"
	postgresadapter "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/adapters/postgres"
	workerapp "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application/workers"
	"github.com/easonnong/nft-marketplace/internal/platform/config"
	"github.com/easonnong/nft-marketplace/internal/platform/db"
	"github.com/easonnong/nft-marketplace/internal/platform/httpserver"
	"github.com/easonnong/nft-marketplace/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var (
		module marketplace.Module
		pg     *db.Postgres
	)
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
		}
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)

		// Asset registry and bank gateways are in-memory stand-ins until the
		// on-chain clients are wired into bootstrap.
		assets := memory.NewAssetRegistry()
		bank := memory.NewBank()
		seedGateways(cfg, assets, bank)

		// The bank escrow is volatile while the proceeds ledger is durable, so
		// after a restart the escrow must be refilled to cover every
		// outstanding balance or withdrawals of surviving proceeds bounce.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		total, err := repo.TotalProceeds(ctx)
		cancel()
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		bank.FundEscrow(total)

		module = marketplace.NewModule(marketplace.Dependencies{
			Listings:           repo,
			Proceeds:           repo,
			Assets:             assets,
			Bank:               bank,
			Clock:              postgresadapter.SystemClock{},
			IDGenerator:        postgresadapter.UUIDGenerator{},
			MarketplaceAccount: cfg.MarketplaceAccount,
			Logger:             logger,
		})
	default:
		module = marketplace.NewInMemoryModule(cfg.MarketplaceAccount, logger)
		seedGateways(cfg, module.Assets, module.Bank)
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

// seedGateways loads the configured dev fixtures into the stand-in gateways:
// seeded assets arrive with marketplace approval already granted, seeded
// balances are plain deposits.
func seedGateways(cfg config.Config, assets *memory.AssetRegistry, bank *memory.Bank) {
	for _, seed := range cfg.SeedAssets {
		assets.Mint(seed.AssetContract, seed.AssetID, seed.Owner)
		assets.Approve(seed.AssetContract, seed.AssetID, cfg.MarketplaceAccount)
	}
	for _, seed := range cfg.SeedBalances {
		bank.Deposit(seed.Account, seed.Amount)
	}
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	// The relay drains the durable outbox; with the memory driver the outbox
	// lives inside the API process and there is nothing for a worker to poll.
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return nil, errors.New("worker requires STORAGE_DRIVER=postgres")
	}
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"relay_enabled", w.relayEnabled,
	)

	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
