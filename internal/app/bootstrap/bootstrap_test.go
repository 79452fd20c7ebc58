package bootstrap

import (
	"context"
	"testing"

	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/adapters/memory"
	"github.com/easonnong/nft-marketplace/internal/platform/config"
)

func TestBuildAPIMemoryDriverNeedsNoPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("MARKET_SEED_ASSETS", "0xbasic:0:alice")
	t.Setenv("MARKET_SEED_BALANCES", "bob:500")

	app, err := BuildAPI()
	if err != nil {
		t.Fatalf("memory-driver api must build without a database: %v", err)
	}
	if app.server == nil {
		t.Fatal("api app must carry a server")
	}
	if app.postgres != nil {
		t.Fatal("memory driver must not open a database connection")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBuildWorkerRejectsMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	if _, err := BuildWorker(); err == nil {
		t.Fatal("worker must refuse the memory driver")
	}
}

func TestSeedGatewaysLoadsFixtures(t *testing.T) {
	cfg := config.Config{
		MarketplaceAccount: "marketplace",
		SeedAssets: []config.SeedAsset{
			{AssetContract: "0xbasic", AssetID: 0, Owner: "alice"},
		},
		SeedBalances: []config.SeedBalance{
			{Account: "bob", Amount: 500},
		},
	}
	assets := memory.NewAssetRegistry()
	bank := memory.NewBank()

	seedGateways(cfg, assets, bank)

	ctx := context.Background()
	owner, err := assets.OwnerOf(ctx, "0xbasic", 0)
	if err != nil || owner != "alice" {
		t.Fatalf("seeded asset must belong to alice, got %q err %v", owner, err)
	}
	operator, err := assets.ApprovedOperator(ctx, "0xbasic", 0)
	if err != nil || operator != "marketplace" {
		t.Fatalf("seeded asset must carry marketplace approval, got %q err %v", operator, err)
	}
	if got := bank.Balance("bob"); got != 500 {
		t.Fatalf("seeded balance must be deposited, got %d", got)
	}
}
