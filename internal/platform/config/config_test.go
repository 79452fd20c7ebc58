package config

import "testing"

func TestLoadDefaultsToMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("MARKET_SEED_ASSETS", "")
	t.Setenv("MARKET_SEED_BALANCES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Fatalf("expected memory driver by default, got %q", cfg.StorageDriver)
	}
	if cfg.MarketplaceAccount != "marketplace" {
		t.Fatalf("expected default marketplace account, got %q", cfg.MarketplaceAccount)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")

	if _, err := Load(); err == nil {
		t.Fatal("unknown storage driver must be rejected")
	}
}

func TestLoadParsesSeedFixtures(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MARKET_SEED_ASSETS", "0xbasic:0:alice, 0xbasic:1:bob")
	t.Setenv("MARKET_SEED_BALANCES", "bob:500,carol:200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.SeedAssets) != 2 {
		t.Fatalf("expected 2 seed assets, got %d", len(cfg.SeedAssets))
	}
	first := cfg.SeedAssets[0]
	if first.AssetContract != "0xbasic" || first.AssetID != 0 || first.Owner != "alice" {
		t.Fatalf("unexpected first seed asset: %+v", first)
	}
	if len(cfg.SeedBalances) != 2 {
		t.Fatalf("expected 2 seed balances, got %d", len(cfg.SeedBalances))
	}
	if cfg.SeedBalances[1].Account != "carol" || cfg.SeedBalances[1].Amount != 200 {
		t.Fatalf("unexpected second seed balance: %+v", cfg.SeedBalances[1])
	}
}

func TestLoadRejectsMalformedSeeds(t *testing.T) {
	t.Setenv("MARKET_SEED_ASSETS", "0xbasic:not-a-number:alice")
	t.Setenv("MARKET_SEED_BALANCES", "")
	if _, err := Load(); err == nil {
		t.Fatal("malformed seed asset must be rejected")
	}

	t.Setenv("MARKET_SEED_ASSETS", "")
	t.Setenv("MARKET_SEED_BALANCES", "bob")
	if _, err := Load(); err == nil {
		t.Fatal("malformed seed balance must be rejected")
	}
}
