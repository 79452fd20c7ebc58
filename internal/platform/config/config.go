package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// SeedAsset pre-mints an asset into the stand-in registry at startup, with
// marketplace approval already granted.
type SeedAsset struct {
	AssetContract string
	AssetID       uint64
	Owner         string
}

// SeedBalance pre-funds an account in the stand-in bank at startup.
type SeedBalance struct {
	Account string
	Amount  uint64
}

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName        string
	HTTPPort           string
	StorageDriver      string
	PostgresDSN        string
	KafkaBrokers       []string
	MarketplaceAccount string

	SeedAssets   []SeedAsset
	SeedBalances []SeedBalance

	EnableOutboxRelay bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "nft-marketplace"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	driver := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_DRIVER")))
	switch driver {
	case "":
		driver = StorageDriverMemory
	case StorageDriverMemory, StorageDriverPostgres:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	marketplaceAccount := strings.TrimSpace(os.Getenv("MARKETPLACE_ACCOUNT"))
	if marketplaceAccount == "" {
		marketplaceAccount = "marketplace"
	}

	seedAssets, err := parseSeedAssets(os.Getenv("MARKET_SEED_ASSETS"))
	if err != nil {
		return Config{}, err
	}
	seedBalances, err := parseSeedBalances(os.Getenv("MARKET_SEED_BALANCES"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:        service,
		HTTPPort:           port,
		StorageDriver:      driver,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:       brokers,
		MarketplaceAccount: marketplaceAccount,

		SeedAssets:   seedAssets,
		SeedBalances: seedBalances,

		EnableOutboxRelay: envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

// parseSeedAssets reads "contract:id:owner" entries separated by commas.
func parseSeedAssets(raw string) ([]SeedAsset, error) {
	var seeds []SeedAsset
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid MARKET_SEED_ASSETS entry %q: want contract:id:owner", entry)
		}
		assetID, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MARKET_SEED_ASSETS entry %q: %v", entry, err)
		}
		contract := strings.TrimSpace(parts[0])
		owner := strings.TrimSpace(parts[2])
		if contract == "" || owner == "" {
			return nil, fmt.Errorf("invalid MARKET_SEED_ASSETS entry %q: empty contract or owner", entry)
		}
		seeds = append(seeds, SeedAsset{
			AssetContract: contract,
			AssetID:       assetID,
			Owner:         owner,
		})
	}
	return seeds, nil
}

// parseSeedBalances reads "account:amount" entries separated by commas.
func parseSeedBalances(raw string) ([]SeedBalance, error) {
	var seeds []SeedBalance
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid MARKET_SEED_BALANCES entry %q: want account:amount", entry)
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MARKET_SEED_BALANCES entry %q: %v", entry, err)
		}
		account := strings.TrimSpace(parts[0])
		if account == "" {
			return nil, fmt.Errorf("invalid MARKET_SEED_BALANCES entry %q: empty account", entry)
		}
		seeds = append(seeds, SeedBalance{Account: account, Amount: amount})
	}
	return seeds, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
