package unit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	httptransport "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/transport/http"
)

func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	current := wd
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found from %s", wd)
		}
		current = parent
	}
}

func containsAnyString(values []any, target string) bool {
	for _, value := range values {
		if s, ok := value.(string); ok && s == target {
			return true
		}
	}
	return false
}

func TestMarketplaceEventSchemasCoverCanonicalEventSet(t *testing.T) {
	root, err := findRepoRoot()
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}

	cases := map[string][]string{
		"market.item_listed":   {"asset_contract", "asset_id", "seller", "price"},
		"market.item_canceled": {"asset_contract", "asset_id", "seller"},
		"market.item_bought":   {"asset_contract", "asset_id", "buyer", "seller", "price"},
	}

	for eventType, requiredFields := range cases {
		path := filepath.Join(root, "contracts", "events", "v1", eventType+".schema.json")
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read event schema %s: %v", eventType, err)
		}

		var schema map[string]any
		if err := json.Unmarshal(raw, &schema); err != nil {
			t.Fatalf("decode event schema %s: %v", eventType, err)
		}
		if title, _ := schema["title"].(string); title != eventType {
			t.Fatalf("schema %s has wrong title: %q", eventType, title)
		}

		required, _ := schema["required"].([]any)
		for _, key := range requiredFields {
			if !containsAnyString(required, key) {
				t.Fatalf("schema %s missing required payload key %s", eventType, key)
			}
		}
	}
}

func TestMarketplaceBoughtEventEnvelopeContractConsistency(t *testing.T) {
	module := newMarket(t)
	ctx := context.Background()
	module.Bank.Deposit("bob", 500)
	seedListedAsset(t, module, 42, "alice", 120)

	if _, err := module.Handler.BuyItemHandler(ctx, "bob", testContract, 42, httptransport.BuyListingRequest{PaymentAmount: 120}); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	outbox := module.Store.OutboxEvents()
	if len(outbox) == 0 {
		t.Fatalf("expected bought event in outbox")
	}

	foundBought := false
	for _, message := range outbox {
		var envelope map[string]any
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode outbox payload failed: %v", err)
		}

		eventType, _ := envelope["event_type"].(string)
		if eventType != "market.item_bought" {
			continue
		}
		foundBought = true

		if sourceService, _ := envelope["source_service"].(string); sourceService != "nft-marketplace" {
			t.Fatalf("invalid source_service for bought event: %q", sourceService)
		}
		if partitionPath, _ := envelope["partition_key_path"].(string); partitionPath != "asset" {
			t.Fatalf("invalid partition_key_path for bought event: %q", partitionPath)
		}
		partitionKey, _ := envelope["partition_key"].(string)
		if partitionKey != fmt.Sprintf("%s:%d", testContract, 42) {
			t.Fatalf("partition key must pin the asset, got %q", partitionKey)
		}
		if version, _ := envelope["schema_version"].(float64); int(version) != 1 {
			t.Fatalf("unexpected schema_version: %v", envelope["schema_version"])
		}

		data, _ := envelope["data"].(map[string]any)
		if data == nil {
			t.Fatalf("bought event missing data payload")
		}
		for _, key := range []string{"asset_contract", "asset_id", "buyer", "seller", "price"} {
			if _, ok := data[key]; !ok {
				t.Fatalf("bought event payload missing %s", key)
			}
		}
		if buyer, _ := data["buyer"].(string); buyer != "bob" {
			t.Fatalf("bought event has wrong buyer: %q", buyer)
		}
		if price, _ := data["price"].(float64); uint64(price) != 120 {
			t.Fatalf("bought event has wrong price: %v", data["price"])
		}
	}
	if !foundBought {
		t.Fatalf("no market.item_bought envelope relayed to outbox")
	}
}
