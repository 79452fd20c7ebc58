package memory

import (
	"context"
	"errors"
	"testing"

	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
)

func TestAssetRegistryOwnershipAndApproval(t *testing.T) {
	registry := NewAssetRegistry()
	ctx := context.Background()
	registry.Mint("0xabc", 1, "alice")
	registry.Approve("0xabc", 1, "marketplace")

	owner, err := registry.OwnerOf(ctx, "0xabc", 1)
	if err != nil || owner != "alice" {
		t.Fatalf("expected alice as owner, got %q err %v", owner, err)
	}
	operator, err := registry.ApprovedOperator(ctx, "0xabc", 1)
	if err != nil || operator != "marketplace" {
		t.Fatalf("expected marketplace approved, got %q err %v", operator, err)
	}

	if _, err := registry.OwnerOf(ctx, "0xabc", 99); !errors.Is(err, domainerrors.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound for unknown asset, got %v", err)
	}
}

func TestAssetRegistryTransferClearsApproval(t *testing.T) {
	registry := NewAssetRegistry()
	ctx := context.Background()
	registry.Mint("0xabc", 1, "alice")
	registry.Approve("0xabc", 1, "marketplace")

	if err := registry.Transfer(ctx, "0xabc", 1, "bob", "carol"); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("non-owner transfer must fail, got %v", err)
	}
	if err := registry.Transfer(ctx, "0xabc", 1, "alice", "bob"); err != nil {
		t.Fatalf("owner transfer: %v", err)
	}

	owner, _ := registry.OwnerOf(ctx, "0xabc", 1)
	if owner != "bob" {
		t.Fatalf("expected bob as new owner, got %q", owner)
	}
	operator, _ := registry.ApprovedOperator(ctx, "0xabc", 1)
	if operator != "" {
		t.Fatalf("transfer must clear approval, got %q", operator)
	}
}

func TestBankFundEscrowCoversRestoredProceeds(t *testing.T) {
	bank := NewBank()
	ctx := context.Background()

	// Escrow refill at startup lets balances that outlived the process be
	// withdrawn even though no purchase ran in this lifetime.
	bank.FundEscrow(300)
	if got := bank.EscrowBalance(); got != 300 {
		t.Fatalf("expected 300 escrow, got %d", got)
	}
	if err := bank.Payout(ctx, "alice", 300); err != nil {
		t.Fatalf("payout from refilled escrow: %v", err)
	}
	if got := bank.Balance("alice"); got != 300 {
		t.Fatalf("expected 300 paid out, got %d", got)
	}
}

func TestBankCollectAndPayoutThroughEscrow(t *testing.T) {
	bank := NewBank()
	ctx := context.Background()
	bank.Deposit("bob", 300)

	if err := bank.Collect(ctx, "bob", 500); err == nil {
		t.Fatal("collecting more than the balance must fail")
	}
	if err := bank.Collect(ctx, "bob", 200); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := bank.Balance("bob"); got != 100 {
		t.Fatalf("expected 100 left for bob, got %d", got)
	}
	if got := bank.EscrowBalance(); got != 200 {
		t.Fatalf("expected 200 in escrow, got %d", got)
	}

	if err := bank.Payout(ctx, "alice", 250); err == nil {
		t.Fatal("paying out more than escrow must fail")
	}
	if err := bank.Payout(ctx, "alice", 200); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if got := bank.Balance("alice"); got != 200 {
		t.Fatalf("expected 200 for alice, got %d", got)
	}
	if got := bank.EscrowBalance(); got != 0 {
		t.Fatalf("expected drained escrow, got %d", got)
	}
}
