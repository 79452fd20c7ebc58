package services

import (
	"errors"
	"testing"

	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
)

func TestIsOwner(t *testing.T) {
	if !IsOwner("alice", "alice") {
		t.Fatal("owner should match itself")
	}
	if IsOwner("alice", "bob") {
		t.Fatal("non-owner must not match")
	}
	if IsOwner("", "") {
		t.Fatal("empty owner must never match")
	}
	if !IsOwner(" alice ", "alice") {
		t.Fatal("surrounding whitespace should not break the match")
	}
}

func TestIsApprovedForMarketplace(t *testing.T) {
	if !IsApprovedForMarketplace("marketplace", "marketplace") {
		t.Fatal("matching operator should be approved")
	}
	if IsApprovedForMarketplace("someone-else", "marketplace") {
		t.Fatal("foreign operator must not be approved")
	}
	if IsApprovedForMarketplace("", "marketplace") {
		t.Fatal("cleared approval must not pass")
	}
}

func TestEvaluateListingAuthority(t *testing.T) {
	if err := EvaluateListingAuthority("alice", "marketplace", "alice", "marketplace"); err != nil {
		t.Fatalf("owner with approval should pass: %v", err)
	}
	if err := EvaluateListingAuthority("alice", "marketplace", "bob", "marketplace"); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := EvaluateListingAuthority("alice", "bob", "alice", "marketplace"); !errors.Is(err, domainerrors.ErrNotApprovedForMarketplace) {
		t.Fatalf("expected ErrNotApprovedForMarketplace, got %v", err)
	}
	// Ownership is checked before approval.
	if err := EvaluateListingAuthority("alice", "", "bob", "marketplace"); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner to win, got %v", err)
	}
}

func TestEvaluateSellerAuthority(t *testing.T) {
	if err := EvaluateSellerAuthority("alice", "alice"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := EvaluateSellerAuthority("alice", "bob"); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}
