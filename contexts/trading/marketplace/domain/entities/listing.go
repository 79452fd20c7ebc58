package entities

import (
	"fmt"
	"strings"
	"time"

	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
)

// ListingKey identifies one asset across all registries the marketplace serves.
type ListingKey struct {
	AssetContract string
	AssetID       uint64
}

func NewListingKey(assetContract string, assetID uint64) (ListingKey, error) {
	if strings.TrimSpace(assetContract) == "" {
		return ListingKey{}, domainerrors.ErrInvalidListingRequest
	}
	return ListingKey{
		AssetContract: strings.TrimSpace(assetContract),
		AssetID:       assetID,
	}, nil
}

// PartitionKey is the canonical ordering key for notifications about this asset.
func (k ListingKey) PartitionKey() string {
	return fmt.Sprintf("%s:%d", k.AssetContract, k.AssetID)
}

// Listing is an active offer to sell one asset at a fixed price.
// A key without a stored Listing means "not listed"; an active listing never
// carries a zero price.
type Listing struct {
	AssetContract string
	AssetID       uint64
	Seller        string
	Price         uint64
	ListedAt      time.Time
	UpdatedAt     time.Time
}

func NewListing(key ListingKey, seller string, price uint64, listedAt time.Time) (Listing, error) {
	if strings.TrimSpace(seller) == "" {
		return Listing{}, domainerrors.ErrInvalidListingRequest
	}
	if price == 0 {
		return Listing{}, domainerrors.ErrPriceMustBeAboveZero
	}

	return Listing{
		AssetContract: key.AssetContract,
		AssetID:       key.AssetID,
		Seller:        strings.TrimSpace(seller),
		Price:         price,
		ListedAt:      listedAt.UTC(),
		UpdatedAt:     listedAt.UTC(),
	}, nil
}

func (l Listing) Key() ListingKey {
	return ListingKey{AssetContract: l.AssetContract, AssetID: l.AssetID}
}

// Reprice returns the listing with a new price. Update is modeled as a re-list,
// so callers re-emit the listed notification rather than a distinct one.
func (l Listing) Reprice(newPrice uint64, updatedAt time.Time) (Listing, error) {
	if newPrice == 0 {
		return Listing{}, domainerrors.ErrPriceMustBeAboveZero
	}
	l.Price = newPrice
	l.UpdatedAt = updatedAt.UTC()
	return l, nil
}
