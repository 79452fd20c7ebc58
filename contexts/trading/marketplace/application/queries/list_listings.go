package queries

import (
	"context"
	"log/slog"

	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

const maxListingPageSize = 50

type ListListingsQuery struct {
	AssetContract string
	Seller        string
	Cursor        string
	Limit         int
}

type ListListingsResult struct {
	Items      []entities.Listing
	NextCursor string
}

type ListListingsUseCase struct {
	Listings ports.ListingRepository
	Logger   *slog.Logger
}

// Execute pages through the active listing catalog for indexer/UI consumers.
func (u ListListingsUseCase) Execute(ctx context.Context, query ListListingsQuery) (ListListingsResult, error) {
	if query.Limit < 0 || query.Limit > maxListingPageSize {
		return ListListingsResult{}, domainerrors.ErrInvalidListFilter
	}

	items, nextCursor, err := u.Listings.ListListings(ctx, ports.ListingListFilter{
		AssetContract: query.AssetContract,
		Seller:        query.Seller,
		Cursor:        query.Cursor,
		Limit:         query.Limit,
	})
	if err != nil {
		return ListListingsResult{}, err
	}
	return ListListingsResult{Items: items, NextCursor: nextCursor}, nil
}
