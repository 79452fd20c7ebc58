package queries

import (
	"context"
	"log/slog"

	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type GetListingQuery struct {
	AssetContract string
	AssetID       uint64
}

type GetListingResult struct {
	Listing entities.Listing
}

type GetListingUseCase struct {
	Listings ports.ListingRepository
	Logger   *slog.Logger
}

func (u GetListingUseCase) Execute(ctx context.Context, query GetListingQuery) (GetListingResult, error) {
	key, err := entities.NewListingKey(query.AssetContract, query.AssetID)
	if err != nil {
		return GetListingResult{}, err
	}
	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		return GetListingResult{}, err
	}
	return GetListingResult{Listing: listing}, nil
}
