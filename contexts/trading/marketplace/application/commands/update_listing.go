package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/services"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type UpdateListingCommand struct {
	AssetContract string
	AssetID       uint64
	Caller        string
	NewPrice      uint64
}

type UpdateListingResult struct {
	Listing entities.Listing
}

type UpdateListingUseCase struct {
	Listings    ports.ListingRepository
	Assets      ports.AssetRegistry
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute overwrites the price of an active listing and re-emits ItemListed
// with the new price. Precondition order: listing exists, caller owns the
// asset, new price above zero.
func (u UpdateListingUseCase) Execute(ctx context.Context, cmd UpdateListingCommand) (UpdateListingResult, error) {
	logger := application.ResolveLogger(u.Logger)

	key, err := entities.NewListingKey(cmd.AssetContract, cmd.AssetID)
	if err != nil {
		return UpdateListingResult{}, err
	}
	if strings.TrimSpace(cmd.Caller) == "" {
		return UpdateListingResult{}, domainerrors.ErrInvalidListingRequest
	}

	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		return UpdateListingResult{}, err
	}

	owner, err := u.Assets.OwnerOf(ctx, key.AssetContract, key.AssetID)
	if err != nil {
		return UpdateListingResult{}, err
	}
	if err := services.EvaluateSellerAuthority(owner, cmd.Caller); err != nil {
		logger.Warn("update listing rejected by access guard",
			"event", "update_listing_access_denied",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"caller", cmd.Caller,
		)
		return UpdateListingResult{}, err
	}

	now := u.now()
	updated, err := listing.Reprice(cmd.NewPrice, now)
	if err != nil {
		return UpdateListingResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return UpdateListingResult{}, err
	}
	event := ports.ItemListedEvent{
		EventID:       eventID,
		EventType:     ItemListedEventType,
		AssetContract: updated.AssetContract,
		AssetID:       updated.AssetID,
		Seller:        updated.Seller,
		Price:         updated.Price,
		PartitionKey:  key.PartitionKey(),
		OccurredAt:    now,
	}

	if err := u.Listings.RepriceListingWithOutbox(ctx, updated, event); err != nil {
		logger.Error("update listing failed on write transaction",
			"event", "update_listing_write_failed",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"error", err.Error(),
		)
		return UpdateListingResult{}, err
	}

	logger.Info("listing repriced",
		"event", "marketplace_listing_repriced",
		"module", "trading/marketplace",
		"layer", "application",
		"asset_contract", updated.AssetContract,
		"asset_id", updated.AssetID,
		"seller", updated.Seller,
		"price", updated.Price,
	)

	return UpdateListingResult{Listing: updated}, nil
}

func (u UpdateListingUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
