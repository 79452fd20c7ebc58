package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/services"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type ListItemCommand struct {
	AssetContract string
	AssetID       uint64
	Caller        string
	Price         uint64
}

type ListItemResult struct {
	Listing entities.Listing
}

type ListItemUseCase struct {
	Listings           ports.ListingRepository
	Assets             ports.AssetRegistry
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	MarketplaceAccount string
	Logger             *slog.Logger
}

// Execute creates a listing after the full precondition chain:
// price > 0, key not already listed, caller owns the asset, marketplace holds
// transfer approval. The listing row and its ItemListed notification commit in
// one write boundary.
func (u ListItemUseCase) Execute(ctx context.Context, cmd ListItemCommand) (ListItemResult, error) {
	logger := application.ResolveLogger(u.Logger)

	key, err := entities.NewListingKey(cmd.AssetContract, cmd.AssetID)
	if err != nil {
		return ListItemResult{}, err
	}
	if strings.TrimSpace(cmd.Caller) == "" {
		return ListItemResult{}, domainerrors.ErrInvalidListingRequest
	}
	if cmd.Price == 0 {
		return ListItemResult{}, domainerrors.ErrPriceMustBeAboveZero
	}

	if _, err := u.Listings.GetListing(ctx, key); err == nil {
		logger.Warn("list item rejected on existing listing",
			"event", "list_item_already_listed",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"caller", cmd.Caller,
		)
		return ListItemResult{}, domainerrors.ErrAlreadyListed
	} else if !errors.Is(err, domainerrors.ErrNotListed) {
		return ListItemResult{}, err
	}

	owner, err := u.Assets.OwnerOf(ctx, key.AssetContract, key.AssetID)
	if err != nil {
		logger.Error("list item failed resolving owner",
			"event", "list_item_owner_lookup_failed",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"error", err.Error(),
		)
		return ListItemResult{}, err
	}
	approved, err := u.Assets.ApprovedOperator(ctx, key.AssetContract, key.AssetID)
	if err != nil {
		return ListItemResult{}, err
	}
	if err := services.EvaluateListingAuthority(owner, approved, cmd.Caller, u.MarketplaceAccount); err != nil {
		logger.Warn("list item rejected by access guard",
			"event", "list_item_access_denied",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return ListItemResult{}, err
	}

	now := u.now()
	listing, err := entities.NewListing(key, cmd.Caller, cmd.Price, now)
	if err != nil {
		return ListItemResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ListItemResult{}, err
	}
	event := ports.ItemListedEvent{
		EventID:       eventID,
		EventType:     ItemListedEventType,
		AssetContract: listing.AssetContract,
		AssetID:       listing.AssetID,
		Seller:        listing.Seller,
		Price:         listing.Price,
		PartitionKey:  key.PartitionKey(),
		OccurredAt:    now,
	}

	if err := u.Listings.CreateListingWithOutbox(ctx, listing, event); err != nil {
		logger.Error("list item failed on write transaction",
			"event", "list_item_write_failed",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return ListItemResult{}, err
	}

	logger.Info("item listed",
		"event", "marketplace_item_listed",
		"module", "trading/marketplace",
		"layer", "application",
		"asset_contract", listing.AssetContract,
		"asset_id", listing.AssetID,
		"seller", listing.Seller,
		"price", listing.Price,
	)

	return ListItemResult{Listing: listing}, nil
}

func (u ListItemUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
