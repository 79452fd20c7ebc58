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

type CancelListingCommand struct {
	AssetContract string
	AssetID       uint64
	Caller        string
}

type CancelListingUseCase struct {
	Listings    ports.ListingRepository
	Assets      ports.AssetRegistry
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute removes an active listing. Only the current owner per the asset
// registry may cancel; the removal and the ItemCanceled notification commit
// together.
func (u CancelListingUseCase) Execute(ctx context.Context, cmd CancelListingCommand) error {
	logger := application.ResolveLogger(u.Logger)

	key, err := entities.NewListingKey(cmd.AssetContract, cmd.AssetID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.Caller) == "" {
		return domainerrors.ErrInvalidListingRequest
	}

	if _, err := u.Listings.GetListing(ctx, key); err != nil {
		return err
	}

	owner, err := u.Assets.OwnerOf(ctx, key.AssetContract, key.AssetID)
	if err != nil {
		return err
	}
	if err := services.EvaluateSellerAuthority(owner, cmd.Caller); err != nil {
		logger.Warn("cancel listing rejected by access guard",
			"event", "cancel_listing_access_denied",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"caller", cmd.Caller,
		)
		return err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	now := u.now()
	event := ports.ItemCanceledEvent{
		EventID:       eventID,
		EventType:     ItemCanceledEventType,
		AssetContract: key.AssetContract,
		AssetID:       key.AssetID,
		Seller:        cmd.Caller,
		PartitionKey:  key.PartitionKey(),
		OccurredAt:    now,
	}

	if err := u.Listings.RemoveListingWithOutbox(ctx, key, cmd.Caller, event); err != nil {
		logger.Error("cancel listing failed on write transaction",
			"event", "cancel_listing_write_failed",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("listing canceled",
		"event", "marketplace_item_canceled",
		"module", "trading/marketplace",
		"layer", "application",
		"asset_contract", key.AssetContract,
		"asset_id", key.AssetID,
		"seller", cmd.Caller,
	)
	return nil
}

func (u CancelListingUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
