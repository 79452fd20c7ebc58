package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type BuyItemCommand struct {
	AssetContract string
	AssetID       uint64
	Caller        string
	PaymentAmount uint64
}

type BuyItemResult struct {
	Listing entities.Listing
	Price   uint64
}

type BuyItemUseCase struct {
	Listings    ports.ListingRepository
	Assets      ports.AssetRegistry
	Bank        ports.Bank
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute purchases a listed asset. Local effects (listing removal, proceeds
// credit, ItemBought notification) are staged first; settlement (value
// collection, asset transfer) runs inside the same write boundary and any
// settlement failure rolls everything back.
//
// Overpayment is accepted at the precondition level but only the listing price
// is collected from the buyer; the surplus never leaves the buyer's account.
func (u BuyItemUseCase) Execute(ctx context.Context, cmd BuyItemCommand) (BuyItemResult, error) {
	logger := application.ResolveLogger(u.Logger)

	key, err := entities.NewListingKey(cmd.AssetContract, cmd.AssetID)
	if err != nil {
		return BuyItemResult{}, err
	}
	if strings.TrimSpace(cmd.Caller) == "" {
		return BuyItemResult{}, domainerrors.ErrInvalidListingRequest
	}

	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		return BuyItemResult{}, err
	}
	if cmd.PaymentAmount < listing.Price {
		logger.Warn("buy item rejected on payment",
			"event", "buy_item_price_not_met",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"buyer", cmd.Caller,
			"payment", cmd.PaymentAmount,
			"price", listing.Price,
		)
		return BuyItemResult{}, domainerrors.ErrPriceNotMet
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return BuyItemResult{}, err
	}
	now := u.now()
	event := ports.ItemBoughtEvent{
		EventID:       eventID,
		EventType:     ItemBoughtEventType,
		AssetContract: key.AssetContract,
		AssetID:       key.AssetID,
		Buyer:         cmd.Caller,
		Seller:        listing.Seller,
		Price:         listing.Price,
		PartitionKey:  key.PartitionKey(),
		OccurredAt:    now,
	}

	settle := func(ctx context.Context, current entities.Listing) error {
		if err := u.Bank.Collect(ctx, cmd.Caller, current.Price); err != nil {
			return fmt.Errorf("%w: collect payment: %v", domainerrors.ErrTransferFailed, err)
		}
		if err := u.Assets.Transfer(ctx, current.AssetContract, current.AssetID, current.Seller, cmd.Caller); err != nil {
			// Payment already collected; return it before aborting so the
			// rollback leaves the buyer whole.
			if refundErr := u.Bank.Payout(ctx, cmd.Caller, current.Price); refundErr != nil {
				logger.Error("buy item refund failed after transfer failure",
					"event", "buy_item_refund_failed",
					"module", "trading/marketplace",
					"layer", "application",
					"asset_contract", current.AssetContract,
					"asset_id", current.AssetID,
					"buyer", cmd.Caller,
					"error", refundErr.Error(),
				)
			}
			return fmt.Errorf("%w: asset transfer: %v", domainerrors.ErrTransferFailed, err)
		}
		return nil
	}

	if err := u.Listings.PurchaseListing(ctx, key, cmd.Caller, event, settle); err != nil {
		logger.Error("buy item failed",
			"event", "buy_item_failed",
			"module", "trading/marketplace",
			"layer", "application",
			"asset_contract", key.AssetContract,
			"asset_id", key.AssetID,
			"buyer", cmd.Caller,
			"error", err.Error(),
		)
		return BuyItemResult{}, err
	}

	logger.Info("item bought",
		"event", "marketplace_item_bought",
		"module", "trading/marketplace",
		"layer", "application",
		"asset_contract", key.AssetContract,
		"asset_id", key.AssetID,
		"buyer", cmd.Caller,
		"seller", listing.Seller,
		"price", listing.Price,
	)

	return BuyItemResult{Listing: listing, Price: listing.Price}, nil
}

func (u BuyItemUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
