package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application/commands"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application/queries"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/entities"
	httptransport "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/transport/http"
)

type Handler struct {
	ListItem         commands.ListItemUseCase
	CancelListing    commands.CancelListingUseCase
	UpdateListing    commands.UpdateListingUseCase
	BuyItem          commands.BuyItemUseCase
	WithdrawProceeds commands.WithdrawProceedsUseCase
	GetListing       queries.GetListingUseCase
	GetProceeds      queries.GetProceedsUseCase
	ListListings     queries.ListListingsUseCase
	Logger           *slog.Logger
}

// ListItemHandler godoc
// @Summary List an asset for sale
// @Description Creates a fixed-price listing for an asset the caller owns.
// @Tags marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.CreateListingRequest true "Listing payload"
// @Success 201 {object} httptransport.CreateListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings [post]
func (h Handler) ListItemHandler(ctx context.Context, caller string, req httptransport.CreateListingRequest) (httptransport.CreateListingResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("list item request received",
		"event", "http_list_item_received",
		"module", "trading/marketplace",
		"layer", "transport",
		"asset_contract", req.AssetContract,
		"asset_id", req.AssetID,
	)

	result, err := h.ListItem.Execute(ctx, commands.ListItemCommand{
		AssetContract: req.AssetContract,
		AssetID:       req.AssetID,
		Caller:        caller,
		Price:         req.Price,
	})
	if err != nil {
		return httptransport.CreateListingResponse{}, err
	}
	return httptransport.CreateListingResponse{Item: mapListing(result.Listing)}, nil
}

// CancelListingHandler godoc
// @Summary Cancel a listing
// @Description Removes the caller's active listing for the asset.
// @Tags marketplace
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param asset_contract path string true "Asset contract"
// @Param asset_id path int true "Asset id"
// @Success 204 "listing removed"
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings/{asset_contract}/{asset_id} [delete]
func (h Handler) CancelListingHandler(ctx context.Context, caller string, assetContract string, assetID uint64) error {
	return h.CancelListing.Execute(ctx, commands.CancelListingCommand{
		AssetContract: assetContract,
		AssetID:       assetID,
		Caller:        caller,
	})
}

// UpdateListingHandler godoc
// @Summary Update a listing price
// @Description Overwrites the listing price; re-emits the listed notification.
// @Tags marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param asset_contract path string true "Asset contract"
// @Param asset_id path int true "Asset id"
// @Param request body httptransport.UpdateListingRequest true "New price"
// @Success 200 {object} httptransport.UpdateListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings/{asset_contract}/{asset_id} [patch]
func (h Handler) UpdateListingHandler(
	ctx context.Context,
	caller string,
	assetContract string,
	assetID uint64,
	req httptransport.UpdateListingRequest,
) (httptransport.UpdateListingResponse, error) {
	result, err := h.UpdateListing.Execute(ctx, commands.UpdateListingCommand{
		AssetContract: assetContract,
		AssetID:       assetID,
		Caller:        caller,
		NewPrice:      req.NewPrice,
	})
	if err != nil {
		return httptransport.UpdateListingResponse{}, err
	}
	return httptransport.UpdateListingResponse{Item: mapListing(result.Listing)}, nil
}

// BuyItemHandler godoc
// @Summary Buy a listed asset
// @Description Purchases the asset at the listing price; payment must meet it.
// @Tags marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param asset_contract path string true "Asset contract"
// @Param asset_id path int true "Asset id"
// @Param request body httptransport.BuyListingRequest true "Payment"
// @Success 200 {object} httptransport.BuyListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings/{asset_contract}/{asset_id}/buy [post]
func (h Handler) BuyItemHandler(
	ctx context.Context,
	caller string,
	assetContract string,
	assetID uint64,
	req httptransport.BuyListingRequest,
) (httptransport.BuyListingResponse, error) {
	result, err := h.BuyItem.Execute(ctx, commands.BuyItemCommand{
		AssetContract: assetContract,
		AssetID:       assetID,
		Caller:        caller,
		PaymentAmount: req.PaymentAmount,
	})
	if err != nil {
		return httptransport.BuyListingResponse{}, err
	}
	return httptransport.BuyListingResponse{
		AssetContract: result.Listing.AssetContract,
		AssetID:       result.Listing.AssetID,
		Buyer:         caller,
		Seller:        result.Listing.Seller,
		Price:         result.Price,
	}, nil
}

// WithdrawProceedsHandler godoc
// @Summary Withdraw accumulated proceeds
// @Description Pays out and zeroes the caller's proceeds balance.
// @Tags marketplace
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Success 200 {object} httptransport.WithdrawProceedsResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/proceeds/withdraw [post]
func (h Handler) WithdrawProceedsHandler(ctx context.Context, caller string) (httptransport.WithdrawProceedsResponse, error) {
	result, err := h.WithdrawProceeds.Execute(ctx, commands.WithdrawProceedsCommand{Caller: caller})
	if err != nil {
		return httptransport.WithdrawProceedsResponse{}, err
	}
	return httptransport.WithdrawProceedsResponse{Amount: result.Amount}, nil
}

// GetListingHandler godoc
// @Summary Get one listing
// @Description Returns the active listing for the asset, 404 when absent.
// @Tags marketplace
// @Produce json
// @Param asset_contract path string true "Asset contract"
// @Param asset_id path int true "Asset id"
// @Success 200 {object} httptransport.GetListingResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings/{asset_contract}/{asset_id} [get]
func (h Handler) GetListingHandler(ctx context.Context, assetContract string, assetID uint64) (httptransport.GetListingResponse, error) {
	result, err := h.GetListing.Execute(ctx, queries.GetListingQuery{
		AssetContract: assetContract,
		AssetID:       assetID,
	})
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	return httptransport.GetListingResponse{Item: mapListing(result.Listing)}, nil
}

// ListListingsHandler godoc
// @Summary List active listings
// @Description Returns the catalog with filters and cursor pagination.
// @Tags marketplace
// @Produce json
// @Param asset_contract query string false "Asset contract filter"
// @Param seller query string false "Seller filter"
// @Param cursor query string false "Cursor token"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {object} httptransport.ListListingsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings [get]
func (h Handler) ListListingsHandler(ctx context.Context, assetContract, seller, cursor string, limit int) (httptransport.ListListingsResponse, error) {
	result, err := h.ListListings.Execute(ctx, queries.ListListingsQuery{
		AssetContract: assetContract,
		Seller:        seller,
		Cursor:        cursor,
		Limit:         limit,
	})
	if err != nil {
		return httptransport.ListListingsResponse{}, err
	}
	items := make([]httptransport.ListingDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapListing(item))
	}
	return httptransport.ListListingsResponse{
		Items:      items,
		NextCursor: result.NextCursor,
	}, nil
}

// GetProceedsHandler godoc
// @Summary Get withdrawable proceeds
// @Description Returns the caller's accumulated, not-yet-withdrawn balance.
// @Tags marketplace
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Success 200 {object} httptransport.GetProceedsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/proceeds [get]
func (h Handler) GetProceedsHandler(ctx context.Context, caller string) (httptransport.GetProceedsResponse, error) {
	result, err := h.GetProceeds.Execute(ctx, queries.GetProceedsQuery{Account: caller})
	if err != nil {
		return httptransport.GetProceedsResponse{}, err
	}
	return httptransport.GetProceedsResponse{
		Account: result.Account,
		Balance: result.Balance,
	}, nil
}

func mapListing(listing entities.Listing) httptransport.ListingDTO {
	return httptransport.ListingDTO{
		AssetContract: listing.AssetContract,
		AssetID:       listing.AssetID,
		Seller:        listing.Seller,
		Price:         listing.Price,
		ListedAt:      listing.ListedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     listing.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
