package marketplace

import (
	"log/slog"

	httpadapter "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/adapters/http"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/adapters/memory"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application/commands"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application/queries"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

// Module is the composition surface for the marketplace within the service.
// Runtime wiring should consume Handler; Store/Assets/Bank are exposed for
// tests and inspection.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Assets  *memory.AssetRegistry
	Bank    *memory.Bank
}

type Dependencies struct {
	Listings           ports.ListingRepository
	Proceeds           ports.ProceedsLedger
	Assets             ports.AssetRegistry
	Bank               ports.Bank
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	MarketplaceAccount string
	Logger             *slog.Logger
}

// NewModule wires the marketplace use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	listItem := commands.ListItemUseCase{
		Listings:           deps.Listings,
		Assets:             deps.Assets,
		Clock:              deps.Clock,
		IDGenerator:        deps.IDGenerator,
		MarketplaceAccount: deps.MarketplaceAccount,
		Logger:             deps.Logger,
	}
	cancelListing := commands.CancelListingUseCase{
		Listings:    deps.Listings,
		Assets:      deps.Assets,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	updateListing := commands.UpdateListingUseCase{
		Listings:    deps.Listings,
		Assets:      deps.Assets,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	buyItem := commands.BuyItemUseCase{
		Listings:    deps.Listings,
		Assets:      deps.Assets,
		Bank:        deps.Bank,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	withdrawProceeds := commands.WithdrawProceedsUseCase{
		Proceeds: deps.Proceeds,
		Bank:     deps.Bank,
		Logger:   deps.Logger,
	}
	getListing := queries.GetListingUseCase{
		Listings: deps.Listings,
		Logger:   deps.Logger,
	}
	getProceeds := queries.GetProceedsUseCase{
		Proceeds: deps.Proceeds,
		Logger:   deps.Logger,
	}
	listListings := queries.ListListingsUseCase{
		Listings: deps.Listings,
		Logger:   deps.Logger,
	}

	handler := httpadapter.Handler{
		ListItem:         listItem,
		CancelListing:    cancelListing,
		UpdateListing:    updateListing,
		BuyItem:          buyItem,
		WithdrawProceeds: withdrawProceeds,
		GetListing:       getListing,
		GetProceeds:      getProceeds,
		ListListings:     listListings,
		Logger:           deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires the marketplace against in-memory adapters,
// including a seedable asset registry and bank for local runtime and tests.
func NewInMemoryModule(marketplaceAccount string, logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	assets := memory.NewAssetRegistry()
	bank := memory.NewBank()

	module := NewModule(Dependencies{
		Listings:           store,
		Proceeds:           store,
		Assets:             assets,
		Bank:               bank,
		Clock:              store,
		IDGenerator:        store,
		MarketplaceAccount: marketplaceAccount,
		Logger:             logger,
	})
	module.Store = store
	module.Assets = assets
	module.Bank = bank
	return module
}
