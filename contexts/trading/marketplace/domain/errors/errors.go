package errors

import "errors"

var (
	ErrAlreadyListed             = errors.New("asset is already listed")
	ErrNotListed                 = errors.New("asset is not listed")
	ErrNotOwner                  = errors.New("caller is not the asset owner")
	ErrNotApprovedForMarketplace = errors.New("marketplace is not approved to transfer the asset")
	ErrPriceMustBeAboveZero      = errors.New("price must be above zero")
	ErrPriceNotMet               = errors.New("payment does not meet the listing price")
	ErrNoProceeds                = errors.New("no proceeds to withdraw")
	ErrTransferFailed            = errors.New("external transfer failed")
	ErrInvalidListingRequest     = errors.New("invalid listing request")
	ErrInvalidListFilter         = errors.New("invalid list filter")
	ErrAssetNotFound             = errors.New("asset not found in registry")
	ErrRepositoryInvariantBroke  = errors.New("repository invariant violated")
)
