package services

import (
	"strings"

	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
)

// Access guard predicates validate caller identity against registry-reported
// ownership and approval state. They are pure: callers load the registry view
// first and pass plain values in.

func IsOwner(owner string, caller string) bool {
	owner = strings.TrimSpace(owner)
	return owner != "" && owner == strings.TrimSpace(caller)
}

// IsApprovedForMarketplace reports whether the per-asset approved operator is
// the marketplace's own account, i.e. the owner has authorized this marketplace
// to move the asset on their behalf.
func IsApprovedForMarketplace(approvedOperator string, marketplaceAccount string) bool {
	operator := strings.TrimSpace(approvedOperator)
	return operator != "" && operator == strings.TrimSpace(marketplaceAccount)
}

// EvaluateListingAuthority gates listItem: the caller must own the asset and
// the marketplace must hold transfer approval before a listing may be created.
func EvaluateListingAuthority(owner, approvedOperator, caller, marketplaceAccount string) error {
	if !IsOwner(owner, caller) {
		return domainerrors.ErrNotOwner
	}
	if !IsApprovedForMarketplace(approvedOperator, marketplaceAccount) {
		return domainerrors.ErrNotApprovedForMarketplace
	}
	return nil
}

// EvaluateSellerAuthority gates cancel/update: ownership only, approval is not
// re-checked for operations that never move the asset.
func EvaluateSellerAuthority(owner string, caller string) error {
	if !IsOwner(owner, caller) {
		return domainerrors.ErrNotOwner
	}
	return nil
}
