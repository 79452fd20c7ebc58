package memory

import (
	"context"
	"strings"
	"sync"

	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
)

type assetKey struct {
	contract string
	id       uint64
}

// AssetRegistry is an in-memory asset ownership registry implementing the
// external registry port for local runtime and tests. Approval is per asset
// and cleared on transfer, matching common registry behavior.
type AssetRegistry struct {
	mu       sync.RWMutex
	owners   map[assetKey]string
	approved map[assetKey]string
}

func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		owners:   make(map[assetKey]string),
		approved: make(map[assetKey]string),
	}
}

// Mint assigns a fresh asset to an owner. Test/bootstrap seeding only.
func (r *AssetRegistry) Mint(assetContract string, assetID uint64, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[assetKey{contract: assetContract, id: assetID}] = strings.TrimSpace(owner)
}

// Approve records the single operator allowed to transfer the asset on the
// owner's behalf. An empty operator clears approval.
func (r *AssetRegistry) Approve(assetContract string, assetID uint64, operator string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := assetKey{contract: assetContract, id: assetID}
	operator = strings.TrimSpace(operator)
	if operator == "" {
		delete(r.approved, key)
		return
	}
	r.approved[key] = operator
}

func (r *AssetRegistry) OwnerOf(_ context.Context, assetContract string, assetID uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[assetKey{contract: assetContract, id: assetID}]
	if !ok {
		return "", domainerrors.ErrAssetNotFound
	}
	return owner, nil
}

func (r *AssetRegistry) ApprovedOperator(_ context.Context, assetContract string, assetID uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.owners[assetKey{contract: assetContract, id: assetID}]; !ok {
		return "", domainerrors.ErrAssetNotFound
	}
	return r.approved[assetKey{contract: assetContract, id: assetID}], nil
}

// Transfer moves the asset and clears any standing approval. It fails when
// `from` is not the current owner, which is what makes a stale listing
// unsellable after an off-marketplace transfer.
func (r *AssetRegistry) Transfer(_ context.Context, assetContract string, assetID uint64, from string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := assetKey{contract: assetContract, id: assetID}
	owner, ok := r.owners[key]
	if !ok {
		return domainerrors.ErrAssetNotFound
	}
	if owner != strings.TrimSpace(from) {
		return domainerrors.ErrNotOwner
	}
	if strings.TrimSpace(to) == "" {
		return domainerrors.ErrInvalidListingRequest
	}

	r.owners[key] = strings.TrimSpace(to)
	delete(r.approved, key)
	return nil
}
