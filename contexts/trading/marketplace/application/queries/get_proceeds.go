package queries

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type GetProceedsQuery struct {
	Account string
}

type GetProceedsResult struct {
	Account string
	Balance uint64
}

type GetProceedsUseCase struct {
	Proceeds ports.ProceedsLedger
	Logger   *slog.Logger
}

// Execute reports the withdrawable balance. An account that never sold
// anything reads as zero, not as an error.
func (u GetProceedsUseCase) Execute(ctx context.Context, query GetProceedsQuery) (GetProceedsResult, error) {
	account := strings.TrimSpace(query.Account)
	if account == "" {
		return GetProceedsResult{}, domainerrors.ErrInvalidListingRequest
	}
	balance, err := u.Proceeds.GetProceeds(ctx, account)
	if err != nil {
		return GetProceedsResult{}, err
	}
	return GetProceedsResult{Account: account, Balance: balance}, nil
}
