package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/application"
	domainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type WithdrawProceedsCommand struct {
	Caller string
}

type WithdrawProceedsResult struct {
	Amount uint64
}

type WithdrawProceedsUseCase struct {
	Proceeds ports.ProceedsLedger
	Bank     ports.Bank
	Logger   *slog.Logger
}

// Execute zeroes the caller's proceeds balance and pays out exactly the prior
// value. The zeroing commits before the payout is observable externally; a
// payout failure restores the balance so funds are never silently lost.
func (u WithdrawProceedsUseCase) Execute(ctx context.Context, cmd WithdrawProceedsCommand) (WithdrawProceedsResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Caller) == "" {
		return WithdrawProceedsResult{}, domainerrors.ErrInvalidListingRequest
	}

	payout := func(ctx context.Context, amount uint64) error {
		if err := u.Bank.Payout(ctx, cmd.Caller, amount); err != nil {
			return fmt.Errorf("%w: payout: %v", domainerrors.ErrTransferFailed, err)
		}
		return nil
	}

	amount, err := u.Proceeds.WithdrawProceeds(ctx, cmd.Caller, payout)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNoProceeds) {
			logger.Warn("withdraw rejected on empty balance",
				"event", "withdraw_no_proceeds",
				"module", "trading/marketplace",
				"layer", "application",
				"account", cmd.Caller,
			)
			return WithdrawProceedsResult{}, err
		}
		logger.Error("withdraw failed",
			"event", "withdraw_failed",
			"module", "trading/marketplace",
			"layer", "application",
			"account", cmd.Caller,
			"error", err.Error(),
		)
		return WithdrawProceedsResult{}, err
	}

	logger.Info("proceeds withdrawn",
		"event", "marketplace_proceeds_withdrawn",
		"module", "trading/marketplace",
		"layer", "application",
		"account", cmd.Caller,
		"amount", amount,
	)

	return WithdrawProceedsResult{Amount: amount}, nil
}
