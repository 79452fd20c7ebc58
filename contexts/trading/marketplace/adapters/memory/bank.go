package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errInsufficientFunds = errors.New("insufficient funds")

// Bank is an in-memory native value ledger with a dedicated escrow account.
// Collect moves buyer funds into escrow; Payout releases escrow to a
// recipient. The escrow balance therefore always equals the sum of credited,
// not-yet-withdrawn proceeds.
type Bank struct {
	mu       sync.Mutex
	balances map[string]uint64
	escrow   uint64
}

func NewBank() *Bank {
	return &Bank{balances: make(map[string]uint64)}
}

// Deposit seeds an account balance. Test/bootstrap seeding only.
func (b *Bank) Deposit(account string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[strings.TrimSpace(account)] += amount
}

// FundEscrow credits the escrow directly so it covers proceeds balances
// restored from durable storage. Bootstrap reconciliation only.
func (b *Bank) FundEscrow(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.escrow += amount
}

func (b *Bank) Balance(account string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[strings.TrimSpace(account)]
}

// EscrowBalance reports the value held for not-yet-withdrawn proceeds.
func (b *Bank) EscrowBalance() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.escrow
}

func (b *Bank) Collect(_ context.Context, from string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	account := strings.TrimSpace(from)
	if b.balances[account] < amount {
		return errInsufficientFunds
	}
	b.balances[account] -= amount
	b.escrow += amount
	return nil
}

func (b *Bank) Payout(_ context.Context, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.escrow < amount {
		return errInsufficientFunds
	}
	b.escrow -= amount
	b.balances[strings.TrimSpace(to)] += amount
	return nil
}
