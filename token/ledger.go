// Package token holds balances for principals and moves funds between them.
// The in-memory ledger backs MemoryStore; the Postgres store keeps its account
// rows in the same transaction as the bounty rows instead.
package token

import (
	"sync"

	"agentbounty-backend/core/bounty"
)

// ErrInsufficientFunds is returned when a transfer or burn exceeds the
// source account balance.
const ErrInsufficientFunds = bounty.Err("insufficient funds")

// Ledger is the funds primitive used by escrow custody.
type Ledger interface {
	Balance(account bounty.Principal) uint64
	Transfer(from, to bounty.Principal, amount uint64) error
	Mint(to bounty.Principal, amount uint64)
}

// MemoryLedger is a Ledger backed by a map. Safe for concurrent use.
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[bounty.Principal]uint64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[bounty.Principal]uint64)}
}

func (l *MemoryLedger) Balance(account bounty.Principal) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account]
}

// Transfer moves amount from one account to another. The debit and credit
// happen under one lock, so no partial transfer is ever observable.
func (l *MemoryLedger) Transfer(from, to bounty.Principal, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return ErrInsufficientFunds
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Mint credits an account out of thin air. Used by the dev faucet and tests.
func (l *MemoryLedger) Mint(to bounty.Principal, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] += amount
}
