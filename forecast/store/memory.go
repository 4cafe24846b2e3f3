// Package store provides TransactionStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/cashflow-engine/forecast"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	byUser map[string][]forecast.Transaction
}

func NewMemory() *Memory {
	return &Memory{byUser: make(map[string][]forecast.Transaction)}
}

var _ forecast.TransactionStore = (*Memory)(nil)

// Put stores a transaction, keeping per-user insertion order.
func (m *Memory) Put(t forecast.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[t.UserID] = append(m.byUser[t.UserID], t)
}

// Remove deletes a transaction by id. No-op when absent.
func (m *Memory) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for user, txs := range m.byUser {
		for i, t := range txs {
			if t.ID == id {
				m.byUser[user] = append(txs[:i:i], txs[i+1:]...)
				return
			}
		}
	}
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]forecast.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]forecast.Transaction, len(m.byUser[userID]))
	copy(result, m.byUser[userID])
	return result, nil
}
