// Package dbtest provides an in-memory stand-in for db.TxManager so
// services can be tested with fake repositories and still roll back.
package dbtest

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores. Snapshot captures the
// current state and returns a function that restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

type txKey struct{}

// TxManager serializes transactions and restores every registered store
// when fn fails. Nested calls join the outer transaction.
type TxManager struct {
	mu     sync.Mutex
	stores []Snapshotter

	Commits   int
	Rollbacks int
}

func NewTxManager(stores ...Snapshotter) *TxManager {
	return &TxManager{stores: stores}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// InTx reports whether ctx was handed out by WithinTx.
func InTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}
