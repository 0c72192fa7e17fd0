package aggregate

import (
	"context"
	"math/big"

	"poolScope/internal/model"
)

// Backend persists the named stores.
type Backend interface {
	// Commit applies one block's deltas and records the block number atomically.
	Commit(ctx context.Context, blockNumber uint64, deltas []model.StoreDelta) error
	// LastBlock returns the last committed block number.
	LastBlock(ctx context.Context) (uint64, bool, error)
}

// Reader reads current store values.
type Reader interface {
	// Counter returns 0 for a key that was never added to.
	Counter(ctx context.Context, store, key string) (*big.Int, error)
	Marker(ctx context.Context, store, key string) (string, bool, error)
}
