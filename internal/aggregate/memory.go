package aggregate

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"poolScope/internal/model"
)

// MemoryBackend keeps the stores in process memory, optionally snapshotting
// them to a JSON file. Blocks without deltas only advance the last block in
// memory; Flush persists it.
type MemoryBackend struct {
	mu       sync.RWMutex
	stores   map[string]MergeRule
	counters map[string]map[string]*big.Int
	markers  map[string]map[string]string
	last     uint64
	hasLast  bool
	snapshot *SnapshotFile
	dirty    bool
}

// NewMemoryBackend returns an empty backend over the default stores.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		stores:   DefaultStores(),
		counters: make(map[string]map[string]*big.Int),
		markers:  make(map[string]map[string]string),
	}
}

// OpenMemoryBackend restores a backend from a snapshot file and keeps writing to it.
// A missing file yields an empty backend.
func OpenMemoryBackend(path string) (*MemoryBackend, error) {
	b := NewMemoryBackend()
	b.snapshot = &SnapshotFile{Path: path}
	snap, ok, err := b.snapshot.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		if err := b.restore(snap); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Commit validates every delta and stages the block. Live state changes only
// after the snapshot, when there is one, has been written.
func (b *MemoryBackend) Commit(_ context.Context, blockNumber uint64, deltas []model.StoreDelta) error {
	if err := ValidateDeltas(b.stores, deltas); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	staged := b.stageLocked(deltas)
	persisted := false
	if b.snapshot != nil && len(deltas) > 0 {
		rec := b.snapshotLocked()
		staged.overlay(&rec, blockNumber)
		if err := b.snapshot.Save(rec); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		persisted = true
	}

	staged.apply(b)
	b.last = blockNumber
	b.hasLast = true
	b.dirty = b.snapshot != nil && !persisted
	return nil
}

// Flush writes the snapshot if the last block moved since the previous save.
func (b *MemoryBackend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}
	if err := b.snapshot.Save(b.snapshotLocked()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	b.dirty = false
	return nil
}

// LastBlock returns the last committed block.
func (b *MemoryBackend) LastBlock(_ context.Context) (uint64, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast, nil
}

// Counter returns a copy of a counter value, zero when unset.
func (b *MemoryBackend) Counter(_ context.Context, store, key string) (*big.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.counters[store][key]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

// Marker returns the first value written for a key.
func (b *MemoryBackend) Marker(_ context.Context, store, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.markers[store][key]
	return v, ok, nil
}

// Len returns the number of keys held by a store.
func (b *MemoryBackend) Len(store string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.counters[store]) + len(b.markers[store])
}

func (b *MemoryBackend) counterLocked(store, key string) *big.Int {
	bucket := b.counters[store]
	if bucket == nil {
		bucket = make(map[string]*big.Int)
		b.counters[store] = bucket
	}
	v := bucket[key]
	if v == nil {
		v = new(big.Int)
		bucket[key] = v
	}
	return v
}

// stagedBlock holds the resulting counter values and the new markers of one
// block, keyed by store then key.
type stagedBlock struct {
	counters map[string]map[string]*big.Int
	markers  map[string]map[string]string
}

func (b *MemoryBackend) stageLocked(deltas []model.StoreDelta) stagedBlock {
	staged := stagedBlock{
		counters: make(map[string]map[string]*big.Int),
		markers:  make(map[string]map[string]string),
	}
	for _, delta := range deltas {
		switch delta.Op {
		case model.OpAdd:
			amount, _ := ParseDelta(delta)
			bucket := staged.counters[delta.Store]
			if bucket == nil {
				bucket = make(map[string]*big.Int)
				staged.counters[delta.Store] = bucket
			}
			current, ok := bucket[delta.Key]
			if !ok {
				current = new(big.Int)
				if live, ok := b.counters[delta.Store][delta.Key]; ok {
					current.Set(live)
				}
				bucket[delta.Key] = current
			}
			current.Add(current, amount)
		case model.OpSetIfAbsent:
			if _, exists := b.markers[delta.Store][delta.Key]; exists {
				continue
			}
			bucket := staged.markers[delta.Store]
			if bucket == nil {
				bucket = make(map[string]string)
				staged.markers[delta.Store] = bucket
			}
			if _, exists := bucket[delta.Key]; !exists {
				bucket[delta.Key] = delta.Value
			}
		}
	}
	return staged
}

func (s stagedBlock) overlay(rec *snapshotRecord, blockNumber uint64) {
	for store, bucket := range s.counters {
		out := rec.Counters[store]
		if out == nil {
			out = make(map[string]string, len(bucket))
			rec.Counters[store] = out
		}
		for key, v := range bucket {
			out[key] = v.String()
		}
	}
	for store, bucket := range s.markers {
		out := rec.Markers[store]
		if out == nil {
			out = make(map[string]string, len(bucket))
			rec.Markers[store] = out
		}
		for key, v := range bucket {
			out[key] = v
		}
	}
	rec.LastBlock = blockNumber
	rec.HasLast = true
}

func (s stagedBlock) apply(b *MemoryBackend) {
	for store, bucket := range s.counters {
		for key, v := range bucket {
			b.counterLocked(store, key).Set(v)
		}
	}
	for store, bucket := range s.markers {
		dst := b.markers[store]
		if dst == nil {
			dst = make(map[string]string, len(bucket))
			b.markers[store] = dst
		}
		for key, v := range bucket {
			dst[key] = v
		}
	}
}
