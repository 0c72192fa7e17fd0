package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

// SnapshotFile stores a MemoryBackend as a local JSON file.
type SnapshotFile struct {
	Path string
}

type snapshotRecord struct {
	LastBlock uint64                       `json:"last_block"`
	HasLast   bool                         `json:"has_last"`
	Counters  map[string]map[string]string `json:"counters"`
	Markers   map[string]map[string]string `json:"markers"`
	UpdatedAt string                       `json:"updated_at"`
}

// Load reads the snapshot; ok is false when the file does not exist.
func (s *SnapshotFile) Load() (snapshotRecord, bool, error) {
	if s == nil || s.Path == "" {
		return snapshotRecord{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshotRecord{}, false, nil
		}
		return snapshotRecord{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return snapshotRecord{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return rec, true, nil
}

// Save atomically replaces the snapshot file.
func (s *SnapshotFile) Save(rec snapshotRecord) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (b *MemoryBackend) snapshotLocked() snapshotRecord {
	rec := snapshotRecord{
		LastBlock: b.last,
		HasLast:   b.hasLast,
		Counters:  make(map[string]map[string]string, len(b.counters)),
		Markers:   make(map[string]map[string]string, len(b.markers)),
	}
	for store, bucket := range b.counters {
		out := make(map[string]string, len(bucket))
		for key, v := range bucket {
			out[key] = v.String()
		}
		rec.Counters[store] = out
	}
	for store, bucket := range b.markers {
		out := make(map[string]string, len(bucket))
		for key, v := range bucket {
			out[key] = v
		}
		rec.Markers[store] = out
	}
	return rec
}

func (b *MemoryBackend) restore(rec snapshotRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for store, bucket := range rec.Counters {
		for key, text := range bucket {
			v, ok := new(big.Int).SetString(text, 10)
			if !ok {
				return fmt.Errorf("snapshot %s/%s: invalid int %q", store, key, text)
			}
			b.counterLocked(store, key).Set(v)
		}
	}
	for store, bucket := range rec.Markers {
		dst := make(map[string]string, len(bucket))
		for key, v := range bucket {
			dst[key] = v
		}
		b.markers[store] = dst
	}
	b.last = rec.LastBlock
	b.hasLast = rec.HasLast
	return nil
}
