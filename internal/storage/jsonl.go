package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"poolScope/internal/model"
)

// JSONL file names written under the output directory.
const (
	SwapsFile     = "swaps.jsonl"
	LiquidityFile = "liquidity.jsonl"
	SyncsFile     = "syncs.jsonl"
	FailuresFile  = "decode_failures.jsonl"
	DeltasFile    = "deltas.jsonl"
	ChangesFile   = "changes.jsonl"
)

// JSONLFile appends JSON lines to one file.
type JSONLFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONLFile returns a writer appending to path.
func NewJSONLFile(path string) *JSONLFile {
	return &JSONLFile{path: path}
}

func (f *JSONLFile) Path() string { return f.path }

// Append writes each record as one JSON line.
func (f *JSONLFile) Append(records []interface{}) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// JSONLSink writes each output collection to its own file in a directory.
type JSONLSink struct {
	swaps     *JSONLFile
	liquidity *JSONLFile
	syncs     *JSONLFile
	failures  *JSONLFile
	deltas    *JSONLFile
	changes   *JSONLFile
}

// NewJSONLSink writes each collection to its own file under dir.
func NewJSONLSink(dir string) *JSONLSink {
	return &JSONLSink{
		swaps:     NewJSONLFile(filepath.Join(dir, SwapsFile)),
		liquidity: NewJSONLFile(filepath.Join(dir, LiquidityFile)),
		syncs:     NewJSONLFile(filepath.Join(dir, SyncsFile)),
		failures:  NewJSONLFile(filepath.Join(dir, FailuresFile)),
		deltas:    NewJSONLFile(filepath.Join(dir, DeltasFile)),
		changes:   NewJSONLFile(filepath.Join(dir, ChangesFile)),
	}
}

// PutBlock appends the block's non-empty collections.
func (s *JSONLSink) PutBlock(_ context.Context, out model.BlockOutput) error {
	writes := []struct {
		file    *JSONLFile
		records []interface{}
	}{
		{s.swaps, toRecords(out.Swaps.Events)},
		{s.liquidity, toRecords(out.Liquidity.Events)},
		{s.syncs, toRecords(out.Syncs.Events)},
		{s.failures, toRecords(out.Failures)},
		{s.changes, toRecords(out.Records)},
	}
	if len(out.Deltas.Deltas) > 0 {
		writes = append(writes, struct {
			file    *JSONLFile
			records []interface{}
		}{s.deltas, []interface{}{out.Deltas}})
	}

	for _, w := range writes {
		if err := w.file.Append(w.records); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(w.file.Path()), err)
		}
	}
	return nil
}

func toRecords[T any](items []T) []interface{} {
	out := make([]interface{}, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}
