package indexer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"poolScope/internal/model"
)

const maxBlockLine = 64 * 1024 * 1024

// ReadBlocks streams model.Block values from a JSONL file, one per line.
func ReadBlocks(ctx context.Context, path string, fn func(model.Block) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open blocks file: %w", err)
	}
	defer file.Close()
	return DecodeBlocks(ctx, file, fn)
}

// DecodeBlocks reads JSONL blocks from r. Blank lines are skipped.
func DecodeBlocks(ctx context.Context, r io.Reader, fn func(model.Block) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxBlockLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var block model.Block
		if err := json.Unmarshal(raw, &block); err != nil {
			return fmt.Errorf("line %d: parse block: %w", line, err)
		}
		if err := fn(block); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read blocks: %w", err)
	}
	return nil
}
