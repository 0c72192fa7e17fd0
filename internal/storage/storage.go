package storage

import (
	"context"

	"poolScope/internal/model"
)

// Sink receives the pipeline output of each committed block.
type Sink interface {
	PutBlock(ctx context.Context, out model.BlockOutput) error
}

// MultiSink fans a block out to several sinks, stopping at the first error.
type MultiSink []Sink

// PutBlock hands the block to every sink in order, stopping at the first error.
func (m MultiSink) PutBlock(ctx context.Context, out model.BlockOutput) error {
	for _, sink := range m {
		if err := sink.PutBlock(ctx, out); err != nil {
			return err
		}
	}
	return nil
}
