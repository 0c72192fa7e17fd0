package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/aggregate"
	"poolScope/internal/dex"
	"poolScope/internal/extract"
	"poolScope/internal/metrics"
	"poolScope/internal/model"
	"poolScope/internal/sink"
	"poolScope/internal/storage"
)

// Pipeline runs one block through extraction, change-record emission, the
// aggregation engine and the output sinks.
type Pipeline struct {
	extractor *extract.Extractor
	emitter   *sink.Emitter
	engine    *aggregate.Engine
	out       storage.Sink
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewPipeline wires the stages. out and m may be nil.
func NewPipeline(extractor *extract.Extractor, emitter *sink.Emitter, engine *aggregate.Engine, out storage.Sink, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = extract.New(nil, nil)
	}
	if emitter == nil {
		emitter = sink.NewEmitter("", logger)
	}
	return &Pipeline{
		extractor: extractor,
		emitter:   emitter,
		engine:    engine,
		out:       out,
		metrics:   m,
		logger:    logger,
	}
}

// Engine returns the aggregation engine.
func (p *Pipeline) Engine() *aggregate.Engine {
	return p.engine
}

// ProcessBlock handles one block. Sinks are written before the store commit,
// so a failed block is retried in full and sinks see it at least once.
func (p *Pipeline) ProcessBlock(ctx context.Context, block model.Block) (model.BlockOutput, error) {
	if p.engine == nil {
		return model.BlockOutput{}, fmt.Errorf("engine is nil")
	}

	res := p.extractor.Extract(block)
	for _, f := range res.Failures {
		p.logger.Debug("decode failure",
			zap.Uint64("block", f.BlockNumber),
			zap.String("tx", f.TxHash),
			zap.Uint64("log_index", f.LogIndex),
			zap.String("event", f.Event),
			zap.String("reason", f.Reason),
		)
	}

	deltas, err := p.engine.Prepare(ctx, block.Number, res.Swaps.Events)
	if err != nil {
		return model.BlockOutput{}, err
	}

	out := model.BlockOutput{
		BlockNumber: res.BlockNumber,
		Timestamp:   res.Timestamp,
		Swaps:       res.Swaps,
		Liquidity:   res.Liquidity,
		Syncs:       res.Syncs,
		Failures:    res.Failures,
		Deltas:      deltas,
		Records:     p.emitter.Emit(res.Swaps.Events),
	}

	if p.out != nil {
		if err := p.out.PutBlock(ctx, out); err != nil {
			return model.BlockOutput{}, fmt.Errorf("sink block %d: %w", block.Number, err)
		}
	}

	start := time.Now()
	if err := p.engine.Commit(ctx, deltas); err != nil {
		return model.BlockOutput{}, err
	}
	p.observe(res, deltas, time.Since(start))
	return out, nil
}

func (p *Pipeline) observe(res extract.Result, deltas model.BlockDeltas, commit time.Duration) {
	if p.metrics == nil {
		return
	}
	m := p.metrics
	m.BlocksProcessed.Inc()
	m.LastBlock.Set(float64(res.BlockNumber))
	m.LogsScanned.Add(float64(res.LogsScanned))
	m.CommitLatency.Observe(commit.Seconds())
	m.EventsDecoded.WithLabelValues(dex.KindSwap.String()).Add(float64(res.Swaps.Count))
	for _, ev := range res.Liquidity.Events {
		kind := dex.KindMint
		if ev.Action == model.ActionBurn {
			kind = dex.KindBurn
		}
		m.EventsDecoded.WithLabelValues(kind.String()).Inc()
	}
	m.EventsDecoded.WithLabelValues(dex.KindSync.String()).Add(float64(res.Syncs.Count))
	for _, f := range res.Failures {
		m.DecodeFailures.WithLabelValues(f.Event, f.Reason).Inc()
	}
	for _, d := range deltas.Deltas {
		m.DeltasCommitted.WithLabelValues(d.Store).Inc()
	}
}
