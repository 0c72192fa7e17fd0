package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ChainReader is the RPC surface the runner needs.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner pulls pool logs for a block range and feeds each block to the pipeline.
type Runner struct {
	cfg        RunConfig
	chain      ChainReader
	pipeline   *Pipeline
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainClient ChainReader, pipeline *Pipeline, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		pipeline:   pipeline,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run processes blocks from the configured start, or from just past the last
// committed block, up to the configured end or the chain head.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.pipeline == nil || r.pipeline.Engine() == nil {
		return fmt.Errorf("pipeline is not configured")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	from, err := r.startBlock(ctx)
	if err != nil {
		return err
	}
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.latestWithRetry(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.runBatch(ctx, blockRange); err != nil {
			return err
		}
		if err := r.checkpoint.Save(blockRange.To); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) startBlock(ctx context.Context) (uint64, error) {
	from := r.cfg.FromBlock

	last, ok, err := r.pipeline.Engine().LastBlock(ctx)
	if err != nil {
		return 0, err
	}
	if ok && last >= from {
		from = last + 1
		r.logger.Info("resume from backend", zap.Uint64("last_committed", last), zap.Uint64("from", from))
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return 0, err
	}
	if ok && cp.LastProcessedBlock >= from {
		from = cp.LastProcessedBlock + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
	}
	return from, nil
}

func (r *Runner) runBatch(ctx context.Context, blockRange BlockRange) error {
	r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
	if err != nil {
		return fmt.Errorf("filter logs: %w", err)
	}

	timestamps := make(map[uint64]uint64)
	for _, log := range logs {
		if _, ok := timestamps[log.BlockNumber]; ok || log.Removed {
			continue
		}
		ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
		if err != nil {
			return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		timestamps[log.BlockNumber] = ts
	}

	var swaps, failures int
	for _, block := range BuildBlocks(blockRange, logs, timestamps) {
		out, err := r.pipeline.ProcessBlock(ctx, block)
		if err != nil {
			return fmt.Errorf("process block %d: %w", block.Number, err)
		}
		swaps += len(out.Swaps.Events)
		failures += len(out.Failures)
	}

	if f, ok := r.chain.(interface{ ForgetBefore(uint64) }); ok {
		f.ForgetBefore(blockRange.To + 1)
	}

	r.logger.Info("batch complete",
		zap.Int("logs", len(logs)),
		zap.Int("swaps", swaps),
		zap.Int("decode_failures", failures),
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
	)
	return nil
}

func (r *Runner) latestWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = r.chain.LatestBlockNumber(ctx)
		if err != nil {
			r.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	return latest, err
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Addresses, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}
