package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"poolScope/internal/calendar"
	"poolScope/internal/model"
)

// ErrBlockOutOfOrder is returned when a block does not advance past the last committed one.
var ErrBlockOutOfOrder = errors.New("block out of order")

// Engine folds swap events into the named stores one block at a time.
type Engine struct {
	backend Backend
	logger  *zap.Logger

	loaded  bool
	last    uint64
	hasLast bool
}

// NewEngine creates an Engine committing through backend.
func NewEngine(backend Backend, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{backend: backend, logger: logger}
}

// Plan builds the deltas for a block's swaps without touching the backend.
func (e *Engine) Plan(swaps []model.SwapEvent) []model.StoreDelta {
	deltas := make([]model.StoreDelta, 0, len(swaps)*12)
	for _, swap := range swaps {
		deltas = append(deltas, e.planSwap(swap)...)
	}
	return deltas
}

func (e *Engine) planSwap(swap model.SwapEvent) []model.StoreDelta {
	date := calendar.CivilDate(swap.Timestamp)
	hour := calendar.CivilHour(swap.Timestamp)

	var out []model.StoreDelta
	amountIn, ok := swap.AmountInU64()
	if !ok {
		e.logger.Debug("amount parse fallback",
			zap.Uint64("block", swap.BlockNumber),
			zap.String("tx", swap.TxHash),
			zap.Uint64("log_index", swap.LogIndex),
			zap.String("amount0_in", swap.Amount0In),
			zap.String("amount1_in", swap.Amount1In),
		)
	}

	if amountIn > 0 {
		volume := strconv.FormatUint(amountIn, 10)
		out = append(out,
			add(StoreSwapVolumes, PoolVolumeKey(swap.PoolAddress), volume),
			add(StoreSwapVolumes, PoolCountKey(swap.PoolAddress), "1"),
			add(StoreSwapVolumes, TotalVolumeKey, volume),
			add(StoreSwapVolumes, TotalSwapsKey, "1"),
			add(StoreSwapVolumes, DailyVolumeKey(date), volume),
			add(StoreSwapVolumes, DailyCountKey(date), "1"),
			add(StoreSwapVolumes, HourlyVolumeKey(hour), volume),
			add(StoreSwapVolumes, HourlyCountKey(hour), "1"),
			add(StorePoolStats, PoolTradeCountKey(swap.PoolAddress), "1"),
		)
	}

	if swap.Sender != "" {
		block := strconv.FormatUint(swap.BlockNumber, 10)
		out = append(out,
			setIfAbsent(StoreUniqueTraders, TraderKey(swap.Sender), fmt.Sprintf("%d:%d", swap.BlockNumber, swap.Timestamp)),
			setIfAbsent(StoreUniqueTraders, DailyTraderKey(date, swap.Sender), block),
			setIfAbsent(StoreUniqueTraders, PoolTraderKey(swap.PoolAddress, swap.Sender), block),
		)
	}
	return out
}

// ApplyBlock plans and commits one block. Blocks must arrive in increasing
// order; a block without swaps still commits so the last block advances.
func (e *Engine) ApplyBlock(ctx context.Context, blockNumber uint64, swaps []model.SwapEvent) (model.BlockDeltas, error) {
	out, err := e.Prepare(ctx, blockNumber, swaps)
	if err != nil {
		return model.BlockDeltas{}, err
	}
	if err := e.Commit(ctx, out); err != nil {
		return model.BlockDeltas{}, err
	}
	return out, nil
}

// Prepare checks block order and plans the deltas without committing them.
func (e *Engine) Prepare(ctx context.Context, blockNumber uint64, swaps []model.SwapEvent) (model.BlockDeltas, error) {
	if err := e.checkOrder(ctx, blockNumber, true); err != nil {
		return model.BlockDeltas{}, err
	}
	return model.BlockDeltas{BlockNumber: blockNumber, Deltas: e.Plan(swaps)}, nil
}

// Commit writes prepared deltas through the backend.
func (e *Engine) Commit(ctx context.Context, out model.BlockDeltas) error {
	if err := e.checkOrder(ctx, out.BlockNumber, false); err != nil {
		return err
	}
	if err := e.backend.Commit(ctx, out.BlockNumber, out.Deltas); err != nil {
		return fmt.Errorf("commit block %d: %w", out.BlockNumber, err)
	}
	e.last = out.BlockNumber
	e.hasLast = true
	return nil
}

func (e *Engine) checkOrder(ctx context.Context, blockNumber uint64, warnGap bool) error {
	if err := e.load(ctx); err != nil {
		return err
	}
	if !e.hasLast {
		return nil
	}
	if blockNumber <= e.last {
		return fmt.Errorf("%w: block %d, last committed %d", ErrBlockOutOfOrder, blockNumber, e.last)
	}
	if warnGap && blockNumber > e.last+1 {
		e.logger.Warn("block gap",
			zap.Uint64("last", e.last),
			zap.Uint64("block", blockNumber),
			zap.Uint64("missing", blockNumber-e.last-1),
		)
	}
	return nil
}

// LastBlock reports the last block committed through the backend.
func (e *Engine) LastBlock(ctx context.Context) (uint64, bool, error) {
	if err := e.load(ctx); err != nil {
		return 0, false, err
	}
	return e.last, e.hasLast, nil
}

func (e *Engine) load(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	if e.backend == nil {
		return fmt.Errorf("backend is nil")
	}
	last, ok, err := e.backend.LastBlock(ctx)
	if err != nil {
		return fmt.Errorf("load last block: %w", err)
	}
	e.last, e.hasLast, e.loaded = last, ok, true
	return nil
}

func add(store, key, value string) model.StoreDelta {
	return model.StoreDelta{Store: store, Key: key, Op: model.OpAdd, Value: value}
}

func setIfAbsent(store, key, value string) model.StoreDelta {
	return model.StoreDelta{Store: store, Key: key, Op: model.OpSetIfAbsent, Value: value}
}
