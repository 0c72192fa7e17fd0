// Package sink maps decoded swaps into flat change records for downstream writers.
package sink

import (
	"fmt"
	"math"
	"math/big"

	"go.uber.org/zap"

	"poolScope/internal/model"
)

// SwapsTable is the table name carried on swap change records.
const SwapsTable = "swaps"

// PriceScale is the fixed-point scale of price_ratio.
const PriceScale = 1_000_000

// Emitter builds change records from swaps.
type Emitter struct {
	table  string
	logger *zap.Logger
}

// NewEmitter creates an Emitter for the given table, SwapsTable when empty.
func NewEmitter(table string, logger *zap.Logger) *Emitter {
	if table == "" {
		table = SwapsTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{table: table, logger: logger}
}

// Emit returns one record per swap, in input order.
func (e *Emitter) Emit(swaps []model.SwapEvent) []model.ChangeRecord {
	records := make([]model.ChangeRecord, 0, len(swaps))
	for _, swap := range swaps {
		records = append(records, e.record(swap))
	}
	return records
}

func (e *Emitter) record(swap model.SwapEvent) model.ChangeRecord {
	amountIn, okIn := swap.AmountInU64()
	amountOut, okOut := swap.AmountOutU64()
	if !okIn || !okOut {
		e.logger.Debug("amount parse fallback",
			zap.String("tx", swap.TxHash),
			zap.Uint64("log_index", swap.LogIndex),
		)
	}

	return model.ChangeRecord{
		Table: e.table,
		ID:    SwapID(swap),
		Fields: []model.Field{
			{Name: "tx_hash", Value: swap.TxHash},
			{Name: "log_index", Value: swap.LogIndex},
			{Name: "block_number", Value: swap.BlockNumber},
			{Name: "timestamp", Value: clampInt64(swap.Timestamp)},
			{Name: "pool_address", Value: swap.PoolAddress},
			{Name: "sender", Value: swap.Sender},
			{Name: "recipient", Value: swap.Recipient},
			{Name: "amount0_in", Value: swap.Amount0In},
			{Name: "amount1_in", Value: swap.Amount1In},
			{Name: "amount0_out", Value: swap.Amount0Out},
			{Name: "amount1_out", Value: swap.Amount1Out},
			{Name: "amount_in_total", Value: amountIn},
			{Name: "amount_out_total", Value: amountOut},
			{Name: "price_ratio", Value: PriceRatio(amountIn, amountOut)},
		},
	}
}

// SwapID is "{tx_hash}:{log_index}".
func SwapID(swap model.SwapEvent) string {
	return fmt.Sprintf("%s:%d", swap.TxHash, swap.LogIndex)
}

// PriceRatio is out/in scaled by PriceScale, rounded half up. It is 0 when
// in is 0 and saturates at MaxInt64.
func PriceRatio(amountIn, amountOut uint64) int64 {
	if amountIn == 0 {
		return 0
	}
	num := new(big.Int).SetUint64(amountOut)
	num.Mul(num, big.NewInt(PriceScale))
	den := new(big.Int).SetUint64(amountIn)

	// floor((2*num + den) / (2*den))
	num.Lsh(num, 1).Add(num, den)
	den.Lsh(den, 1)
	q := num.Quo(num, den)
	if !q.IsInt64() {
		return math.MaxInt64
	}
	return q.Int64()
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
