package postgres

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgx/v5"

	"poolScope/internal/model"
)

var swapColumns = []string{
	"tx_hash", "log_index", "block_number", "timestamp", "pool_address", "sender", "recipient",
	"amount0_in", "amount1_in", "amount0_out", "amount1_out",
	"amount_in_total", "amount_out_total", "price_ratio",
}

// uint64 totals can exceed BIGINT.
var numericColumns = map[string]bool{
	"amount_in_total":  true,
	"amount_out_total": true,
}

const upsertSwapSQL = `
	INSERT INTO swaps (
		id, tx_hash, log_index, block_number, timestamp, pool_address, sender, recipient,
		amount0_in, amount1_in, amount0_out, amount1_out,
		amount_in_total, amount_out_total, price_ratio
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10::numeric,$11::numeric,$12::numeric,$13::numeric,$14::numeric,$15)
	ON CONFLICT (id) DO NOTHING
`

// SwapSink writes swap change records into the swaps table. Replayed records
// keep the first row.
type SwapSink struct {
	store *Store
}

// NewSwapSink writes through the store's connection pool.
func NewSwapSink(store *Store) *SwapSink {
	return &SwapSink{store: store}
}

func (s *SwapSink) PutBlock(ctx context.Context, out model.BlockOutput) error {
	return s.UpsertSwaps(ctx, out.Records)
}

// UpsertSwaps inserts swap change records in one batch.
func (s *SwapSink) UpsertSwaps(ctx context.Context, records []model.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := swapArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(upsertSwapSQL, args...)
	}

	br := s.store.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func swapArgs(rec model.ChangeRecord) ([]interface{}, error) {
	args := make([]interface{}, 0, len(swapColumns)+1)
	args = append(args, rec.ID)
	for _, col := range swapColumns {
		v, ok := rec.Get(col)
		if !ok {
			return nil, fmt.Errorf("record %s: missing field %s", rec.ID, col)
		}
		n, isU64 := v.(uint64)
		switch {
		case isU64 && numericColumns[col]:
			args = append(args, strconv.FormatUint(n, 10))
		case isU64:
			if n > math.MaxInt64 {
				return nil, fmt.Errorf("record %s: %s out of range", rec.ID, col)
			}
			args = append(args, int64(n))
		default:
			args = append(args, v)
		}
	}
	return args, nil
}
