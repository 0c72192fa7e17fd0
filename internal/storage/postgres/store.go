package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolScope/internal/aggregate"
	"poolScope/internal/model"
)

// DefaultStateName names the indexer_state row holding the last committed block.
const DefaultStateName = "aggregate"

// Store provides Postgres persistence for the aggregation stores.
type Store struct {
	pool      *pgxpool.Pool
	stateName string
	stores    map[string]aggregate.MergeRule
}

var (
	_ aggregate.Backend = (*Store)(nil)
	_ aggregate.Reader  = (*Store)(nil)
)

// NewStore connects to Postgres. The schema is not applied here.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:      pool,
		stateName: DefaultStateName,
		stores:    aggregate.DefaultStores(),
	}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Commit applies a block's deltas and the block number in one transaction.
func (s *Store) Commit(ctx context.Context, blockNumber uint64, deltas []model.StoreDelta) error {
	if err := aggregate.ValidateDeltas(s.stores, deltas); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, delta := range deltas {
		switch delta.Op {
		case model.OpAdd:
			batch.Queue(`
				INSERT INTO store_counters (store, key, value, updated_block)
				VALUES ($1, $2, $3::numeric, $4)
				ON CONFLICT (store, key)
				DO UPDATE SET
					value = store_counters.value + EXCLUDED.value,
					updated_block = EXCLUDED.updated_block
			`, delta.Store, delta.Key, delta.Value, int64(blockNumber))
		case model.OpSetIfAbsent:
			batch.Queue(`
				INSERT INTO store_markers (store, key, value, first_block)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (store, key) DO NOTHING
			`, delta.Store, delta.Key, delta.Value, int64(blockNumber))
		}
	}
	batch.Queue(`
		INSERT INTO indexer_state (name, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_block = EXCLUDED.last_block, updated_at = now()
	`, s.stateName, int64(blockNumber))

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("commit block %d: %w", blockNumber, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return tx.Commit(ctx)
}

// LastBlock returns the last committed block.
func (s *Store) LastBlock(ctx context.Context) (uint64, bool, error) {
	var last int64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM indexer_state WHERE name=$1`, s.stateName)
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(last), true, nil
}

func (s *Store) Counter(ctx context.Context, store, key string) (*big.Int, error) {
	var text string
	row := s.pool.QueryRow(ctx, `SELECT value::text FROM store_counters WHERE store=$1 AND key=$2`, store, key)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("%s/%s: invalid stored int %q", store, key, text)
	}
	return v, nil
}

func (s *Store) Marker(ctx context.Context, store, key string) (string, bool, error) {
	var value string
	row := s.pool.QueryRow(ctx, `SELECT value FROM store_markers WHERE store=$1 AND key=$2`, store, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}
