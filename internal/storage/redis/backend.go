// Package redis stores aggregation state in Redis hashes.
//
// Layout, for a key prefix P:
//   - P:counters:{store}  hash of key -> base-10 integer
//   - P:markers:{store}   hash of key -> first value written
//   - P:last_block        last committed block number
package redis

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"poolScope/internal/aggregate"
	"poolScope/internal/model"
)

const (
	DefaultPrefix = "poolscope"
	commitRetries = 5
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Backend implements aggregate.Backend on Redis. Each commit runs as one
// WATCH/MULTI transaction so a block is applied completely or not at all.
type Backend struct {
	client *redis.Client
	prefix string
	stores map[string]aggregate.MergeRule
	logger *zap.Logger
}

var (
	_ aggregate.Backend = (*Backend)(nil)
	_ aggregate.Reader  = (*Backend)(nil)
)

// Connect dials Redis and checks the connection.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", opts.Addr, err)
	}

	b := New(client, opts.Prefix, logger)
	b.logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB), zap.String("prefix", b.prefix))
	return b, nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, logger *zap.Logger) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		client: client,
		prefix: prefix,
		stores: aggregate.DefaultStores(),
		logger: logger,
	}
}

// Close closes the Redis client.
func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) counterHash(store string) string { return b.prefix + ":counters:" + store }
func (b *Backend) markerHash(store string) string  { return b.prefix + ":markers:" + store }
func (b *Backend) lastBlockKey() string            { return b.prefix + ":last_block" }

// Commit applies a block's deltas and the last block in one MULTI/EXEC,
// retrying when a concurrent writer touches the watched keys.
func (b *Backend) Commit(ctx context.Context, blockNumber uint64, deltas []model.StoreDelta) error {
	if err := aggregate.ValidateDeltas(b.stores, deltas); err != nil {
		return err
	}

	// sum adds per key before touching redis
	sums := make(map[string]map[string]*big.Int)
	var watched []string
	for _, delta := range deltas {
		if delta.Op != model.OpAdd {
			continue
		}
		amount, _ := aggregate.ParseDelta(delta)
		bucket := sums[delta.Store]
		if bucket == nil {
			bucket = make(map[string]*big.Int)
			sums[delta.Store] = bucket
			watched = append(watched, b.counterHash(delta.Store))
		}
		if current, ok := bucket[delta.Key]; ok {
			current.Add(current, amount)
		} else {
			bucket[delta.Key] = amount
		}
	}
	watched = append(watched, b.lastBlockKey())

	txn := func(tx *redis.Tx) error {
		updated := make(map[string]map[string]string, len(sums))
		for store, bucket := range sums {
			fields := make([]string, 0, len(bucket))
			for key := range bucket {
				fields = append(fields, key)
			}
			values, err := tx.HMGet(ctx, b.counterHash(store), fields...).Result()
			if err != nil {
				return fmt.Errorf("read %s counters: %w", store, err)
			}
			out := make(map[string]string, len(fields))
			for i, key := range fields {
				total := new(big.Int).Set(bucket[key])
				if raw, ok := values[i].(string); ok {
					current, ok := new(big.Int).SetString(raw, 10)
					if !ok {
						return fmt.Errorf("%s/%s: invalid stored int %q", store, key, raw)
					}
					total.Add(total, current)
				}
				out[key] = total.String()
			}
			updated[store] = out
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for store, values := range updated {
				for key, value := range values {
					pipe.HSet(ctx, b.counterHash(store), key, value)
				}
			}
			for _, delta := range deltas {
				if delta.Op == model.OpSetIfAbsent {
					pipe.HSetNX(ctx, b.markerHash(delta.Store), delta.Key, delta.Value)
				}
			}
			pipe.Set(ctx, b.lastBlockKey(), strconv.FormatUint(blockNumber, 10), 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= commitRetries; attempt++ {
		err := b.client.Watch(ctx, txn, watched...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("commit block %d: %w", blockNumber, err)
		}
		b.logger.Warn("redis commit conflict, retrying", zap.Uint64("block", blockNumber), zap.Int("attempt", attempt))
	}
	return fmt.Errorf("commit block %d: %w", blockNumber, redis.TxFailedErr)
}

// LastBlock returns the last committed block.
func (b *Backend) LastBlock(ctx context.Context) (uint64, bool, error) {
	raw, err := b.client.Get(ctx, b.lastBlockKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse last block %q: %w", raw, err)
	}
	return n, true, nil
}

func (b *Backend) Counter(ctx context.Context, store, key string) (*big.Int, error) {
	raw, err := b.client.HGet(ctx, b.counterHash(store), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%s/%s: invalid stored int %q", store, key, raw)
	}
	return v, nil
}

func (b *Backend) Marker(ctx context.Context, store, key string) (string, bool, error) {
	raw, err := b.client.HGet(ctx, b.markerHash(store), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return raw, true, nil
}
