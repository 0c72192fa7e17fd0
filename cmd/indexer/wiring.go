package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolScope/internal/aggregate"
	"poolScope/internal/config"
	"poolScope/internal/dex"
	"poolScope/internal/extract"
	"poolScope/internal/indexer"
	"poolScope/internal/metrics"
	"poolScope/internal/sink"
	"poolScope/internal/storage"
	"poolScope/internal/storage/postgres"
	"poolScope/internal/storage/redis"
)

// backendHandle is an opened store backend plus whatever must be closed after use.
type backendHandle struct {
	backend aggregate.Backend
	reader  aggregate.Reader
	pg      *postgres.Store
	closers []func()
}

func (h *backendHandle) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.BackendConfig, logger *zap.Logger) (*backendHandle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case config.BackendRedis:
		b, err := redis.Connect(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &backendHandle{backend: b, reader: b, closers: []func(){func() { _ = b.Close() }}}, nil
	case config.BackendPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &backendHandle{backend: store, reader: store, pg: store, closers: []func(){store.Close}}, nil
	default:
		if cfg.Snapshot != "" {
			b, err := aggregate.OpenMemoryBackend(cfg.Snapshot)
			if err != nil {
				return nil, err
			}
			flush := func() {
				if err := b.Flush(); err != nil {
					logger.Error("flush snapshot", zap.Error(err))
				}
			}
			return &backendHandle{backend: b, reader: b, closers: []func(){flush}}, nil
		}
		b := aggregate.NewMemoryBackend()
		logger.Warn("memory backend without snapshot, state is lost on exit")
		return &backendHandle{backend: b, reader: b}, nil
	}
}

// pipelineParts is everything built from a PipelineConfig.
type pipelineParts struct {
	pipeline *indexer.Pipeline
	matcher  *dex.Matcher
	pools    []common.Address
	handle   *backendHandle
}

func buildPipeline(ctx context.Context, cfg config.PipelineConfig, logger *zap.Logger) (*pipelineParts, error) {
	pools, err := indexer.ParseAddresses(cfg.Pools)
	if err != nil {
		return nil, err
	}
	aliases, err := indexer.ParseAliases(cfg.Aliases)
	if err != nil {
		return nil, err
	}
	matcher, err := dex.NewMatcher(aliases)
	if err != nil {
		return nil, err
	}

	handle, err := openBackend(ctx, cfg.Backend, logger)
	if err != nil {
		return nil, err
	}

	var sinks storage.MultiSink
	if cfg.OutDir != "" {
		sinks = append(sinks, storage.NewJSONLSink(filepath.Clean(cfg.OutDir)))
	}
	if cfg.PGSwaps {
		store := handle.pg
		if store == nil {
			store, err = postgres.NewStore(ctx, cfg.Backend.PGDSN)
			if err != nil {
				handle.Close()
				return nil, fmt.Errorf("connect postgres for swaps: %w", err)
			}
			handle.closers = append(handle.closers, store.Close)
		}
		sinks = append(sinks, postgres.NewSwapSink(store))
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	var out storage.Sink
	if len(sinks) > 0 {
		out = sinks
	}
	pipeline := indexer.NewPipeline(
		extract.New(dex.NewDecoder(matcher), pools),
		sink.NewEmitter(cfg.SwapsTable, logger),
		aggregate.NewEngine(handle.backend, logger),
		out,
		m,
		logger,
	)

	return &pipelineParts{
		pipeline: pipeline,
		matcher:  matcher,
		pools:    pools,
		handle:   handle,
	}, nil
}
