package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/config"
	"poolScope/internal/indexer"
	"poolScope/internal/model"
)

func runExtract(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExtract(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parts, err := buildPipeline(ctx, cfg.PipelineConfig, logger)
	if err != nil {
		return err
	}
	defer parts.handle.Close()

	var blocks, swaps, failures int
	err = indexer.ReadBlocks(ctx, cfg.In, func(block model.Block) error {
		out, err := parts.pipeline.ProcessBlock(ctx, block)
		if err != nil {
			return fmt.Errorf("process block %d: %w", block.Number, err)
		}
		blocks++
		swaps += len(out.Swaps.Events)
		failures += len(out.Failures)
		return nil
	})

	logger.Info("extract complete",
		zap.String("in", cfg.In),
		zap.Int("blocks", blocks),
		zap.Int("swaps", swaps),
		zap.Int("decode_failures", failures),
	)
	return err
}
