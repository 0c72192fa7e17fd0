package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"poolScope/internal/aggregate"
	"poolScope/internal/config"
)

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInspect(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rule, ok := aggregate.DefaultStores()[cfg.Store]
	if !ok {
		return fmt.Errorf("unknown store %q", cfg.Store)
	}
	if cfg.Key == "" {
		return fmt.Errorf("key is required")
	}

	ctx := context.Background()
	handle, err := openBackend(ctx, cfg.Backend, logger)
	if err != nil {
		return err
	}
	defer handle.Close()

	out := cmd.OutOrStdout()
	if last, ok, err := handle.backend.LastBlock(ctx); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(out, "last_block\t%d\n", last)
	}

	if rule == aggregate.RuleSetIfAbsent {
		value, ok, err := handle.reader.Marker(ctx, cfg.Store, cfg.Key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s/%s: not set", cfg.Store, cfg.Key)
		}
		fmt.Fprintf(out, "%s\t%s\n", cfg.Key, value)
		return nil
	}

	value, err := handle.reader.Counter(ctx, cfg.Store, cfg.Key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%s\n", cfg.Key, value.String())
	return nil
}
