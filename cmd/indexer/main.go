package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poolscope",
		Short:        "AMM pool event decoder and aggregator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index a block range from an RPC node",
		RunE:  runIndexer,
	}
	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per log query")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", false, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	addPipelineFlags(runCmd.Flags())
	root.AddCommand(runCmd)

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Run blocks from a JSONL file through the pipeline",
		RunE:  runExtract,
	}
	extractCmd.Flags().String("in", "", "input blocks JSONL")
	addPipelineFlags(extractCmd.Flags())
	root.AddCommand(extractCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read a counter or marker from the backend",
		RunE:  runInspect,
	}
	inspectCmd.Flags().String("store", "", "store name (swap_volumes, pool_stats, unique_traders)")
	inspectCmd.Flags().String("key", "", "store key, e.g. total:volume")
	addBackendFlags(inspectCmd.Flags())
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(inspectCmd)

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the Postgres tables the postgres backend and swaps sink expect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema)
			return err
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addBackendFlags(flags *pflag.FlagSet) {
	flags.String("backend", "memory", "store backend (memory, redis, postgres)")
	flags.String("snapshot", "", "memory backend snapshot file")
	flags.String("redis-addr", "", "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("redis-prefix", "poolscope", "Redis key prefix")
	flags.String("pg-dsn", "", "Postgres DSN")
}

func addPipelineFlags(flags *pflag.FlagSet) {
	flags.StringSlice("pool", nil, "pool addresses to accept (comma-separated, empty accepts all)")
	flags.String("alias", "", "extra topic0=kind signatures (comma-separated)")
	addBackendFlags(flags)
	flags.String("out-dir", "./data", "directory for JSONL outputs, empty disables them")
	flags.String("swaps-table", "swaps", "table name on swap change records")
	flags.Bool("pg-swaps", false, "write swap change records to Postgres")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
