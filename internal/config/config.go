package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. POOLSCOPE_PG_DSN.
const EnvPrefix = "POOLSCOPE"

// Backend kinds.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// BackendConfig selects and configures the aggregation store backend.
type BackendConfig struct {
	Kind          string
	Snapshot      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	PGDSN         string
}

// Validate checks that the selected backend has its connection settings.
func (b BackendConfig) Validate() error {
	switch b.Kind {
	case BackendMemory:
		return nil
	case BackendRedis:
		if b.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis backend")
		}
		return nil
	case BackendPostgres:
		if b.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q", b.Kind)
	}
}

// PipelineConfig is shared by every command that runs blocks through the pipeline.
type PipelineConfig struct {
	Pools       []string
	Aliases     map[string]string
	Backend     BackendConfig
	OutDir      string
	SwapsTable  string
	PGSwaps     bool
	MetricsAddr string
	LogLevel    string
}

// Config holds settings for the run command.
type Config struct {
	PipelineConfig
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":         uint64(2000),
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": false,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		PipelineConfig:    pipelineConfig(v),
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
	}
	return cfg, nil
}

// newViper layers defaults, an optional config file, POOLSCOPE_* env vars and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendMemory)
	v.SetDefault("redis-prefix", "poolscope")
	v.SetDefault("out-dir", "./data")
	v.SetDefault("swaps-table", "swaps")
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func backendConfig(v *viper.Viper) BackendConfig {
	return BackendConfig{
		Kind:          strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		Snapshot:      v.GetString("snapshot"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		RedisPrefix:   v.GetString("redis-prefix"),
		PGDSN:         v.GetString("pg-dsn"),
	}
}

func pipelineConfig(v *viper.Viper) PipelineConfig {
	return PipelineConfig{
		Pools:       getStringSlice(v, "pool"),
		Aliases:     getStringMap(v, "alias"),
		Backend:     backendConfig(v),
		OutDir:      v.GetString("out-dir"),
		SwapsTable:  v.GetString("swaps-table"),
		PGSwaps:     v.GetBool("pg-swaps"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ","))
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

// getStringMap accepts a map from a config file or "k=v,k=v" from a flag or env var.
func getStringMap(v *viper.Viper, key string) map[string]string {
	out := make(map[string]string)
	if !v.IsSet(key) {
		return out
	}

	var pairs []string
	switch typed := v.Get(key).(type) {
	case map[string]string:
		for k, val := range typed {
			out[k] = val
		}
		return out
	case map[string]interface{}:
		for k, val := range typed {
			out[k] = fmt.Sprintf("%v", val)
		}
		return out
	case string:
		pairs = strings.Split(typed, ",")
	case []string:
		pairs = typed
	case []interface{}:
		for _, item := range typed {
			pairs = append(pairs, fmt.Sprintf("%v", item))
		}
	}

	for _, pair := range pairs {
		k, val, ok := strings.Cut(pair, "=")
		k, val = strings.TrimSpace(k), strings.TrimSpace(val)
		if !ok || k == "" || val == "" {
			continue
		}
		out[k] = val
	}
	return out
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
