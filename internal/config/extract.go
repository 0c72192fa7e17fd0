package config

import "github.com/spf13/pflag"

// ExtractConfig holds settings for the offline extract command.
type ExtractConfig struct {
	PipelineConfig
	In string
}

// LoadExtract merges config file, environment variables, and flags into ExtractConfig.
func LoadExtract(cfgFile string, flags *pflag.FlagSet) (ExtractConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return ExtractConfig{}, err
	}
	return ExtractConfig{
		PipelineConfig: pipelineConfig(v),
		In:             v.GetString("in"),
	}, nil
}

// InspectConfig holds settings for the inspect command.
type InspectConfig struct {
	Backend  BackendConfig
	Store    string
	Key      string
	LogLevel string
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return InspectConfig{}, err
	}
	return InspectConfig{
		Backend:  backendConfig(v),
		Store:    v.GetString("store"),
		Key:      v.GetString("key"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
