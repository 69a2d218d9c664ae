package config

import (
	"github.com/spf13/pflag"
)

// FeesConfig holds configuration for the fees command.
type FeesConfig struct {
	Sources
	Positions []string
	Workers   int
	Out       string
	PGDSN     string
	StateFile string
	LogLevel  string
}

// LoadFees merges config file, environment variables, and flags into FeesConfig.
func LoadFees(cfgFile string, flags *pflag.FlagSet) (FeesConfig, error) {
	v, err := load(cfgFile, flags, sourceDefaults(map[string]interface{}{
		"workers": 4,
		"out":     "./data/fees.jsonl",
	}))
	if err != nil {
		return FeesConfig{}, err
	}

	return FeesConfig{
		Sources:   loadSources(v),
		Positions: getStringSlice(v, "position"),
		Workers:   v.GetInt("workers"),
		Out:       v.GetString("out"),
		PGDSN:     v.GetString("pg-dsn"),
		StateFile: v.GetString("state-file"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}
