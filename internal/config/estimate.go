package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// EstimateConfig holds configuration for the estimate command.
type EstimateConfig struct {
	Sources
	Pool         string
	TickLower    int32
	TickUpper    int32
	LiquidityUSD float64
	Days         int
	At           time.Time
	Out          string
	PGDSN        string
	LogLevel     string
}

// LoadEstimate merges config file, environment variables, and flags into EstimateConfig.
func LoadEstimate(cfgFile string, flags *pflag.FlagSet) (EstimateConfig, error) {
	v, err := load(cfgFile, flags, sourceDefaults(map[string]interface{}{
		"days":          7,
		"liquidity-usd": 1000.0,
	}))
	if err != nil {
		return EstimateConfig{}, err
	}

	at, err := ParseTimestamp(v.GetString("at"))
	if err != nil {
		return EstimateConfig{}, fmt.Errorf("parse at: %w", err)
	}

	return EstimateConfig{
		Sources:      loadSources(v),
		Pool:         v.GetString("pool"),
		TickLower:    v.GetInt32("tick-lower"),
		TickUpper:    v.GetInt32("tick-upper"),
		LiquidityUSD: v.GetFloat64("liquidity-usd"),
		Days:         v.GetInt("days"),
		At:           at,
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
