package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"lpScope/internal/model"
)

// SimulateConfig holds configuration for the simulate command. Pool is
// optional; when set every range also gets a fee estimate.
type SimulateConfig struct {
	Sources
	Ranges          []model.Range
	CurrentPrices   [2]float64
	SimulatedPrices [2]float64
	Switch          bool
	Pool            string
	Days            int
	Out             string
	LogLevel        string
}

// LoadSimulate merges config file, environment variables, and flags into
// SimulateConfig. Ranges come from the config file's ranges list, plus one
// range built from the price-min/price-max/infinite flags when given.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := load(cfgFile, flags, sourceDefaults(map[string]interface{}{
		"days":       7,
		"investment": 1000.0,
	}))
	if err != nil {
		return SimulateConfig{}, err
	}

	var ranges []model.Range
	if v.IsSet("ranges") {
		if err := v.UnmarshalKey("ranges", &ranges); err != nil {
			return SimulateConfig{}, fmt.Errorf("parse ranges: %w", err)
		}
	}
	if v.GetBool("infinite") || v.GetFloat64("price-max") > 0 {
		ranges = append(ranges, model.Range{
			ID:            v.GetString("range-id"),
			PriceMin:      v.GetFloat64("price-min"),
			PriceMax:      v.GetFloat64("price-max"),
			InvestmentUSD: v.GetFloat64("investment"),
			InfiniteRange: v.GetBool("infinite"),
		})
	}
	for i := range ranges {
		if ranges[i].ID == "" {
			ranges[i].ID = fmt.Sprintf("range-%d", i+1)
		}
	}

	current := [2]float64{v.GetFloat64("price0"), v.GetFloat64("price1")}
	simulated := [2]float64{v.GetFloat64("sim-price0"), v.GetFloat64("sim-price1")}
	for i := range simulated {
		if simulated[i] == 0 {
			simulated[i] = current[i]
		}
	}

	return SimulateConfig{
		Sources:         loadSources(v),
		Ranges:          ranges,
		CurrentPrices:   current,
		SimulatedPrices: simulated,
		Switch:          v.GetBool("switch"),
		Pool:            v.GetString("pool"),
		Days:            v.GetInt("days"),
		Out:             v.GetString("out"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}
