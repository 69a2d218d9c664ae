package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", input: "  ", want: time.Time{}},
		{name: "unix", input: "1700000000", want: time.Unix(1700000000, 0).UTC()},
		{name: "rfc3339", input: "2024-03-01T12:00:00+02:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSimulateRangesFromFileAndFlags(t *testing.T) {
	path := writeConfig(t, `
price0: 1
price1: 1500
sim-price1: 2000
ranges:
  - id: narrow
    price_min: 0.0005
    price_max: 0.001
    investment_usd: 1000
  - price_min: 0.0001
    price_max: 0.01
    investment_usd: 500
`)
	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.Bool("infinite", false, "")
	flags.Float64("price-max", 0, "")
	flags.String("range-id", "", "")
	require.NoError(t, flags.Parse([]string{"--infinite", "--range-id=full"}))

	cfg, err := LoadSimulate(path, flags)
	require.NoError(t, err)

	require.Len(t, cfg.Ranges, 3)
	assert.Equal(t, "narrow", cfg.Ranges[0].ID)
	assert.Equal(t, 0.001, cfg.Ranges[0].PriceMax)
	assert.Equal(t, "range-2", cfg.Ranges[1].ID)
	assert.Equal(t, 500.0, cfg.Ranges[1].InvestmentUSD)
	assert.Equal(t, "full", cfg.Ranges[2].ID)
	assert.True(t, cfg.Ranges[2].InfiniteRange)
	assert.Equal(t, 1000.0, cfg.Ranges[2].InvestmentUSD)

	assert.Equal(t, [2]float64{1, 1500}, cfg.CurrentPrices)
	assert.Equal(t, [2]float64{1, 2000}, cfg.SimulatedPrices)
	assert.Equal(t, 7, cfg.Days)
}

func TestLoadFeesFromEnv(t *testing.T) {
	t.Setenv("LPSCOPE_POSITION", "1, 2,,3")
	t.Setenv("LPSCOPE_SUBGRAPH", "http://graph")
	t.Setenv("LPSCOPE_PG_DSN", "postgres://x")

	cfg, err := LoadFees(writeConfig(t, "workers: 8\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, cfg.Positions)
	assert.Equal(t, "http://graph", cfg.SubgraphURL)
	assert.Equal(t, "postgres://x", cfg.PGDSN)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "subgraph", cfg.Source)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEstimate(t *testing.T) {
	flags := pflag.NewFlagSet("estimate", pflag.ContinueOnError)
	flags.String("pool", "", "")
	flags.Int32("tick-lower", 0, "")
	flags.Int32("tick-upper", 0, "")
	flags.String("at", "", "")
	require.NoError(t, flags.Parse([]string{"--pool=0xabc", "--tick-lower=-600", "--tick-upper=600", "--at=1700000000"}))

	cfg, err := LoadEstimate(writeConfig(t, "days: 3\n"), flags)
	require.NoError(t, err)

	assert.Equal(t, "0xabc", cfg.Pool)
	assert.Equal(t, int32(-600), cfg.TickLower)
	assert.Equal(t, int32(600), cfg.TickUpper)
	assert.Equal(t, 3, cfg.Days)
	assert.Equal(t, 1000.0, cfg.LiquidityUSD)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), cfg.At)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadFees(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestSourcesValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     Sources
		wantErr string
	}{
		{name: "subgraph ok", src: Sources{Source: "subgraph", SubgraphURL: "u", BlocksURL: "b"}},
		{name: "subgraph with rpc blocks", src: Sources{Source: "subgraph", SubgraphURL: "u", RPCURL: "r"}},
		{name: "subgraph missing url", src: Sources{Source: "subgraph", BlocksURL: "b"}, wantErr: "subgraph url is required"},
		{name: "subgraph missing blocks", src: Sources{Source: "subgraph", SubgraphURL: "u"}, wantErr: "blocks subgraph url or rpc url is required"},
		{name: "rpc ok", src: Sources{Source: "rpc", RPCURL: "r", SubgraphURL: "u"}},
		{name: "rpc missing", src: Sources{Source: "rpc", SubgraphURL: "u"}, wantErr: "rpc url is required"},
		{name: "unknown", src: Sources{Source: "ipfs"}, wantErr: "unknown source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
