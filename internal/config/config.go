package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sources holds the data-source settings shared by commands.
type Sources struct {
	SubgraphURL   string
	BlocksURL     string
	RPCURL        string
	Source        string
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// load merges the config file, LPSCOPE_* environment variables and flags.
// A missing default config.yaml is not an error.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	for k, val := range defaults {
		v.SetDefault(k, val)
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

func sourceDefaults(into map[string]interface{}) map[string]interface{} {
	into["source"] = "subgraph"
	into["timeout"] = 30 * time.Second
	into["max-retries"] = 5
	into["retry-backoff"] = 500 * time.Millisecond
	into["cache-ttl"] = 24 * time.Hour
	return into
}

func loadSources(v *viper.Viper) Sources {
	return Sources{
		SubgraphURL:   v.GetString("subgraph"),
		BlocksURL:     v.GetString("blocks-subgraph"),
		RPCURL:        v.GetString("rpc"),
		Source:        strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		Timeout:       v.GetDuration("timeout"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		CacheTTL:      v.GetDuration("cache-ttl"),
	}
}

// Validate checks that the selected state source has what it needs.
func (s Sources) Validate() error {
	switch s.Source {
	case "subgraph":
		if s.SubgraphURL == "" {
			return fmt.Errorf("subgraph url is required")
		}
		if s.BlocksURL == "" && s.RPCURL == "" {
			return fmt.Errorf("blocks subgraph url or rpc url is required")
		}
	case "rpc":
		if s.RPCURL == "" {
			return fmt.Errorf("rpc url is required")
		}
		if s.SubgraphURL == "" {
			return fmt.Errorf("subgraph url is required for token prices")
		}
	default:
		return fmt.Errorf("unknown source %q (want subgraph or rpc)", s.Source)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
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

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
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

// ParseTimestamp parses unix seconds or RFC3339. Empty input yields the zero time.
func ParseTimestamp(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(val, 0).UTC(), nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return time.Time{}, err
	}
	return tm.UTC(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
