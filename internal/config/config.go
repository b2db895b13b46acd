package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "TRACKER"
	DefaultEndpoint = "https://streaming.bitquery.io/graphql"
)

// Config holds settings shared by every tracker command.
type Config struct {
	Endpoint        string
	Token           string
	In              []string
	TokensIn        string
	OutDir          string
	Days            int
	Limit           int
	IncludeRealtime bool
	Timeout         time.Duration
	RPCURL          string
	MaxRetries      int
	RetryBackoff    time.Duration
	PGDSN           string
	MetricsAddr     string
	Dedupe          bool
	SaveRaw         bool
	SignatureMap    map[string]string
	LogLevel        string
}

// CreatorsConfig adds ranking settings for the creators command.
type CreatorsConfig struct {
	Config
	TopN     int
	PrintTop int
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

// LoadCreators is Load plus the ranking keys.
func LoadCreators(cfgFile string, flags *pflag.FlagSet) (CreatorsConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return CreatorsConfig{}, err
	}
	cfg := CreatorsConfig{
		Config:   fromViper(v),
		TopN:     v.GetInt("top-n"),
		PrintTop: v.GetInt("print-top"),
	}
	if cfg.TopN <= 0 {
		return CreatorsConfig{}, fmt.Errorf("top-n must be positive, got %d", cfg.TopN)
	}
	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("out-dir", "./bitquery_responses")
	v.SetDefault("days", 7)
	v.SetDefault("limit", 2000)
	v.SetDefault("include-realtime", true)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("dedupe", false)
	v.SetDefault("save-raw", true)
	v.SetDefault("top-n", 20)
	v.SetDefault("print-top", 10)
	v.SetDefault("log-level", "info")

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

func fromViper(v *viper.Viper) Config {
	return Config{
		Endpoint:        v.GetString("endpoint"),
		Token:           v.GetString("token"),
		In:              getStringSlice(v, "in"),
		TokensIn:        v.GetString("tokens-in"),
		OutDir:          v.GetString("out-dir"),
		Days:            v.GetInt("days"),
		Limit:           v.GetInt("limit"),
		IncludeRealtime: v.GetBool("include-realtime"),
		Timeout:         v.GetDuration("timeout"),
		RPCURL:          v.GetString("rpc"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		PGDSN:           v.GetString("pg-dsn"),
		MetricsAddr:     v.GetString("metrics-addr"),
		Dedupe:          v.GetBool("dedupe"),
		SaveRaw:         v.GetBool("save-raw"),
		SignatureMap:    getStringMap(v, "signature-map"),
		LogLevel:        v.GetString("log-level"),
	}
}

// Window returns the historical date range ending at now, formatted as YYYY-MM-DD.
func (c Config) Window(now time.Time) (string, string) {
	days := c.Days
	if days <= 0 {
		days = 7
	}
	start := now.AddDate(0, 0, -days)
	return start.Format("2006-01-02"), now.Format("2006-01-02")
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

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	for _, pair := range strings.Split(input, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
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
