package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionScope/internal/bitquery"
	"positionScope/internal/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tracker",
		Short:        "Uniswap V3 liquidity position tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Normalize positions(tokenId) snapshots",
		RunE:  runEvents(model.EventPosition),
	}
	addCommonFlags(positionsCmd.Flags())
	root.AddCommand(positionsCmd)

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Normalize mint calls",
		RunE:  runEvents(model.EventMint),
	}
	addCommonFlags(mintCmd.Flags())
	root.AddCommand(mintCmd)

	burnCmd := &cobra.Command{
		Use:   "burn",
		Short: "Normalize burn calls and analyze burn activity",
		RunE:  runBurn,
	}
	addCommonFlags(burnCmd.Flags())
	root.AddCommand(burnCmd)

	creatorsCmd := &cobra.Command{
		Use:   "creators",
		Short: "Rank position creators across four metrics",
		RunE:  runCreators,
	}
	addCommonFlags(creatorsCmd.Flags())
	creatorsCmd.Flags().Int("top-n", 20, "entries kept per leaderboard")
	creatorsCmd.Flags().Int("print-top", 10, "entries printed per leaderboard")
	root.AddCommand(creatorsCmd)

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Resolve token decimals for the tokens a batch references",
		RunE:  runTokens,
	}
	addCommonFlags(tokensCmd.Flags())
	tokensCmd.Flags().String("kind", "positions", "call batch to collect token addresses from (positions, mint, burn, creators)")
	root.AddCommand(tokensCmd)

	return root
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("endpoint", bitquery.DefaultEndpoint, "Bitquery GraphQL endpoint")
	flags.String("token", "", "Bitquery OAuth token")
	flags.StringSlice("in", nil, "saved call responses to read instead of querying (comma-separated)")
	flags.String("tokens-in", "", "saved token decimals response")
	flags.String("out-dir", "./bitquery_responses", "output directory")
	flags.Int("days", 7, "historical window in days")
	flags.Int("limit", bitquery.DefaultHistoricalLimit, "historical query row limit")
	flags.Bool("include-realtime", true, "append the realtime batch after the historical one")
	flags.Duration("timeout", 30*time.Second, "provider request timeout")
	flags.String("rpc", "", "Ethereum RPC URL for on-chain token metadata fallback")
	flags.Int("max-retries", 3, "retry attempts for RPC token metadata reads")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	flags.String("pg-dsn", "", "Postgres DSN for the optional database sink")
	flags.String("metrics-addr", "", "listen address for Prometheus metrics (e.g. :9102)")
	flags.Bool("dedupe", false, "drop repeated calls (same transaction hash, signature and arguments)")
	flags.Bool("save-raw", true, "save fetched provider responses to the output directory")
	flags.String("signature-map", "", "extra function-name to kind mappings (comma-separated name=kind)")
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
