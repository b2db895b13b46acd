package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/config"
	"positionScope/internal/model"
	"positionScope/internal/pipeline"
	"positionScope/internal/report"
)

// start loads config, the logger and the shared collaborators for a command.
func start(cmd *cobra.Command, cfg config.Config) (context.Context, *app, func(), error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := newApp(ctx, cfg, logger, time.Now().UTC())
	if err != nil {
		stop()
		logger.Sync()
		return nil, nil, nil, err
	}

	logger.Info(cmd.Name()+" start",
		zap.Strings("in", cfg.In),
		zap.String("out_dir", cfg.OutDir),
		zap.Int("days", cfg.Days),
		zap.Bool("include_realtime", cfg.IncludeRealtime),
		zap.Bool("dedupe", cfg.Dedupe),
		zap.Bool("onchain_fallback", cfg.RPCURL != ""),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)
	return ctx, a, func() {
		a.Close()
		stop()
		logger.Sync()
	}, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func runEvents(kind model.EventKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, a, done, err := start(cmd, cfg)
		if err != nil {
			return err
		}
		defer done()
		began := time.Now()
		defer func() { a.metrics.ObserveRun(cmd.Name(), began, err) }()

		_, err = a.runner(kind).Run(ctx)
		return err
	}
}

func runBurn(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, a, done, err := start(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()
	began := time.Now()
	defer func() { a.metrics.ObserveRun(cmd.Name(), began, err) }()

	res, err := a.runner(model.EventBurn).Run(ctx)
	if err != nil {
		return err
	}
	patterns, err := pipeline.AnalyzeBurns(ctx, a.sink, res.Events)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int("total_burns", patterns.TotalBurns),
		zap.Int("unique_burners", patterns.UniqueBurners),
		zap.Float64("avg_burns_per_burner", patterns.AvgBurnsPerBurner),
	}
	if patterns.PeakHour.Key != nil {
		fields = append(fields, zap.String("peak_hour", *patterns.PeakHour.Key), zap.Int("peak_hour_burns", patterns.PeakHour.Count))
	}
	if patterns.PeakDay.Key != nil {
		fields = append(fields, zap.String("peak_day", *patterns.PeakDay.Key), zap.Int("peak_day_burns", patterns.PeakDay.Count))
	}
	a.logger.Info("burn analysis complete", fields...)
	return nil
}

func runCreators(cmd *cobra.Command, _ []string) (err error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCreators(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	ctx, a, done, err := start(cmd, cfg.Config)
	if err != nil {
		return err
	}
	defer done()
	began := time.Now()
	defer func() { a.metrics.ObserveRun(cmd.Name(), began, err) }()

	res, err := a.runner(model.EventCreation).Run(ctx)
	if err != nil {
		return err
	}
	analysis, err := pipeline.AnalyzeCreators(ctx, a.sink, res.Events, cfg.TopN, time.Now().UTC())
	if err != nil {
		return err
	}
	a.metrics.SetCreators(analysis.Summary.TotalCreators)

	a.logger.Info("creator analysis complete",
		zap.Int("total_creators", analysis.Summary.TotalCreators),
		zap.Int("total_positions", analysis.Summary.TotalPositions),
		zap.Int("top_n", cfg.TopN),
	)
	if cfg.PrintTop > 0 {
		return report.PrintTopCreators(cmd.OutOrStdout(), analysis.Rankings, cfg.PrintTop)
	}
	return nil
}

func runTokens(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	kindName, _ := cmd.Flags().GetString("kind")
	kind, err := pipeline.ParseKind(kindName)
	if err != nil {
		return err
	}
	ctx, a, done, err := start(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()
	began := time.Now()
	defer func() { a.metrics.ObserveRun(cmd.Name(), began, err) }()

	resolver, err := a.runner(kind).Tokens(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("tokens complete", zap.Int("known", resolver.Len()))
	return nil
}
