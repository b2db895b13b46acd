package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"positionScope/internal/bitquery"
	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/metrics"
	"positionScope/internal/model"
	"positionScope/internal/pipeline"
	"positionScope/internal/storage"
	"positionScope/internal/storage/postgres"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	files   *storage.FileSink
	sink    storage.Sink
	source  pipeline.Source
	chain   *chain.Client
	sigs    map[string]model.EventKind
	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, now time.Time) (*app, error) {
	sigs, err := pipeline.ParseSignatureMap(cfg.SignatureMap)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(""),
		files:   storage.NewFileSink(cfg.OutDir),
		sigs:    sigs,
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	sinks := storage.MultiSink{a.files}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, store)
	}
	a.sink = sinks

	if cfg.RPCURL != "" {
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		chainID, err := client.ChainID(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("read chain id: %w", err)
		}
		logger.Info("rpc connected", zap.String("chain_id", chainID.String()))
		a.chain = client
	}

	start, end := cfg.Window(now)
	provider := bitquery.NewClient(bitquery.Options{
		Endpoint:        cfg.Endpoint,
		Token:           cfg.Token,
		StartDate:       start,
		EndDate:         end,
		Limit:           cfg.Limit,
		IncludeRealtime: cfg.IncludeRealtime,
		Timeout:         cfg.Timeout,
		Logger:          logger,
		Requests:        a.metrics,
	})
	a.source = pipeline.FileSource{
		CallsPaths:    cfg.In,
		TransfersPath: cfg.TokensIn,
		Next:          provider,
	}
	return a, nil
}

// runner builds a Runner for kind. Raw provider batches are archived only
// when they were actually fetched.
func (a *app) runner(kind model.EventKind) *pipeline.Runner {
	opts := []pipeline.Option{pipeline.WithRecorder(a.metrics)}
	if a.chain != nil {
		opts = append(opts, pipeline.WithChain(a.chain))
	}
	if a.cfg.SaveRaw && len(a.cfg.In) == 0 {
		opts = append(opts, pipeline.WithArchive(a.files))
	}
	return pipeline.NewRunner(pipeline.RunConfig{
		Kind:         kind,
		Dedupe:       a.cfg.Dedupe,
		Signatures:   a.sigs,
		MaxRetries:   a.cfg.MaxRetries,
		RetryBackoff: a.cfg.RetryBackoff,
	}, a.source, a.sink, a.logger, opts...)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
