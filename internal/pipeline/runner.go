package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"positionScope/internal/extract"
	"positionScope/internal/model"
	"positionScope/internal/storage"
	"positionScope/internal/tokens"
)

// Currency lookups are capped at 1000 contracts per provider query.
const DefaultTokenBatchSize = 1000

// RunConfig holds runtime settings for one batch run.
type RunConfig struct {
	Kind           model.EventKind
	Dedupe         bool
	Signatures     map[string]model.EventKind
	TokenBatchSize int
	MaxRetries     int
	RetryBackoff   time.Duration
}

// Recorder receives run counters. *metrics.Metrics satisfies it.
type Recorder interface {
	extract.Recorder
	SetResolverSize(n int)
	ObserveLookup(ok bool)
}

// Archive keeps copies of fetched provider batches. *storage.FileSink satisfies it.
type Archive interface {
	SaveCalls(kind model.EventKind, calls []model.DecodedCall) (string, error)
	SaveTransfers(records []model.TransferRecord) (string, error)
}

// Runner pulls one batch from a Source, normalizes it and hands the results to a Sink.
type Runner struct {
	cfg      RunConfig
	source   Source
	sink     storage.Sink
	caller   tokens.ContractCaller
	archive  Archive
	recorder Recorder
	logger   *zap.Logger
	seen     map[string]struct{}
}

type Option func(*Runner)

// WithChain enables the on-chain ERC20 fallback for tokens the provider batch misses.
func WithChain(caller tokens.ContractCaller) Option {
	return func(r *Runner) { r.caller = caller }
}

func WithArchive(archive Archive) Option {
	return func(r *Runner) { r.archive = archive }
}

func WithRecorder(recorder Recorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source Source, sink storage.Sink, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenBatchSize <= 0 {
		cfg.TokenBatchSize = DefaultTokenBatchSize
	}
	r := &Runner{
		cfg:    cfg,
		source: source,
		sink:   sink,
		logger: logger,
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of a run.
type Result struct {
	Kind       model.EventKind
	Calls      int
	Duplicates int
	Events     []model.Event
	Stats      extract.BatchStats
	Resolver   *tokens.Resolver
}

// Run fetches, resolves, extracts and stores one batch. An empty batch is not
// an error: empty outputs are written and the run completes.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{Kind: r.cfg.Kind}
	calls, dups, err := r.fetch(ctx)
	if err != nil {
		return res, err
	}
	res.Calls, res.Duplicates = len(calls), dups

	if len(calls) == 0 {
		r.logger.Info("no calls found", zap.String("kind", string(r.cfg.Kind)))
		if res.Resolver, err = r.resolve(ctx, nil); err != nil {
			return res, err
		}
		if err := r.sink.PutEvents(ctx, r.cfg.Kind, nil); err != nil {
			return res, fmt.Errorf("store events: %w", err)
		}
		return res, nil
	}

	resolver, err := r.resolve(ctx, calls)
	if err != nil {
		return res, err
	}
	res.Resolver = resolver

	opts := []extract.Option{
		extract.WithLogger(r.logger),
		extract.WithSignatures(r.cfg.Signatures),
	}
	if r.recorder != nil {
		opts = append(opts, extract.WithRecorder(r.recorder))
	}
	extractor := extract.New(resolver, opts...)

	r.logger.Info("extract start", zap.String("kind", string(r.cfg.Kind)), zap.Int("calls", len(calls)))
	res.Events, res.Stats = extractor.ExtractBatch(r.cfg.Kind, calls)

	if err := r.sink.PutEvents(ctx, r.cfg.Kind, res.Events); err != nil {
		return res, fmt.Errorf("store events: %w", err)
	}

	r.logger.Info("extract complete",
		zap.String("kind", string(r.cfg.Kind)),
		zap.Int("total", res.Stats.Total),
		zap.Int("extracted", res.Stats.Extracted),
		zap.Int("dropped", res.Stats.Dropped),
		zap.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

// Tokens fetches the batch and stores only the resolved token metadata.
func (r *Runner) Tokens(ctx context.Context) (*tokens.Resolver, error) {
	calls, _, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		r.logger.Info("no calls found", zap.String("kind", string(r.cfg.Kind)))
	}
	return r.resolve(ctx, calls)
}

func (r *Runner) fetch(ctx context.Context) ([]model.DecodedCall, int, error) {
	if r.source == nil {
		return nil, 0, fmt.Errorf("source is nil")
	}
	if r.sink == nil {
		return nil, 0, fmt.Errorf("sink is nil")
	}

	calls, err := r.source.Calls(ctx, r.cfg.Kind)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s calls: %w", r.cfg.Kind, err)
	}

	dups := 0
	if r.cfg.Dedupe {
		kept := calls[:0:0]
		for _, call := range calls {
			if r.isDuplicate(call) {
				dups++
				continue
			}
			kept = append(kept, call)
		}
		calls = kept
	}

	if r.archive != nil {
		path, err := r.archive.SaveCalls(r.cfg.Kind, calls)
		if err != nil {
			return nil, 0, fmt.Errorf("archive calls: %w", err)
		}
		r.logger.Debug("calls archived", zap.String("path", path))
	}
	return calls, dups, nil
}

// resolve builds the decimals lookup for the tokens a batch references.
func (r *Runner) resolve(ctx context.Context, calls []model.DecodedCall) (*tokens.Resolver, error) {
	addresses := tokens.CollectAddresses(calls)

	spans, err := SplitSpans(len(addresses), r.cfg.TokenBatchSize)
	if err != nil {
		return nil, err
	}
	var transfers []model.TransferRecord
	for _, span := range spans {
		batch, err := r.source.Transfers(ctx, addresses[span.From:span.To])
		if err != nil {
			return nil, fmt.Errorf("fetch token decimals: %w", err)
		}
		transfers = append(transfers, batch...)
	}
	if r.archive != nil && len(addresses) > 0 {
		if _, err := r.archive.SaveTransfers(transfers); err != nil {
			return nil, fmt.Errorf("archive transfers: %w", err)
		}
	}

	resolver := tokens.NewResolver(transfers)
	if r.caller != nil {
		missing := resolver.Missing(addresses)
		if len(missing) > 0 {
			caller := retryingCaller{next: r.caller, maxRetries: r.cfg.MaxRetries, backoff: r.cfg.RetryBackoff, logger: r.logger}
			extra := tokens.FetchMissing(ctx, caller, resolver, missing, r.logger)
			if r.recorder != nil {
				for i := range missing {
					r.recorder.ObserveLookup(i < len(extra))
				}
			}
			r.logger.Info("onchain token metadata", zap.Int("missing", len(missing)), zap.Int("resolved", len(extra)))
			resolver = tokens.NewResolver(transfers, extra...)
		}
	}
	if r.recorder != nil {
		r.recorder.SetResolverSize(resolver.Len())
	}

	r.logger.Info("tokens resolved",
		zap.Int("addresses", len(addresses)),
		zap.Int("known", resolver.Len()),
		zap.Int("defaulted", len(resolver.Missing(addresses))),
	)
	if err := r.sink.PutTokens(ctx, resolver.Tokens()); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return resolver, nil
}

// isDuplicate reports a call already seen for the run's kind. Calls are keyed
// by transaction hash and arguments, so distinct calls batched into one
// transaction are kept. Calls without a hash are never treated as duplicates.
func (r *Runner) isDuplicate(call model.DecodedCall) bool {
	hash := call.Transaction.Hash
	if hash == "" {
		return false
	}
	args, err := json.Marshal(call.Arguments)
	if err != nil {
		return false
	}
	id := string(r.cfg.Kind) + ":" + hash + ":" + call.Call.Signature.Name + ":" + string(args)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
