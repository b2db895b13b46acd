package storage

import (
	"context"
	"errors"

	"positionScope/internal/model"
)

// Sink receives the outputs of a run.
type Sink interface {
	PutEvents(ctx context.Context, kind model.EventKind, events []model.Event) error
	PutTokens(ctx context.Context, tokens []model.TokenInfo) error
	PutCreators(ctx context.Context, analysis model.CreatorAnalysis) error
	PutBurnPatterns(ctx context.Context, patterns model.BurnPatterns) error
}

// MultiSink fans each write out to every sink in order. All sinks are
// attempted; their errors are joined.
type MultiSink []Sink

func (m MultiSink) PutEvents(ctx context.Context, kind model.EventKind, events []model.Event) error {
	return m.each(func(s Sink) error { return s.PutEvents(ctx, kind, events) })
}

func (m MultiSink) PutTokens(ctx context.Context, tokens []model.TokenInfo) error {
	return m.each(func(s Sink) error { return s.PutTokens(ctx, tokens) })
}

func (m MultiSink) PutCreators(ctx context.Context, analysis model.CreatorAnalysis) error {
	return m.each(func(s Sink) error { return s.PutCreators(ctx, analysis) })
}

func (m MultiSink) PutBurnPatterns(ctx context.Context, patterns model.BurnPatterns) error {
	return m.each(func(s Sink) error { return s.PutBurnPatterns(ctx, patterns) })
}

func (m MultiSink) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
