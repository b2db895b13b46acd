package pipeline

import (
	"context"
	"fmt"
	"time"

	"positionScope/internal/aggregate"
	"positionScope/internal/model"
	"positionScope/internal/rank"
	"positionScope/internal/storage"
)

// AnalyzeCreators folds events by originating address, ranks the top topN per
// metric and stores the analysis.
func AnalyzeCreators(ctx context.Context, sink storage.Sink, events []model.Event, topN int, now time.Time) (model.CreatorAnalysis, error) {
	book := aggregate.Fold(events)
	view, err := rank.Rank(book, topN)
	if err != nil {
		return model.CreatorAnalysis{}, err
	}
	analysis := aggregate.Summarize(book, view, now)
	if sink != nil {
		if err := sink.PutCreators(ctx, analysis); err != nil {
			return analysis, fmt.Errorf("store creator analysis: %w", err)
		}
	}
	return analysis, nil
}

// AnalyzeBurns computes burn activity patterns and stores them.
func AnalyzeBurns(ctx context.Context, sink storage.Sink, events []model.Event) (model.BurnPatterns, error) {
	patterns := aggregate.AnalyzeBurns(events)
	if sink != nil {
		if err := sink.PutBurnPatterns(ctx, patterns); err != nil {
			return patterns, fmt.Errorf("store burn analysis: %w", err)
		}
	}
	return patterns, nil
}
