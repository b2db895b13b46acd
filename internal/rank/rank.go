package rank

import (
	"errors"
	"fmt"
	"sort"

	"positionScope/internal/aggregate"
	"positionScope/internal/model"
)

var ErrInvalidTopN = errors.New("top-n must be positive")

// Metric orders two stats records; Greater reports whether a ranks above b.
type Metric struct {
	Name    string
	Greater func(a, b *model.CreatorStats) bool
}

var (
	ByPositions = Metric{Name: "positions", Greater: func(a, b *model.CreatorStats) bool {
		return a.TotalPositions > b.TotalPositions
	}}
	ByLiquidity = Metric{Name: "liquidity", Greater: func(a, b *model.CreatorStats) bool {
		return a.TotalLiquidity.Cmp(b.TotalLiquidity) > 0
	}}
	ByUSDValue = Metric{Name: "usd_value", Greater: func(a, b *model.CreatorStats) bool {
		return a.TotalUSDValue > b.TotalUSDValue
	}}
	// ByUniquePairs counts the pair set when compared, never a cached total.
	ByUniquePairs = Metric{Name: "unique_pairs", Greater: func(a, b *model.CreatorStats) bool {
		return a.UniquePairCount() > b.UniquePairCount()
	}}
)

// Top sorts entries descending by metric and keeps the first topN. Equal
// entries keep their input order.
func Top(entries []model.RankEntry, metric Metric, topN int) []model.RankEntry {
	sorted := make([]model.RankEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric.Greater(sorted[i].Stats, sorted[j].Stats)
	})
	if topN < 0 {
		topN = 0
	}
	if topN < len(sorted) {
		sorted = sorted[:topN]
	}
	return sorted
}

// Rank builds the four leaderboards from a book. Ties follow first-seen order.
func Rank(book *aggregate.Book, topN int) (model.RankingView, error) {
	if topN <= 0 {
		return model.RankingView{}, fmt.Errorf("rank creators: %w (got %d)", ErrInvalidTopN, topN)
	}
	var entries []model.RankEntry
	if book != nil {
		entries = book.Entries()
	}
	return model.RankingView{
		ByPositions:   Top(entries, ByPositions, topN),
		ByLiquidity:   Top(entries, ByLiquidity, topN),
		ByUSDValue:    Top(entries, ByUSDValue, topN),
		ByUniquePairs: Top(entries, ByUniquePairs, topN),
	}, nil
}
