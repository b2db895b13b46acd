package aggregate

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"positionScope/internal/model"
)

// Book holds per-address statistics in first-seen order.
type Book struct {
	order []string
	stats map[string]*model.CreatorStats
}

func NewBook() *Book {
	return &Book{stats: make(map[string]*model.CreatorStats)}
}

// Fold aggregates events by originating address in a single pass.
func Fold(events []model.Event) *Book {
	book := NewBook()
	for _, ev := range events {
		book.Add(ev)
	}
	return book
}

func (b *Book) bucket(address string) *model.CreatorStats {
	stats, ok := b.stats[address]
	if !ok {
		stats = model.NewCreatorStats()
		b.stats[address] = stats
		b.order = append(b.order, address)
	}
	return stats
}

// Add folds one event. Events without an originating address are skipped and
// reported as false.
func (b *Book) Add(ev model.Event) bool {
	if ev == nil {
		return false
	}
	origin := ev.Origin()
	if origin.Address == "" {
		return false
	}

	stats := b.bucket(origin.Address)
	stats.TotalPositions++
	if liquidity, ok := parseLiquidity(origin.Liquidity); ok {
		stats.TotalLiquidity.Add(stats.TotalLiquidity, liquidity)
	}
	if usd, ok := parseUSD(origin.USDValue); ok {
		stats.TotalUSDValue += usd
	}
	if origin.Token0 != "" && origin.Token1 != "" {
		stats.AddPair(origin.Token0 + "/" + origin.Token1)
	}
	if origin.Fee != "" {
		stats.FeeTiers[origin.Fee]++
	}
	stats.Positions = append(stats.Positions, ev)
	stats.ObserveTime(origin.Timestamp)
	return true
}

// Get returns the stats for address.
func (b *Book) Get(address string) (*model.CreatorStats, bool) {
	stats, ok := b.stats[address]
	return stats, ok
}

// Len is the number of distinct addresses.
func (b *Book) Len() int {
	return len(b.order)
}

// Addresses lists addresses in first-seen order.
func (b *Book) Addresses() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Entries lists (address, stats) pairs in first-seen order.
func (b *Book) Entries() []model.RankEntry {
	out := make([]model.RankEntry, 0, len(b.order))
	for _, addr := range b.order {
		out = append(out, model.RankEntry{Address: addr, Stats: b.stats[addr]})
	}
	return out
}

// TotalPositions sums event counts across addresses.
func (b *Book) TotalPositions() int {
	total := 0
	for _, stats := range b.stats {
		total += stats.TotalPositions
	}
	return total
}

// Merge folds src into dst: counters add, pair sets union, time windows widen
// and event lists concatenate. Addresses first seen in src are ordered after
// dst's, keeping src's relative order.
func Merge(dst, src *Book) {
	if dst == nil || src == nil {
		return
	}
	for _, addr := range src.order {
		from := src.stats[addr]
		to := dst.bucket(addr)

		to.TotalPositions += from.TotalPositions
		to.TotalLiquidity.Add(to.TotalLiquidity, from.TotalLiquidity)
		to.TotalUSDValue += from.TotalUSDValue
		for _, pair := range from.UniquePairs() {
			to.AddPair(pair)
		}
		for fee, n := range from.FeeTiers {
			to.FeeTiers[fee] += n
		}
		to.ObserveTime(from.FirstPositionTime)
		to.ObserveTime(from.LastPositionTime)
		to.Positions = append(to.Positions, from.Positions...)
	}
}

// Summarize builds the persisted creator snapshot.
func Summarize(book *Book, view model.RankingView, now time.Time) model.CreatorAnalysis {
	stats := make(map[string]*model.CreatorStats, book.Len())
	for _, addr := range book.order {
		stats[addr] = book.stats[addr]
	}
	return model.CreatorAnalysis{
		Summary: model.AnalysisSummary{
			TotalCreators:     book.Len(),
			AnalysisTimestamp: now.Format(time.RFC3339),
			TotalPositions:    book.TotalPositions(),
		},
		CreatorStats: stats,
		Rankings:     view,
	}
}

func parseLiquidity(value string) (*big.Int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	return new(big.Int).SetString(value, 10)
}

// parseUSD ignores values that are not finite so sums stay JSON-encodable.
func parseUSD(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
