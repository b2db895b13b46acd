package model

import (
	"encoding/json"
	"math/big"
)

// CreatorStats is the running aggregate for one originating address.
type CreatorStats struct {
	TotalPositions    int
	TotalLiquidity    *big.Int
	TotalUSDValue     float64
	FeeTiers          map[string]int
	FirstPositionTime string
	LastPositionTime  string
	Positions         []Event

	pairs   []string
	pairSet map[string]struct{}
}

func NewCreatorStats() *CreatorStats {
	return &CreatorStats{
		TotalLiquidity: new(big.Int),
		FeeTiers:       make(map[string]int),
		pairSet:        make(map[string]struct{}),
	}
}

// AddPair records a "token0/token1" key and reports whether it was new.
func (s *CreatorStats) AddPair(key string) bool {
	if s.pairSet == nil {
		s.pairSet = make(map[string]struct{})
	}
	if _, ok := s.pairSet[key]; ok {
		return false
	}
	s.pairSet[key] = struct{}{}
	s.pairs = append(s.pairs, key)
	return true
}

// UniquePairs returns the distinct pair keys in first-seen order.
func (s *CreatorStats) UniquePairs() []string {
	out := make([]string, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// UniquePairCount counts the distinct pair keys.
func (s *CreatorStats) UniquePairCount() int {
	return len(s.pairSet)
}

// ObserveTime widens the first/last window. ISO-8601 strings order lexicographically.
func (s *CreatorStats) ObserveTime(ts string) {
	if ts == "" {
		return
	}
	if s.FirstPositionTime == "" || ts < s.FirstPositionTime {
		s.FirstPositionTime = ts
	}
	if s.LastPositionTime == "" || ts > s.LastPositionTime {
		s.LastPositionTime = ts
	}
}

type creatorStatsJSON struct {
	TotalPositions    int            `json:"total_positions"`
	TotalLiquidity    string         `json:"total_liquidity"`
	TotalUSDValue     float64        `json:"total_usd_value"`
	UniquePairs       []string       `json:"unique_pairs"`
	UniquePairsCount  int            `json:"unique_pairs_count"`
	FeeTiers          map[string]int `json:"fee_tiers"`
	FirstPositionTime *string        `json:"first_position_time"`
	LastPositionTime  *string        `json:"last_position_time"`
	Positions         []Event        `json:"positions"`
}

// MarshalJSON keeps the liquidity total as a decimal string.
func (s *CreatorStats) MarshalJSON() ([]byte, error) {
	liquidity := "0"
	if s.TotalLiquidity != nil {
		liquidity = s.TotalLiquidity.String()
	}
	out := creatorStatsJSON{
		TotalPositions:   s.TotalPositions,
		TotalLiquidity:   liquidity,
		TotalUSDValue:    s.TotalUSDValue,
		UniquePairs:      s.UniquePairs(),
		UniquePairsCount: s.UniquePairCount(),
		FeeTiers:         s.FeeTiers,
		Positions:        s.Positions,
	}
	if out.FeeTiers == nil {
		out.FeeTiers = map[string]int{}
	}
	if out.Positions == nil {
		out.Positions = []Event{}
	}
	if s.FirstPositionTime != "" {
		first := s.FirstPositionTime
		out.FirstPositionTime = &first
	}
	if s.LastPositionTime != "" {
		last := s.LastPositionTime
		out.LastPositionTime = &last
	}
	return json.Marshal(out)
}

// RankEntry is one (address, stats) row of a leaderboard. It encodes as a
// two-element JSON array.
type RankEntry struct {
	Address string
	Stats   *CreatorStats
}

func (e RankEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Address, e.Stats})
}

// RankingView holds the four leaderboards.
type RankingView struct {
	ByPositions   []RankEntry `json:"by_positions"`
	ByLiquidity   []RankEntry `json:"by_liquidity"`
	ByUSDValue    []RankEntry `json:"by_usd_value"`
	ByUniquePairs []RankEntry `json:"by_unique_pairs"`
}

// AnalysisSummary heads a creator analysis snapshot.
type AnalysisSummary struct {
	TotalCreators     int    `json:"total_creators"`
	AnalysisTimestamp string `json:"analysis_timestamp"`
	TotalPositions    int    `json:"total_positions"`
}

// CreatorAnalysis is the persisted creator snapshot.
type CreatorAnalysis struct {
	Summary      AnalysisSummary          `json:"summary"`
	CreatorStats map[string]*CreatorStats `json:"creator_stats"`
	Rankings     RankingView              `json:"rankings"`
}

// Peak is the busiest bucket of a burn histogram. Key is nil when there were no burns.
type Peak struct {
	Key   *string
	Count int
}

// BurnPatterns summarizes burn activity over time.
type BurnPatterns struct {
	TotalBurns        int            `json:"total_burns"`
	UniqueBurners     int            `json:"unique_burners"`
	AvgBurnsPerBurner float64        `json:"avg_burns_per_burner"`
	PeakHour          Peak           `json:"-"`
	PeakDay           Peak           `json:"-"`
	EventsByDay       map[string]int `json:"events_by_day"`
	EventsByHour      map[string]int `json:"events_by_hour"`
}

func (b BurnPatterns) MarshalJSON() ([]byte, error) {
	type alias BurnPatterns
	return json.Marshal(struct {
		alias
		PeakHour hourJSON `json:"peak_hour"`
		PeakDay  dayJSON  `json:"peak_day"`
	}{
		alias:    alias(b),
		PeakHour: hourJSON{Time: b.PeakHour.Key, Count: b.PeakHour.Count},
		PeakDay:  dayJSON{Date: b.PeakDay.Key, Count: b.PeakDay.Count},
	})
}

type hourJSON struct {
	Time  *string `json:"time"`
	Count int     `json:"count"`
}

type dayJSON struct {
	Date  *string `json:"date"`
	Count int     `json:"count"`
}
