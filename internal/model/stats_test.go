package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCreatorStatsPairs(t *testing.T) {
	s := NewCreatorStats()
	if !s.AddPair("a/b") || !s.AddPair("b/a") || s.AddPair("a/b") {
		t.Fatalf("AddPair should report new keys only")
	}
	if got := s.UniquePairs(); !reflect.DeepEqual(got, []string{"a/b", "b/a"}) {
		t.Fatalf("pairs = %v", got)
	}
	if s.UniquePairCount() != 2 {
		t.Fatalf("count = %d", s.UniquePairCount())
	}
}

func TestCreatorStatsObserveTime(t *testing.T) {
	s := NewCreatorStats()
	for _, ts := range []string{"2025-09-20T10:00:00Z", "", "2025-09-18T10:00:00Z", "2025-09-21T00:00:00Z"} {
		s.ObserveTime(ts)
	}
	if s.FirstPositionTime != "2025-09-18T10:00:00Z" || s.LastPositionTime != "2025-09-21T00:00:00Z" {
		t.Fatalf("window = %s..%s", s.FirstPositionTime, s.LastPositionTime)
	}
}

func TestCreatorStatsJSONEmpty(t *testing.T) {
	data, err := json.Marshal(NewCreatorStats())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["total_liquidity"] != "0" {
		t.Fatalf("total_liquidity = %v", decoded["total_liquidity"])
	}
	if decoded["first_position_time"] != nil {
		t.Fatalf("first_position_time = %v", decoded["first_position_time"])
	}
	if positions, ok := decoded["positions"].([]interface{}); !ok || len(positions) != 0 {
		t.Fatalf("positions = %v", decoded["positions"])
	}
}

func TestRankEntryJSON(t *testing.T) {
	data, err := json.Marshal(RankEntry{Address: "0xabc", Stats: NewCreatorStats()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tuple) != 2 || string(tuple[0]) != `"0xabc"` {
		t.Fatalf("tuple = %s", data)
	}
}

func TestBurnPatternsJSONPeaks(t *testing.T) {
	peaks := func(b BurnPatterns) (string, string) {
		t.Helper()
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return string(raw["peak_hour"]), string(raw["peak_day"])
	}

	hour, day := peaks(BurnPatterns{})
	if hour != `{"time":null,"count":0}` || day != `{"date":null,"count":0}` {
		t.Fatalf("empty peaks = %s %s", hour, day)
	}

	key := "2025-09-20 10:00"
	hour, _ = peaks(BurnPatterns{TotalBurns: 3, PeakHour: Peak{Key: &key, Count: 3}})
	if hour != `{"time":"2025-09-20 10:00","count":3}` {
		t.Fatalf("peak_hour = %s", hour)
	}
}
