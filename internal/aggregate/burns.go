package aggregate

import (
	"time"

	"positionScope/internal/model"
)

const (
	hourLayout = "2006-01-02 15"
	dayLayout  = "2006-01-02"
)

// AnalyzeBurns summarizes burn activity by sender and by block time. Non-burn
// events are ignored. Timestamps that do not parse as RFC 3339 count toward
// the totals but not the histograms.
func AnalyzeBurns(events []model.Event) model.BurnPatterns {
	out := model.BurnPatterns{
		EventsByDay:  make(map[string]int),
		EventsByHour: make(map[string]int),
	}
	burners := make(map[string]struct{})
	var hours, days []string

	for _, ev := range events {
		if ev == nil || ev.Kind() != model.EventBurn {
			continue
		}
		out.TotalBurns++
		origin := ev.Origin()
		if origin.Address != "" {
			burners[origin.Address] = struct{}{}
		}

		ts, err := time.Parse(time.RFC3339, origin.Timestamp)
		if err != nil {
			continue
		}
		hours = count(out.EventsByHour, hours, ts.Format(hourLayout)+":00")
		days = count(out.EventsByDay, days, ts.Format(dayLayout))
	}

	out.UniqueBurners = len(burners)
	if out.UniqueBurners > 0 {
		out.AvgBurnsPerBurner = float64(out.TotalBurns) / float64(out.UniqueBurners)
	}
	out.PeakHour = peak(out.EventsByHour, hours)
	out.PeakDay = peak(out.EventsByDay, days)
	return out
}

// count bumps a bucket and records its key the first time it is seen.
func count(buckets map[string]int, order []string, key string) []string {
	if buckets[key] == 0 {
		order = append(order, key)
	}
	buckets[key]++
	return order
}

// peak returns the largest bucket; ties go to the bucket seen first.
func peak(buckets map[string]int, order []string) model.Peak {
	var best model.Peak
	for _, k := range order {
		if best.Key == nil || buckets[k] > best.Count {
			key := k
			best = model.Peak{Key: &key, Count: buckets[k]}
		}
	}
	return best
}
