// Package analytics derives read-only quality metrics from review logs.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
)

// Trend labels the last three grades.
type Trend string

const (
	TrendNew       Trend = "new"
	TrendEasy      Trend = "easy"
	TrendDifficult Trend = "difficult"
	TrendMixed     Trend = "mixed"
)

const targetRetention = 0.9

// ItemMetrics summarises one item's history.
type ItemMetrics struct {
	ItemID              string  `json:"item_id"`
	TotalReviews        int     `json:"total_reviews"`
	SuccessRate         float64 `json:"success_rate"`
	AverageInterval     float64 `json:"average_interval"`
	AverageResponseTime float64 `json:"average_response_time"`
	ResponseTimes       []int   `json:"response_times"`
	RetentionRate       float64 `json:"retention_rate"`
	PredictedRecall     float64 `json:"predicted_recall"`
	OptimalInterval     int     `json:"optimal_interval"`
	IsLeech             bool    `json:"is_leech"`
	DifficultyTrend     Trend   `json:"difficulty_trend"`
}

// Compute builds metrics for itemID. stability is the item's current model
// estimate, nil when unknown.
func Compute(itemID string, log []fsrs.ReviewLogEntry, stability *float64, now time.Time) ItemMetrics {
	m := ItemMetrics{
		ItemID:          itemID,
		ResponseTimes:   []int{},
		OptimalInterval: 1,
		DifficultyTrend: TrendNew,
	}
	if len(log) == 0 {
		return m
	}
	entries := sortedByDate(log)
	m.TotalReviews = len(entries)

	successes := 0
	var gaps []int
	for i, e := range entries {
		if e.Grade.Success() {
			successes++
		}
		if i > 0 {
			gaps = append(gaps, daysBetween(entries[i-1].ReviewDate, e.ReviewDate))
		}
		if e.ResponseTime != nil && *e.ResponseTime > 0 {
			m.ResponseTimes = append(m.ResponseTimes, *e.ResponseTime)
		}
	}
	m.SuccessRate = float64(successes) / float64(len(entries))
	m.AverageInterval = meanInts(gaps)
	m.AverageResponseTime = meanInts(m.ResponseTimes)

	tail := entries
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	failed := 0
	for _, e := range tail {
		if !e.Grade.Success() {
			failed++
		}
	}
	m.IsLeech = failed >= 3
	m.DifficultyTrend = trend(entries)

	m.RetentionRate, m.PredictedRecall, m.OptimalInterval = retention(entries, stability, now)
	return m
}

func trend(entries []fsrs.ReviewLogEntry) Trend {
	if len(entries) < 3 {
		return TrendNew
	}
	easy, hard := true, true
	for _, e := range entries[len(entries)-3:] {
		if e.Grade < fsrs.Easy {
			easy = false
		}
		if e.Grade > fsrs.Hard {
			hard = false
		}
	}
	switch {
	case easy:
		return TrendEasy
	case hard:
		return TrendDifficult
	}
	return TrendMixed
}

// retention pairs each review with its predecessor. A pair counts when the
// predecessor carried a scheduled interval; the later grade decides recall.
func retention(entries []fsrs.ReviewLogEntry, stability *float64, now time.Time) (rate, predicted float64, optimal int) {
	var actual []int
	correct := 0
	for i := 1; i < len(entries); i++ {
		prev := entries[i-1]
		if prev.ScheduledInterval == 0 {
			continue
		}
		actual = append(actual, daysBetween(prev.ReviewDate, entries[i].ReviewDate))
		if entries[i].Grade.Success() {
			correct++
		}
	}
	if len(actual) > 0 {
		rate = float64(correct) / float64(len(actual))
	}

	daysSince := float64(fsrs.WholeDays(entries[len(entries)-1].ReviewDate, now))
	if stability != nil && *stability > 0 {
		opt := -*stability * math.Log(targetRetention)
		return rate, math.Exp(-daysSince / *stability), max(1, int(math.Round(opt)))
	}
	if len(actual) == 0 {
		return 0, 0, 1
	}

	opt := meanInts(actual) * (rate + 0.1)
	if opt > 0 {
		predicted = math.Max(0, 1-daysSince/(opt*2))
	}
	return rate, predicted, max(1, int(math.Round(opt)))
}

func daysBetween(a, b time.Time) int {
	return fsrs.WholeDays(a, b)
}

func meanInts(v []int) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}

func sortedByDate(log []fsrs.ReviewLogEntry) []fsrs.ReviewLogEntry {
	out := append([]fsrs.ReviewLogEntry(nil), log...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReviewDate.Before(out[j].ReviewDate)
	})
	return out
}
