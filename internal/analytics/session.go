package analytics

import (
	"sort"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
)

// DailyCount is the number of reviews on one calendar day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Session summarises recent study activity.
type Session struct {
	TotalReviews     int          `json:"total_reviews"`
	DailyAverage     float64      `json:"daily_average"`
	SuccessRate      float64      `json:"success_rate"`
	ImprovementTrend float64      `json:"improvement_trend"`
	Daily            []DailyCount `json:"daily"`
}

// SummarizeSession looks at entries reviewed within the last days days.
func SummarizeSession(entries []fsrs.ReviewLogEntry, days int, now time.Time) Session {
	start := now.AddDate(0, 0, -days)
	var recent []fsrs.ReviewLogEntry
	for _, e := range entries {
		if !e.ReviewDate.Before(start) {
			recent = append(recent, e)
		}
	}
	var s Session
	if len(recent) == 0 || days <= 0 {
		s.Daily = []DailyCount{}
		return s
	}
	recent = sortedByDate(recent)
	s.TotalReviews = len(recent)

	counts := map[string]int{}
	for _, e := range recent {
		counts[e.ReviewDate.Format("2006-01-02")]++
	}
	for d, c := range counts {
		s.Daily = append(s.Daily, DailyCount{Date: d, Count: c})
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })

	s.SuccessRate = successRate(recent)
	s.DailyAverage = float64(len(recent)) / float64(min(days, len(counts)))

	if len(recent) >= 10 {
		half := len(recent) / 2
		s.ImprovementTrend = successRate(recent[half:]) - successRate(recent[:half])
	}
	return s
}

// IntervalRetention is recall success for one interval bucket.
type IntervalRetention struct {
	Interval      int     `json:"interval"`
	RetentionRate float64 `json:"retention_rate"`
	SampleSize    int     `json:"sample_size"`
}

// Efficiency aggregates how quickly items are learned.
type Efficiency struct {
	AverageReviewsToLearn float64             `json:"average_reviews_to_learn"`
	RetentionVsInterval   []IntervalRetention `json:"retention_vs_interval"`
}

// LearningEfficiency takes each item's log keyed by item id. An item counts
// as learned at its first Easy rating.
func LearningEfficiency(logs map[string][]fsrs.ReviewLogEntry) Efficiency {
	eff := Efficiency{RetentionVsInterval: []IntervalRetention{}}

	type bucket struct{ total, correct int }
	buckets := map[int]*bucket{}
	var learnedAfter []int

	for _, log := range logs {
		entries := sortedByDate(log)
		for i, e := range entries {
			if e.Grade == fsrs.Easy {
				learnedAfter = append(learnedAfter, i+1)
				break
			}
		}
		for i := 1; i < len(entries); i++ {
			gap := daysBetween(entries[i-1].ReviewDate, entries[i].ReviewDate)
			key := min(10, max(1, (gap/5)*5))
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			b.total++
			if entries[i].Grade.Success() {
				b.correct++
			}
		}
	}

	eff.AverageReviewsToLearn = meanInts(learnedAfter)
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		b := buckets[k]
		eff.RetentionVsInterval = append(eff.RetentionVsInterval, IntervalRetention{
			Interval:      k,
			RetentionRate: float64(b.correct) / float64(b.total),
			SampleSize:    b.total,
		})
	}
	return eff
}

func successRate(entries []fsrs.ReviewLogEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.Grade.Success() {
			n++
		}
	}
	return float64(n) / float64(len(entries))
}
