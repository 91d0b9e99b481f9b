// Package leech finds items that keep failing and prescribes treatments.
package leech

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
)

var (
	// ErrInvalidConfig is returned when detector thresholds are unusable.
	ErrInvalidConfig = errors.New("leech: invalid config")
	// ErrUnknownStrategy is returned for a treatment name outside the four
	// known strategies.
	ErrUnknownStrategy = errors.New("leech: unknown treatment strategy")
)

// MinReviews is the history length an item needs before a full scan
// considers it.
const MinReviews = 3

// Heuristic names one of the detection rules.
type Heuristic string

const (
	TotalFailures   Heuristic = "total_failures"
	RecentFailRatio Heuristic = "recent_fail_ratio"
	ConsecutiveFail Heuristic = "consecutive_fails"
)

// Config holds detection thresholds.
type Config struct {
	LeechThreshold      int     `json:"leech_threshold" toml:"leech_threshold"`
	RecentReviewsWindow int     `json:"recent_reviews_window" toml:"recent_reviews_window"`
	MaxFailRatio        float64 `json:"max_fail_ratio" toml:"max_fail_ratio"`
	ConsecutiveFails    int     `json:"consecutive_fails" toml:"consecutive_fails"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		LeechThreshold:      5,
		RecentReviewsWindow: 10,
		MaxFailRatio:        0.4,
		ConsecutiveFails:    3,
	}
}

// Validate rejects thresholds that would flag everything or nothing.
func (c Config) Validate() error {
	switch {
	case c.LeechThreshold <= 0:
		return fmt.Errorf("%w: leech_threshold must be positive, got %d", ErrInvalidConfig, c.LeechThreshold)
	case c.RecentReviewsWindow <= 0:
		return fmt.Errorf("%w: recent_reviews_window must be positive, got %d", ErrInvalidConfig, c.RecentReviewsWindow)
	case c.MaxFailRatio <= 0 || c.MaxFailRatio > 1:
		return fmt.Errorf("%w: max_fail_ratio must be in (0, 1], got %v", ErrInvalidConfig, c.MaxFailRatio)
	case c.ConsecutiveFails <= 0:
		return fmt.Errorf("%w: consecutive_fails must be positive, got %d", ErrInvalidConfig, c.ConsecutiveFails)
	}
	return nil
}

// Record is the analysis of one leech. It is derived on demand and never
// persisted.
type Record struct {
	ItemID              string      `json:"item_id"`
	Question            string      `json:"question,omitempty"`
	TotalReviews        int         `json:"total_reviews"`
	FirstReviewed       time.Time   `json:"first_reviewed"`
	LastReviewed        time.Time   `json:"last_reviewed"`
	Triggered           []Heuristic `json:"triggered"`
	TotalFailures       int         `json:"total_failures"`
	RecentFailRatio     float64     `json:"recent_fail_ratio"`
	MaxConsecutiveFails int         `json:"max_consecutive_fails"`
	MeanResponseTime    float64     `json:"mean_response_time"` // ms, 0 when none recorded
}

// Has reports whether h fired for this record.
func (r Record) Has(h Heuristic) bool {
	for _, t := range r.Triggered {
		if t == h {
			return true
		}
	}
	return false
}

// Detector evaluates review histories against a validated Config.
type Detector struct {
	cfg Config
}

// NewDetector fails fast on an invalid config.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the thresholds in use.
func (d *Detector) Config() Config {
	return d.cfg
}

// Evaluate analyses one item's log. The second return value reports whether
// any heuristic fired. The log need not be sorted.
func (d *Detector) Evaluate(itemID string, log []fsrs.ReviewLogEntry) (Record, bool) {
	if len(log) == 0 {
		return Record{ItemID: itemID}, false
	}
	entries := sortedByDate(log)

	rec := Record{
		ItemID:        itemID,
		TotalReviews:  len(entries),
		FirstReviewed: entries[0].ReviewDate,
		LastReviewed:  entries[len(entries)-1].ReviewDate,
	}

	for _, e := range entries {
		if e.Grade == fsrs.Again {
			rec.TotalFailures++
		}
	}
	if rec.TotalFailures >= d.cfg.LeechThreshold {
		rec.Triggered = append(rec.Triggered, TotalFailures)
	}

	window := entries
	if len(window) > d.cfg.RecentReviewsWindow {
		window = window[len(window)-d.cfg.RecentReviewsWindow:]
	}
	recentFails := 0
	for _, e := range window {
		if !e.Grade.Success() {
			recentFails++
		}
	}
	rec.RecentFailRatio = float64(recentFails) / float64(len(window))
	if rec.RecentFailRatio >= d.cfg.MaxFailRatio {
		rec.Triggered = append(rec.Triggered, RecentFailRatio)
	}

	rec.MaxConsecutiveFails = longestFailRun(entries)
	if rec.MaxConsecutiveFails >= d.cfg.ConsecutiveFails {
		rec.Triggered = append(rec.Triggered, ConsecutiveFail)
	}

	rec.MeanResponseTime = meanResponseTime(entries)
	return rec, len(rec.Triggered) > 0
}

func longestFailRun(entries []fsrs.ReviewLogEntry) int {
	longest, run := 0, 0
	for _, e := range entries {
		if e.Grade.Success() {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

func meanResponseTime(entries []fsrs.ReviewLogEntry) float64 {
	var sum, n int
	for _, e := range entries {
		if e.ResponseTime != nil && *e.ResponseTime > 0 {
			sum += *e.ResponseTime
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func sortedByDate(log []fsrs.ReviewLogEntry) []fsrs.ReviewLogEntry {
	out := append([]fsrs.ReviewLogEntry(nil), log...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReviewDate.Before(out[j].ReviewDate)
	})
	return out
}
