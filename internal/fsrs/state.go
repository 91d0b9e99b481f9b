package fsrs

import "time"

// Memory is the model estimate for a reviewed item. It is either entirely
// present or entirely absent: a nil *Memory means the item was never reviewed.
type Memory struct {
	Stability  float64 `json:"stability"`
	Difficulty float64 `json:"difficulty"`
	Reps       int     `json:"reps"`
}

// State is the scheduling state of a learning item or a document.
type State struct {
	ID       string  `json:"id"`
	Priority int     `json:"priority"`
	Memory   *Memory `json:"memory,omitempty"`

	// IntervalDays is the interval chosen by the last review.
	IntervalDays int     `json:"interval_days"`
	Easiness     float64 `json:"easiness"`

	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	NextReview   *time.Time `json:"next_review,omitempty"`

	// ReadingCount is only advanced for documents.
	ReadingCount int `json:"reading_count,omitempty"`
}

// Reviewed reports whether the state has been through at least one review.
func (s State) Reviewed() bool {
	return s.Memory != nil
}

// Clone returns a deep copy so callers can mutate it freely.
func (s State) Clone() State {
	c := s
	if s.Memory != nil {
		m := *s.Memory
		c.Memory = &m
	}
	if s.LastReviewed != nil {
		t := *s.LastReviewed
		c.LastReviewed = &t
	}
	if s.NextReview != nil {
		t := *s.NextReview
		c.NextReview = &t
	}
	return c
}

// ReviewLogEntry records one review. Entries are append-only.
type ReviewLogEntry struct {
	ID                int64     `json:"id,omitempty"`
	ItemID            string    `json:"item_id"`
	ReviewDate        time.Time `json:"review_date"`
	Grade             Rating    `json:"grade"`
	ResponseTime      *int      `json:"response_time,omitempty"` // milliseconds
	ScheduledInterval int       `json:"scheduled_interval"`
	ActualInterval    *int      `json:"actual_interval,omitempty"` // whole days since the previous review
}

// ScheduleResult describes the outcome of one transition.
type ScheduleResult struct {
	ItemID         string    `json:"item_id"`
	Rating         Rating    `json:"rating"`
	Stability      float64   `json:"stability"`
	Difficulty     float64   `json:"difficulty"`
	Reps           int       `json:"reps"`
	Retrievability float64   `json:"retrievability"`
	IntervalDays   int       `json:"interval_days"`
	NextReview     time.Time `json:"next_review"`
	Easiness       float64   `json:"easiness"`
}
