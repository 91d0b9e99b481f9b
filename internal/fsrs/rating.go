package fsrs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidParameters is returned by Parameters.Validate.
	ErrInvalidParameters = errors.New("fsrs: invalid parameters")
	// ErrInvalidRating is returned when a rating name cannot be parsed.
	ErrInvalidRating = errors.New("fsrs: invalid rating")
)

// Rating is the recall grade submitted for a review.
type Rating int

const (
	Again Rating = iota + 1
	Hard
	Good
	Easy
)

var ratingNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

// ClampRating maps any integer onto Again..Easy. Out-of-range input is
// clamped, never rejected.
func ClampRating(v int) Rating {
	switch {
	case v < int(Again):
		return Again
	case v > int(Easy):
		return Easy
	}
	return Rating(v)
}

// ParseRating accepts either a name ("good") or a number ("3").
func ParseRating(s string) (Rating, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r := Again; r <= Easy; r++ {
		if ratingNames[r] == s {
			return r, nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
		return ClampRating(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
}

// IsValid reports whether r is within Again..Easy.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// Success reports whether the rating counts as a successful recall.
func (r Rating) Success() bool {
	return r >= Good
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("rating(%d)", int(r))
}
