// Package fsrs implements the FSRS-style memory model used to schedule
// learning items and documents: stability and difficulty are estimated from
// the review history and the next interval is placed where retrievability
// falls to the target.
package fsrs

import "fmt"

// WeightCount is the required length of Parameters.W.
const WeightCount = 17

// Parameters holds the fixed model constants. They are passed explicitly to
// every scheduler, maintainer and engine; there is no package-level singleton.
type Parameters struct {
	W []float64 `json:"w" toml:"w"`

	// InitialDifficulty is indexed by rating-1 and used on a first review.
	InitialDifficulty [4]float64 `json:"initial_difficulty" toml:"initial_difficulty"`

	Theta           float64 `json:"theta" toml:"theta"`
	TargetRetention float64 `json:"target_retention" toml:"target_retention"`
	MinInterval     int     `json:"min_interval" toml:"min_interval"`
	MaxInterval     int     `json:"max_interval" toml:"max_interval"`
	PriorityWeight  float64 `json:"priority_weight" toml:"priority_weight"`

	PriorityDecay          float64 `json:"priority_decay" toml:"priority_decay"`                     // per day without access
	PriorityBoostHighlight float64 `json:"priority_boost_highlight" toml:"priority_boost_highlight"` // per highlight in the last 7 days
	PriorityBoostExtract   float64 `json:"priority_boost_extract" toml:"priority_boost_extract"`     // per extract in the last 7 days

	InitialEase               float64 `json:"initial_ease" toml:"initial_ease"`
	DocumentInitialDifficulty float64 `json:"document_initial_difficulty" toml:"document_initial_difficulty"`
}

// DefaultParameters returns the stock constants.
func DefaultParameters() Parameters {
	return Parameters{
		W: []float64{
			0.4, 0.6, 2.4, 5.8, 4.93, 0.94, 0.86, 0.01, 1.49,
			0.14, 0.94, 2.18, 0.05, 0.34, 1.26, 0.29, 2.61,
		},
		InitialDifficulty:         [4]float64{0.7, 1.5, 2.0, 2.5},
		Theta:                     0.75,
		TargetRetention:           0.9,
		MinInterval:               1,
		MaxInterval:               3650,
		PriorityWeight:            0.5,
		PriorityDecay:             0.01,
		PriorityBoostHighlight:    5,
		PriorityBoostExtract:      8,
		InitialEase:               2.5,
		DocumentInitialDifficulty: 5.0,
	}
}

// mustValidate panics on a malformed weight vector. A wrong length is a
// programming error, not a runtime condition.
func (p Parameters) mustValidate() {
	if len(p.W) != WeightCount {
		panic(fmt.Sprintf("fsrs: weight vector has %d entries, want %d", len(p.W), WeightCount))
	}
}

// Validate reports parameter values that would make the model meaningless.
func (p Parameters) Validate() error {
	if len(p.W) != WeightCount {
		return fmt.Errorf("%w: weight vector has %d entries, want %d", ErrInvalidParameters, len(p.W), WeightCount)
	}
	if p.TargetRetention <= 0 || p.TargetRetention >= 1 {
		return fmt.Errorf("%w: target retention %v not in (0, 1)", ErrInvalidParameters, p.TargetRetention)
	}
	if p.MinInterval < 1 || p.MaxInterval < p.MinInterval {
		return fmt.Errorf("%w: interval bounds [%d, %d]", ErrInvalidParameters, p.MinInterval, p.MaxInterval)
	}
	if p.Theta < 0 {
		return fmt.Errorf("%w: theta %v is negative", ErrInvalidParameters, p.Theta)
	}
	return nil
}
