package leech

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
)

// Strategy is a leech treatment.
type Strategy string

const (
	Relearn  Strategy = "relearn"
	Simplify Strategy = "simplify"
	Hint     Strategy = "hint"
	Mnemonic Strategy = "mnemonic"
)

const (
	severeStreak        = 4
	slowResponseMillis  = 10000
	recentFailHintRatio = 0.6
	simplifyDifficulty  = 0.2
)

var prefixes = map[Strategy]string{
	Relearn:  "[RELEARNING] ",
	Simplify: "[SIMPLIFIED] ",
	Hint:     "[HINT] ",
	Mnemonic: "[MNEMONIC] ",
}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prefixes[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	return st, nil
}

// Treatment is a suggested strategy with human readable context.
type Treatment struct {
	Strategy Strategy `json:"strategy"`
	Action   string   `json:"action"`
	Reason   string   `json:"reason"`
}

// Suggest picks the first matching strategy for a leech.
func Suggest(rec Record) Treatment {
	switch {
	case rec.Has(ConsecutiveFail) && rec.MaxConsecutiveFails >= severeStreak:
		return Treatment{
			Strategy: Relearn,
			Action:   "Reset item and rewrite it with simplified content",
			Reason:   "Multiple consecutive failures indicate fundamental misunderstanding",
		}
	case rec.MeanResponseTime > slowResponseMillis:
		return Treatment{
			Strategy: Simplify,
			Action:   "Break this item into multiple simpler items",
			Reason:   "Long response times suggest complexity issues",
		}
	case rec.Has(RecentFailRatio) && rec.RecentFailRatio > recentFailHintRatio:
		return Treatment{
			Strategy: Hint,
			Action:   "Add memory aids or hints to the question",
			Reason:   "Recent failures despite earlier success",
		}
	}
	return Treatment{
		Strategy: Mnemonic,
		Action:   "Apply a mnemonic technique or create a memorable association",
		Reason:   "General difficulties with retention",
	}
}

// Outcome is the state after a treatment. ClearLog tells the caller to drop
// the item's review history.
type Outcome struct {
	Question string
	State    fsrs.State
	ClearLog bool
}

// Apply rewrites question and state for strategy. Every treatment resets
// stability to 1.0 and schedules the item for tomorrow.
func Apply(question string, st fsrs.State, strategy Strategy, now time.Time) (Outcome, error) {
	prefix, ok := prefixes[strategy]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	next := st.Clone()
	out := Outcome{Question: question}
	if !strings.HasPrefix(question, prefix) {
		out.Question = prefix + question
	}

	switch strategy {
	case Relearn:
		next.IntervalDays = 0
		if next.Memory != nil {
			next.Memory.Reps = 0
		}
		out.ClearLog = true
	case Simplify:
		if next.Memory != nil {
			next.Memory.Difficulty = clamp(next.Memory.Difficulty-simplifyDifficulty, 1, 10)
		}
	}

	if next.Memory != nil {
		next.Memory.Stability = 1.0
	}
	due := now.Add(24 * time.Hour)
	next.NextReview = &due

	out.State = next
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
