package analytics

import (
	"math"

	"github.com/lazypower/reprise/internal/fsrs"
)

const slowResponseCap = 15000 // ms

// EstimateDifficulty scores an item between 0 (trivial) and 1 (hardest).
// Later reviews weigh up to twice as much as the first, and slow answers
// scale the score by up to 1.2.
func EstimateDifficulty(log []fsrs.ReviewLogEntry) float64 {
	if len(log) == 0 {
		return 0.5
	}
	entries := sortedByDate(log)

	var weighted, total float64
	n := len(entries)
	for i, e := range entries {
		w := 1.0
		if n > 1 {
			w = 0.5 + 0.5*float64(i)/float64(n-1)
		}
		d := math.Max(0, 1-float64(e.Grade)/5)
		weighted += d * w
		total += w
	}
	difficulty := weighted / total

	var times []int
	for _, e := range entries {
		if e.ResponseTime != nil && *e.ResponseTime > 0 {
			times = append(times, *e.ResponseTime)
		}
	}
	if len(times) > 0 {
		avg := meanInts(times)
		difficulty *= 0.8 + (math.Min(avg, slowResponseCap)/slowResponseCap)*0.4
	}
	return math.Min(1, math.Max(0, difficulty))
}
