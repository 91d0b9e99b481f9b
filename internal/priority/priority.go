// Package priority decays priorities of neglected material and boosts
// material that is being actively worked.
//
// Algorithm:
//   - decay: priority -= days since last access * PriorityDecay (skipped when
//     the last access is unknown)
//   - boost: priority += highlights in the last 7 days * PriorityBoostHighlight
//     + extracts in the last 7 days * PriorityBoostExtract
//   - the value is clamped to [1, 100] after each step and rounded at the end
//   - runs on server startup and then daily via engine.StartMaintenance
package priority

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
)

// ActivityWindow is how far back highlights and extracts count as a boost.
const ActivityWindow = 7 * 24 * time.Hour

const (
	minPriority = 1
	maxPriority = 100
)

// Target is one entity whose priority may change.
type Target struct {
	ID           string
	Kind         string
	Priority     int
	LastAccessed *time.Time
}

// Activity counts recent engagement with a target.
type Activity struct {
	Highlights int
	Extracts   int
}

// Maintainer applies decay and boost using explicit parameters.
type Maintainer struct {
	params fsrs.Parameters
}

// NewMaintainer returns a Maintainer bound to p.
func NewMaintainer(p fsrs.Parameters) *Maintainer {
	return &Maintainer{params: p}
}

// Adjust returns the new priority for t.
func (m *Maintainer) Adjust(t Target, act Activity, now time.Time) int {
	p := clamp(float64(t.Priority))

	if t.LastAccessed != nil {
		days := fsrs.WholeDays(*t.LastAccessed, now)
		p = clamp(p - float64(days)*m.params.PriorityDecay)
	}

	boost := float64(act.Highlights)*m.params.PriorityBoostHighlight +
		float64(act.Extracts)*m.params.PriorityBoostExtract
	p = clamp(p + boost)

	return int(math.Round(p))
}

// Source supplies activity and persists changes during Run. Errors are
// counted per target and never abort the pass.
type Source interface {
	Activity(ctx context.Context, t Target, since time.Time) (Activity, error)
	SetPriority(ctx context.Context, t Target, priority int) error
}

// Report summarises one maintenance pass.
type Report struct {
	Scanned int      `json:"scanned"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Run adjusts every target. Targets whose activity lookup or write fails are
// skipped and counted. Only a cancelled context stops the pass early.
func (m *Maintainer) Run(ctx context.Context, targets []Target, src Source, now time.Time) (Report, error) {
	var rep Report
	since := now.Add(-ActivityWindow)

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Scanned++

		act, err := src.Activity(ctx, t, since)
		if err != nil {
			rep.skip(t, err)
			continue
		}
		next := m.Adjust(t, act, now)
		if next == t.Priority {
			continue
		}
		if err := src.SetPriority(ctx, t, next); err != nil {
			rep.skip(t, err)
			continue
		}
		rep.Updated++
	}
	return rep, nil
}

func (r *Report) skip(t Target, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %v", t.Kind, t.ID, err))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return minPriority
	}
	return math.Min(math.Max(v, minPriority), maxPriority)
}
