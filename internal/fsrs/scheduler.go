package fsrs

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	minPriority = 1
	maxPriority = 100
	minEase     = 1.3
	minD        = 1.0
	maxD        = 10.0

	jitterLow  = 0.95
	jitterSpan = 0.10
)

// Scheduler applies ratings to states. It is safe for concurrent use; the
// only shared mutable piece is the jitter source, which is mutex guarded.
type Scheduler struct {
	params Parameters
	jitter bool
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRand injects the jitter source. Tests pass a seeded generator.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = rng }
}

// WithoutJitter disables interval jitter entirely.
func WithoutJitter() Option {
	return func(s *Scheduler) { s.jitter = false }
}

// WithLogger sets the logger used for arithmetic guard warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler builds a Scheduler around p. It panics if the weight vector
// does not have WeightCount entries.
func NewScheduler(p Parameters, opts ...Option) *Scheduler {
	p.mustValidate()
	s := &Scheduler{
		params: p,
		jitter: true,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Parameters returns the constants the scheduler was built with.
func (s *Scheduler) Parameters() Parameters {
	return s.params
}

// Apply rates a learning item. The input state is not mutated; the new state,
// the result summary and the log entry to append are returned.
func (s *Scheduler) Apply(st State, rating Rating, now time.Time, responseTime *int) (State, ScheduleResult, ReviewLogEntry) {
	rating = ClampRating(int(rating))
	next, res, actual := s.transition(st, rating, now, s.itemInitialDifficulty, s.jitterFactor())

	entry := ReviewLogEntry{
		ItemID:            st.ID,
		ReviewDate:        now,
		Grade:             rating,
		ResponseTime:      responseTime,
		ScheduledInterval: st.IntervalDays,
		ActualInterval:    actual,
	}
	return next, res, entry
}

// ApplyDocument rates a reading session. Documents start from a fixed
// difficulty instead of the per-rating table and count their readings.
func (s *Scheduler) ApplyDocument(st State, rating Rating, now time.Time) (State, ScheduleResult) {
	rating = ClampRating(int(rating))
	next, res, _ := s.transition(st, rating, now, s.documentInitialDifficulty, s.jitterFactor())
	next.ReadingCount++
	return next, res
}

// Preview returns the outcome of every rating without jitter. Nothing is
// mutated.
func (s *Scheduler) Preview(st State, now time.Time) map[Rating]ScheduleResult {
	out := make(map[Rating]ScheduleResult, 4)
	for r := Again; r <= Easy; r++ {
		_, res, _ := s.transition(st, r, now, s.itemInitialDifficulty, 1.0)
		out[r] = res
	}
	return out
}

func (s *Scheduler) itemInitialDifficulty(r Rating) float64 {
	return s.params.InitialDifficulty[r-1]
}

func (s *Scheduler) documentInitialDifficulty(Rating) float64 {
	return s.params.DocumentInitialDifficulty
}

func (s *Scheduler) transition(st State, rating Rating, now time.Time, initial func(Rating) float64, jitter float64) (State, ScheduleResult, *int) {
	w := s.params.W
	next := st.Clone()
	priority := clampInt(st.Priority, minPriority, maxPriority)

	var actual *int
	if st.LastReviewed != nil {
		days := WholeDays(*st.LastReviewed, now)
		actual = &days
	}

	var stability, difficulty float64
	reps := 0
	if st.Memory != nil {
		stability, difficulty, reps = st.Memory.Stability, st.Memory.Difficulty, st.Memory.Reps
	}

	var r float64
	if st.Memory != nil && stability > 0 && actual != nil {
		r = math.Exp(-float64(*actual) / stability)
	}

	if reps > 0 {
		difficulty = difficulty - w[6]*float64(rating-1)
	} else {
		difficulty = initial(rating)
	}
	difficulty = s.guard(st.ID, "difficulty", difficulty, minD, maxD)

	switch {
	case rating == Again:
		stability *= w[15]
		reps = 0
	case reps == 0:
		stability = w[1] * (w[0] + float64(priority)/100*s.params.PriorityWeight)
		reps++
	default:
		stability = nextStability(w, stability, difficulty, r, rating)
		reps++
	}
	stability = s.guard(st.ID, "stability", stability, 0, math.MaxFloat64)

	ivl := s.interval(stability, difficulty, priority, jitter)
	nextReview := now.Add(time.Duration(ivl) * 24 * time.Hour)

	ease := st.Easiness
	if ease == 0 {
		ease = s.params.InitialEase
	}
	q := float64(5 - rating)
	ease = math.Max(minEase, ease+0.1-q*(0.08+q*0.02))

	next.Priority = priority
	next.Memory = &Memory{Stability: stability, Difficulty: difficulty, Reps: reps}
	next.IntervalDays = ivl
	next.Easiness = ease
	reviewed := now
	next.LastReviewed = &reviewed
	next.NextReview = &nextReview

	res := ScheduleResult{
		ItemID:         st.ID,
		Rating:         rating,
		Stability:      stability,
		Difficulty:     difficulty,
		Reps:           reps,
		Retrievability: r,
		IntervalDays:   ivl,
		NextReview:     nextReview,
		Easiness:       ease,
	}
	return next, res, actual
}

// nextStability grows stability after a successful recall of a previously
// learned item.
func nextStability(w []float64, s, d, r float64, rating Rating) float64 {
	hardFactor := w[7+int(rating-1)]
	switch rating {
	case Hard:
		return s * (1 + r*d*w[2]*hardFactor)
	case Good:
		return s * (1 + r*d*w[2])
	case Easy:
		return s * (1 + r*d*w[2]*w[3])
	}
	return s * 0.2
}

func (s *Scheduler) interval(stability, difficulty float64, priority int, jitter float64) int {
	p := s.params
	ivl := -stability * math.Log(p.TargetRetention)
	ivl *= math.Pow(difficulty, -p.Theta)
	ivl *= 1 - (float64(priority-1)/99)*p.PriorityWeight
	ivl *= jitter
	if math.IsNaN(ivl) {
		ivl = float64(p.MinInterval)
	}
	ivl = math.Min(math.Max(ivl, float64(p.MinInterval)), float64(p.MaxInterval))
	return int(math.Round(ivl))
}

func (s *Scheduler) jitterFactor() float64 {
	if !s.jitter {
		return 1.0
	}
	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()
	return jitterLow + jitterSpan*u
}

// guard clamps v into [lo, hi]. Non-finite values are logged as anomalies and
// replaced by the nearest bound; NaN falls back to lo.
func (s *Scheduler) guard(id, field string, v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		s.logger.Warn("arithmetic guard", "item", id, "field", field, "value", "NaN", "clamped", lo)
		return lo
	case math.IsInf(v, 0):
		c := hi
		if v < 0 {
			c = lo
		}
		s.logger.Warn("arithmetic guard", "item", id, "field", field, "value", v, "clamped", c)
		return c
	case v < lo:
		if field == "stability" {
			s.logger.Warn("arithmetic guard", "item", id, "field", field, "value", v, "clamped", lo)
		}
		return lo
	case v > hi:
		return hi
	}
	return v
}

// WholeDays is the number of complete days between from and to. Clock skew
// that puts to before from counts as zero.
func WholeDays(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
