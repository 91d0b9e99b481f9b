package fsrs

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedScheduler(t *testing.T) *Scheduler {
	t.Helper()
	return NewScheduler(DefaultParameters(), WithoutJitter())
}

func reviewed(stability, difficulty float64, reps int, last time.Time) State {
	return State{
		ID:           "item-1",
		Priority:     50,
		Memory:       &Memory{Stability: stability, Difficulty: difficulty, Reps: reps},
		IntervalDays: 7,
		Easiness:     2.5,
		LastReviewed: &last,
	}
}

func TestNewSchedulerPanicsOnShortWeights(t *testing.T) {
	p := DefaultParameters()
	p.W = p.W[:16]
	assert.Panics(t, func() { NewScheduler(p) })
}

func TestDefaultParametersValidate(t *testing.T) {
	require.NoError(t, DefaultParameters().Validate())

	p := DefaultParameters()
	p.TargetRetention = 1
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
}

func TestFirstReviewGood(t *testing.T) {
	s := fixedScheduler(t)
	st := State{ID: "new", Priority: 50}

	next, res, entry := s.Apply(st, Good, t0, nil)

	w := DefaultParameters().W
	assert.InDelta(t, w[1]*(w[0]+0.25), res.Stability, 1e-9)
	assert.InDelta(t, 0.39, res.Stability, 1e-9)
	assert.Equal(t, 2.0, res.Difficulty)
	assert.Equal(t, 1, res.Reps)
	assert.Equal(t, 1, res.IntervalDays)
	assert.Equal(t, t0.Add(24*time.Hour), res.NextReview)
	assert.Zero(t, res.Retrievability)

	require.NotNil(t, next.Memory)
	assert.Equal(t, res.Stability, next.Memory.Stability)
	require.NotNil(t, next.LastReviewed)
	assert.Equal(t, t0, *next.LastReviewed)

	assert.Nil(t, entry.ActualInterval)
	assert.Equal(t, 0, entry.ScheduledInterval)
	assert.Equal(t, Good, entry.Grade)
	assert.Equal(t, "new", entry.ItemID)

	// input untouched
	assert.Nil(t, st.Memory)
}

func TestFirstReviewAgainClampsDifficulty(t *testing.T) {
	s := fixedScheduler(t)
	_, res, _ := s.Apply(State{ID: "x", Priority: 10}, Again, t0, nil)

	// table value 0.7 lies below the difficulty floor
	assert.Equal(t, 1.0, res.Difficulty)
	assert.Equal(t, 0.0, res.Stability)
	assert.Equal(t, 0, res.Reps)
	assert.Equal(t, 1, res.IntervalDays)
}

func TestLapseResetsReps(t *testing.T) {
	s := fixedScheduler(t)
	st := reviewed(10, 5, 3, t0.Add(-10*24*time.Hour))

	_, res, entry := s.Apply(st, Again, t0, nil)

	w := DefaultParameters().W
	assert.InDelta(t, 10*w[15], res.Stability, 1e-9)
	assert.Equal(t, 0, res.Reps)
	assert.Equal(t, 5.0, res.Difficulty)
	require.NotNil(t, entry.ActualInterval)
	assert.Equal(t, 10, *entry.ActualInterval)
	assert.Equal(t, 7, entry.ScheduledInterval)
}

func TestSuccessfulRecallGrowsStability(t *testing.T) {
	s := fixedScheduler(t)
	st := reviewed(10, 5, 3, t0.Add(-10*24*time.Hour))
	w := DefaultParameters().W
	r := math.Exp(-1)

	cases := []struct {
		rating Rating
		want   func(d float64) float64
	}{
		{Hard, func(d float64) float64 { return 10 * (1 + r*d*w[2]*w[8]) }},
		{Good, func(d float64) float64 { return 10 * (1 + r*d*w[2]) }},
		{Easy, func(d float64) float64 { return 10 * (1 + r*d*w[2]*w[3]) }},
	}
	for _, tc := range cases {
		t.Run(tc.rating.String(), func(t *testing.T) {
			_, res, _ := s.Apply(st, tc.rating, t0, nil)
			wantD := math.Min(math.Max(5-w[6]*float64(tc.rating-1), 1), 10)
			assert.InDelta(t, wantD, res.Difficulty, 1e-9)
			assert.InDelta(t, tc.want(wantD), res.Stability, 1e-9)
			assert.Equal(t, 4, res.Reps)
			assert.InDelta(t, r, res.Retrievability, 1e-9)
		})
	}
}

func TestRatingClampingEquivalence(t *testing.T) {
	s := fixedScheduler(t)
	st := reviewed(4, 6, 2, t0.Add(-3*24*time.Hour))

	_, high, _ := s.Apply(st, Rating(7), t0, nil)
	_, easy, _ := s.Apply(st, Easy, t0, nil)
	assert.Equal(t, easy, high)

	_, low, _ := s.Apply(st, Rating(-2), t0, nil)
	_, again, _ := s.Apply(st, Again, t0, nil)
	assert.Equal(t, again, low)
}

func TestAgainNeverIncreasesStability(t *testing.T) {
	s := fixedScheduler(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		before := rng.Float64() * 500
		st := reviewed(before, 1+rng.Float64()*9, rng.Intn(20), t0.Add(-time.Duration(rng.Intn(400))*24*time.Hour))
		_, res, _ := s.Apply(st, Again, t0, nil)
		assert.LessOrEqual(t, res.Stability, before)
	}
}

func TestBoundsHoldForRandomInput(t *testing.T) {
	s := NewScheduler(DefaultParameters(), WithRand(rand.New(rand.NewSource(42))))
	rng := rand.New(rand.NewSource(99))
	p := DefaultParameters()

	for i := 0; i < 500; i++ {
		st := State{ID: "r", Priority: rng.Intn(300) - 100}
		if rng.Intn(3) > 0 {
			last := t0.Add(-time.Duration(rng.Intn(5000)) * time.Hour)
			st.LastReviewed = &last
			st.Memory = &Memory{
				Stability:  rng.Float64() * 10000,
				Difficulty: rng.Float64()*20 - 5,
				Reps:       rng.Intn(30),
			}
			st.Easiness = 1.3 + rng.Float64()*2
		}
		_, res, _ := s.Apply(st, Rating(rng.Intn(8)-2), t0, nil)

		assert.GreaterOrEqual(t, res.IntervalDays, p.MinInterval)
		assert.LessOrEqual(t, res.IntervalDays, p.MaxInterval)
		assert.GreaterOrEqual(t, res.Difficulty, 1.0)
		assert.LessOrEqual(t, res.Difficulty, 10.0)
		assert.GreaterOrEqual(t, res.Stability, 0.0)
		assert.GreaterOrEqual(t, res.Easiness, 1.3)
		assert.True(t, res.NextReview.After(t0))
	}
}

func TestJitterStaysWithinFivePercent(t *testing.T) {
	s := NewScheduler(DefaultParameters(), WithRand(rand.New(rand.NewSource(1))))
	// zero elapsed days gives r = 1; Good drives difficulty to the floor of 1
	st := reviewed(1000, 1, 1, t0)
	st.Priority = 1
	grown := 1000 * (1 + 2.4)
	base := -grown * math.Log(0.9)

	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		_, res, _ := s.Apply(st, Good, t0, nil)
		assert.InDelta(t, grown, res.Stability, 1e-6)
		assert.GreaterOrEqual(t, float64(res.IntervalDays), math.Floor(base*0.95))
		assert.LessOrEqual(t, float64(res.IntervalDays), math.Ceil(base*1.05))
		seen[res.IntervalDays] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should spread intervals")
}

func TestEasinessUpdate(t *testing.T) {
	s := fixedScheduler(t)
	_, res, _ := s.Apply(State{ID: "e", Priority: 50}, Good, t0, nil)
	assert.InDelta(t, 2.36, res.Easiness, 1e-9)

	st := State{ID: "e", Priority: 50, Easiness: 1.35}
	_, res, _ = s.Apply(st, Again, t0, nil)
	assert.Equal(t, 1.3, res.Easiness)
}

func TestApplyDocument(t *testing.T) {
	s := fixedScheduler(t)
	doc := State{ID: "doc", Priority: 80}

	next, res := s.ApplyDocument(doc, Good, t0)
	assert.Equal(t, 5.0, res.Difficulty)
	assert.Equal(t, 1, next.ReadingCount)
	assert.Equal(t, 1, res.Reps)

	next, _ = s.ApplyDocument(next, Hard, t0.Add(48*time.Hour))
	assert.Equal(t, 2, next.ReadingCount)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	s := NewScheduler(DefaultParameters())
	st := reviewed(20, 4, 5, t0.Add(-15*24*time.Hour))

	out := s.Preview(st, t0)
	require.Len(t, out, 4)
	assert.LessOrEqual(t, out[Again].IntervalDays, out[Good].IntervalDays)
	assert.LessOrEqual(t, out[Good].IntervalDays, out[Easy].IntervalDays)
	assert.Equal(t, 20.0, st.Memory.Stability)
}

func TestNegativeStabilityIsGuarded(t *testing.T) {
	s := fixedScheduler(t)
	st := reviewed(-5, 5, 2, t0.Add(-2*24*time.Hour))
	_, res, _ := s.Apply(st, Again, t0, nil)
	assert.Equal(t, 0.0, res.Stability)
	assert.Equal(t, 1, res.IntervalDays)
}

func TestWholeDays(t *testing.T) {
	assert.Equal(t, 0, WholeDays(t0, t0.Add(23*time.Hour)))
	assert.Equal(t, 1, WholeDays(t0, t0.Add(25*time.Hour)))
	assert.Equal(t, 0, WholeDays(t0, t0.Add(-72*time.Hour)))
}

func TestParseRating(t *testing.T) {
	r, err := ParseRating("Good")
	require.NoError(t, err)
	assert.Equal(t, Good, r)

	r, err = ParseRating("9")
	require.NoError(t, err)
	assert.Equal(t, Easy, r)

	_, err = ParseRating("great")
	assert.ErrorIs(t, err, ErrInvalidRating)
}
