package queue

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func ids(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

func TestSelectDueOrdering(t *testing.T) {
	cands := []Candidate{
		{ID: "due-low", Priority: 10, NextReview: at(-time.Hour)},
		{ID: "new-low", Priority: 20},
		{ID: "future", Priority: 99, NextReview: at(time.Hour)},
		{ID: "due-high-late", Priority: 90, NextReview: at(-time.Hour)},
		{ID: "due-high-early", Priority: 90, NextReview: at(-48 * time.Hour)},
		{ID: "new-high", Priority: 70},
	}

	got := SelectDue(cands, Filter{}, now, 0)
	assert.Equal(t, []string{"new-high", "new-low", "due-high-early", "due-high-late", "due-low"}, ids(got))
	assert.True(t, got[0].New)
	assert.False(t, got[2].New)
}

func TestSelectDueScenario(t *testing.T) {
	cands := []Candidate{
		{ID: "A", Priority: 80},
		{ID: "B", Priority: 90, NextReview: at(-24 * time.Hour)},
		{ID: "C", Priority: 50, NextReview: at(24 * time.Hour)},
	}
	assert.Equal(t, []string{"A", "B"}, ids(SelectDue(cands, Filter{}, now, 10)))
}

func TestSelectDueNewBeforeDue(t *testing.T) {
	var cands []Candidate
	for i := 0; i < 5; i++ {
		cands = append(cands,
			Candidate{ID: "new-" + string(rune('a'+i)), Priority: 1 + i*10},
			Candidate{ID: "due-" + string(rune('a'+i)), Priority: 100 - i*5, NextReview: at(-time.Duration(i+1) * time.Hour)},
		)
	}

	got := SelectDue(cands, Filter{}, now, 0)
	require.Len(t, got, 10)
	for i, r := range got {
		assert.Equal(t, i < 5, r.New, "position %d (%s)", i, r.ID)
	}
	assert.Equal(t, "new-e", got[0].ID)
	assert.Equal(t, "due-a", got[5].ID)
}

func TestSelectDueLimitAndFilter(t *testing.T) {
	cands := []Candidate{
		{ID: "a", Priority: 50, Category: "math", Tags: []string{"Algebra"}},
		{ID: "b", Priority: 60, Category: "math", Tags: []string{"geometry"}},
		{ID: "c", Priority: 70, Category: "history"},
	}

	got := SelectDue(cands, Filter{Category: "math"}, now, 1)
	assert.Equal(t, []string{"b"}, ids(got))

	got = SelectDue(cands, Filter{Tags: []string{"alg"}}, now, 0)
	assert.Equal(t, []string{"a"}, ids(got))

	got = SelectDue(cands, Filter{Tags: []string{"alg", "geo"}}, now, 0)
	assert.Empty(t, got)
}

func TestSelectDueIsIdempotent(t *testing.T) {
	cands := []Candidate{
		{ID: "x", Priority: 50},
		{ID: "y", Priority: 50},
		{ID: "z", Priority: 50, NextReview: at(-time.Hour)},
		{ID: "w", Priority: 50, NextReview: at(-time.Hour)},
	}
	first := SelectDue(cands, Filter{}, now, 0)
	second := SelectDue(cands, Filter{}, now, 0)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"x", "y", "w", "z"}, ids(first))
}

func TestSelectNextDocuments(t *testing.T) {
	cands := []Candidate{
		{ID: "due-1", Kind: KindDocument, Priority: 40, NextReview: at(-time.Hour)},
		{ID: "due-2", Kind: KindDocument, Priority: 60, NextReview: at(-time.Hour)},
		{ID: "unread-old", Kind: KindDocument, Priority: 50, ImportedAt: now.Add(-72 * time.Hour)},
		{ID: "unread-new", Kind: KindDocument, Priority: 50, ImportedAt: now.Add(-time.Hour)},
		{ID: "later", Kind: KindDocument, Priority: 100, NextReview: at(time.Hour)},
	}

	got := SelectNextDocuments(cands, Filter{}, 3, now)
	assert.Equal(t, []string{"due-2", "due-1", "unread-new"}, ids(got))

	assert.Nil(t, SelectNextDocuments(cands, Filter{}, 0, now))
	assert.Len(t, SelectNextDocuments(cands, Filter{}, 1, now), 1)
}

func TestIncrementalQueue(t *testing.T) {
	docs := []Candidate{
		{ID: "d1", Kind: KindDocument, Priority: 30},
		{ID: "d2", Kind: KindDocument, Priority: 90, NextReview: at(-time.Hour)},
		{ID: "d3", Kind: KindDocument, Priority: 95, NextReview: at(time.Hour)},
	}
	extracts := []Candidate{
		{ID: "e1", Kind: KindExtract, Priority: 80, Title: strings.Repeat("word ", 40)},
		{ID: "e2", Kind: KindExtract, Priority: 10, Title: "short"},
	}

	got := IncrementalQueue(docs, extracts, 3, now)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"d2", "e1", "d1"}, ids(got))
	assert.True(t, strings.HasSuffix(got[1].Title, "..."))
	assert.LessOrEqual(t, len(got[1].Title), 103)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("  short ", 10))
	assert.Equal(t, "hello...", Preview("hello world", 8))
	out := Preview(strings.Repeat("é", 10), 5)
	assert.Equal(t, "éé...", out)
}

func TestSummarize(t *testing.T) {
	cands := []Candidate{
		{ID: "n", Priority: 90},
		{ID: "overdue", Priority: 50, NextReview: at(-72 * time.Hour)},
		{ID: "today", Priority: 50, NextReview: at(2 * time.Hour)},
		{ID: "week", Priority: 10, NextReview: at(72 * time.Hour)},
		{ID: "later", Priority: 0, NextReview: at(30 * 24 * time.Hour)},
	}
	st := Summarize(cands, now)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 1, st.New)
	assert.Equal(t, 1, st.Overdue)
	assert.Equal(t, 2, st.DueToday)
	assert.Equal(t, 3, st.DueThisWeek)
	assert.Equal(t, 1, st.HighPriority)
	assert.Equal(t, 40, st.AvgPriority)
}
