// Package queue orders reviewable entities into due sets and reading queues.
// Every function works on a snapshot and never mutates its input.
package queue

import (
	"sort"
	"strings"
	"time"
)

// Kind distinguishes the entities that can appear in a queue.
type Kind string

const (
	KindItem     Kind = "item"
	KindDocument Kind = "document"
	KindExtract  Kind = "extract"
)

// Candidate is the read-only view of an entity the selectors need.
type Candidate struct {
	ID         string
	Kind       Kind
	Title      string
	Priority   int
	NextReview *time.Time
	ImportedAt time.Time
	Category   string
	Tags       []string
}

// Filter narrows a population before ordering. Zero value matches all.
type Filter struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Ref is one entry of a selected queue.
type Ref struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Title      string     `json:"title,omitempty"`
	Priority   int        `json:"priority"`
	NextReview *time.Time `json:"next_review,omitempty"`
	New        bool       `json:"new"`
}

// Matches reports whether c satisfies the filter. Category is exact; each
// requested tag must be a case-insensitive substring of one of c's tags.
func (f Filter) Matches(c Candidate) bool {
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	for _, want := range f.Tags {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		found := false
		for _, tag := range c.Tags {
			if strings.Contains(strings.ToLower(tag), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SelectDue returns never-reviewed candidates first, then those due at or
// before now. Each group is ordered by priority desc, then next review asc.
// A limit of zero or less returns everything.
func SelectDue(candidates []Candidate, f Filter, now time.Time, limit int) []Ref {
	var fresh, due []Candidate
	for _, c := range candidates {
		if !f.Matches(c) {
			continue
		}
		switch {
		case c.NextReview == nil:
			fresh = append(fresh, c)
		case !c.NextReview.After(now):
			due = append(due, c)
		}
	}
	sortByPriority(fresh)
	sortByPriority(due)

	out := make([]Ref, 0, len(fresh)+len(due))
	for _, c := range fresh {
		out = append(out, toRef(c))
	}
	for _, c := range due {
		out = append(out, toRef(c))
	}
	return truncate(out, limit)
}

// SelectNextDocuments picks up to count documents: due ones first by
// priority desc and next reading asc, then never-read ones by priority desc
// and most recently imported first.
func SelectNextDocuments(candidates []Candidate, f Filter, count int, now time.Time) []Ref {
	if count <= 0 {
		return nil
	}
	var due, unread []Candidate
	for _, c := range candidates {
		if !f.Matches(c) {
			continue
		}
		switch {
		case c.NextReview == nil:
			unread = append(unread, c)
		case !c.NextReview.After(now):
			due = append(due, c)
		}
	}
	sortByPriority(due)
	sort.SliceStable(unread, func(i, j int) bool {
		a, b := unread[i], unread[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.ImportedAt.Equal(b.ImportedAt) {
			return a.ImportedAt.After(b.ImportedAt)
		}
		return a.ID < b.ID
	})

	out := make([]Ref, 0, count)
	for _, c := range due {
		if len(out) == count {
			return out
		}
		out = append(out, toRef(c))
	}
	for _, c := range unread {
		if len(out) == count {
			break
		}
		out = append(out, toRef(c))
	}
	return out
}

// IncrementalQueue interleaves due documents and extracts by priority.
// Both sources contribute at most limit entries before the merged list is
// re-sorted and truncated.
func IncrementalQueue(documents, extracts []Candidate, limit int, now time.Time) []Ref {
	if limit <= 0 {
		return nil
	}
	var docs []Candidate
	for _, d := range documents {
		if d.NextReview == nil || !d.NextReview.After(now) {
			docs = append(docs, d)
		}
	}
	docs = topByPriority(docs, limit)
	ext := topByPriority(append([]Candidate(nil), extracts...), limit)

	merged := make([]Ref, 0, len(docs)+len(ext))
	for _, c := range docs {
		merged = append(merged, toRef(c))
	}
	for _, c := range ext {
		r := toRef(c)
		r.Title = Preview(c.Title, previewLen)
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority > merged[j].Priority
	})
	return truncate(merged, limit)
}

func topByPriority(cs []Candidate, limit int) []Candidate {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Priority > cs[j].Priority
	})
	if len(cs) > limit {
		cs = cs[:limit]
	}
	return cs
}

// sortByPriority orders by priority desc, next review asc, id asc. The id
// tie-break keeps repeated selections identical.
func sortByPriority(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.NextReview != nil && b.NextReview != nil && !a.NextReview.Equal(*b.NextReview) {
			return a.NextReview.Before(*b.NextReview)
		}
		return a.ID < b.ID
	})
}

func toRef(c Candidate) Ref {
	return Ref{
		ID:         c.ID,
		Kind:       c.Kind,
		Title:      c.Title,
		Priority:   c.Priority,
		NextReview: c.NextReview,
		New:        c.NextReview == nil,
	}
}

func truncate(refs []Ref, limit int) []Ref {
	if limit > 0 && len(refs) > limit {
		return refs[:limit]
	}
	return refs
}
