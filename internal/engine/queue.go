package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/reprise/internal/queue"
	"github.com/lazypower/reprise/internal/store"
)

// SelectDue returns new items followed by due items, priority first.
func (e *Engine) SelectDue(ctx context.Context, f queue.Filter, limit int, now time.Time) ([]queue.Ref, error) {
	cands, err := e.itemCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return queue.SelectDue(cands, f, now, limit), nil
}

// NextDocuments returns up to count documents to read next.
func (e *Engine) NextDocuments(ctx context.Context, f queue.Filter, count int, now time.Time) ([]queue.Ref, error) {
	cands, err := e.documentCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return queue.SelectNextDocuments(cands, f, count, now), nil
}

// IncrementalQueue mixes due documents and extracts by priority.
func (e *Engine) IncrementalQueue(ctx context.Context, limit int, now time.Time) ([]queue.Ref, error) {
	docs, err := e.documentCandidates(ctx)
	if err != nil {
		return nil, err
	}
	exts, err := e.DB.ListExtracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("incremental queue: %w", err)
	}
	extCands := make([]queue.Candidate, len(exts))
	for i, x := range exts {
		extCands[i] = queue.Candidate{
			ID:         x.ID,
			Kind:       queue.KindExtract,
			Title:      x.Content,
			Priority:   x.Priority,
			ImportedAt: time.UnixMilli(x.CreatedAt).UTC(),
		}
	}
	return queue.IncrementalQueue(docs, extCands, limit, now), nil
}

// QueueStats summarises the item population's review load.
func (e *Engine) QueueStats(ctx context.Context, now time.Time) (queue.Stats, error) {
	cands, err := e.itemCandidates(ctx)
	if err != nil {
		return queue.Stats{}, err
	}
	return queue.Summarize(cands, now), nil
}

func (e *Engine) itemCandidates(ctx context.Context) ([]queue.Candidate, error) {
	items, err := e.DB.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("item candidates: %w", err)
	}
	out := make([]queue.Candidate, len(items))
	for i := range items {
		out[i] = itemCandidate(&items[i])
	}
	return out, nil
}

func (e *Engine) documentCandidates(ctx context.Context) ([]queue.Candidate, error) {
	docs, err := e.DB.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("document candidates: %w", err)
	}
	out := make([]queue.Candidate, len(docs))
	for i, d := range docs {
		var next *time.Time
		if d.NextReadingDate != nil {
			t := time.UnixMilli(*d.NextReadingDate).UTC()
			next = &t
		}
		out[i] = queue.Candidate{
			ID:         d.ID,
			Kind:       queue.KindDocument,
			Title:      d.Title,
			Priority:   d.Priority,
			NextReview: next,
			ImportedAt: time.UnixMilli(d.ImportedAt).UTC(),
			Category:   d.Category,
			Tags:       d.Tags,
		}
	}
	return out, nil
}

func itemCandidate(it *store.Item) queue.Candidate {
	return queue.Candidate{
		ID:         it.ID,
		Kind:       queue.KindItem,
		Title:      queue.Preview(it.Question, 100),
		Priority:   it.Priority,
		NextReview: it.NextReviewTime(),
		ImportedAt: time.UnixMilli(it.CreatedAt).UTC(),
		Category:   it.Category,
		Tags:       it.Tags,
	}
}
