package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/store"
)

// ApplyRating rates an item, persists the new schedule and appends a review
// log entry in one transaction.
func (e *Engine) ApplyRating(ctx context.Context, itemID string, rating fsrs.Rating, now time.Time, responseTime *int) (fsrs.ScheduleResult, error) {
	unlock := e.locks.lock(itemID)
	defer unlock()

	it, st, err := e.itemState(ctx, itemID)
	if err != nil {
		return fsrs.ScheduleResult{}, err
	}

	next, res, entry := e.Scheduler.Apply(st, rating, now, responseTime)
	it.SetState(next)
	if err := e.DB.RecordReview(ctx, it, entry); err != nil {
		return fsrs.ScheduleResult{}, fmt.Errorf("record review %s: %w", itemID, err)
	}

	e.Logger.Debug("review applied",
		"item", itemID,
		"rating", res.Rating.String(),
		"stability", res.Stability,
		"difficulty", res.Difficulty,
		"interval_days", res.IntervalDays,
	)
	return res, nil
}

// PreviewItem returns what each rating would do to the item right now.
func (e *Engine) PreviewItem(ctx context.Context, itemID string, now time.Time) (map[fsrs.Rating]fsrs.ScheduleResult, error) {
	_, st, err := e.itemState(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return e.Scheduler.Preview(st, now), nil
}

// ScheduleDocument records a reading session of a document.
func (e *Engine) ScheduleDocument(ctx context.Context, docID string, rating fsrs.Rating, now time.Time) (fsrs.ScheduleResult, error) {
	unlock := e.locks.lock(docID)
	defer unlock()

	doc, err := e.DB.GetDocument(ctx, docID)
	if err != nil {
		return fsrs.ScheduleResult{}, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return fsrs.ScheduleResult{}, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	st, err := doc.State()
	if err != nil {
		return fsrs.ScheduleResult{}, err
	}

	next, res := e.Scheduler.ApplyDocument(st, rating, now)
	doc.SetState(next)
	if err := e.DB.SaveReading(ctx, doc); err != nil {
		return fsrs.ScheduleResult{}, fmt.Errorf("save reading %s: %w", docID, err)
	}

	e.Logger.Debug("reading scheduled", "document", docID, "reading_count", doc.ReadingCount, "interval_days", res.IntervalDays)
	return res, nil
}

func (e *Engine) itemState(ctx context.Context, itemID string) (*store.Item, fsrs.State, error) {
	it, err := e.DB.GetItem(ctx, itemID)
	if err != nil {
		return nil, fsrs.State{}, fmt.Errorf("load item: %w", err)
	}
	if it == nil {
		return nil, fsrs.State{}, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	st, err := it.State()
	if err != nil {
		return nil, fsrs.State{}, err
	}
	return it, st, nil
}
