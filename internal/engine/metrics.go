package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/reprise/internal/analytics"
)

// ItemMetrics computes analytics for one item's history.
func (e *Engine) ItemMetrics(ctx context.Context, itemID string, now time.Time) (analytics.ItemMetrics, error) {
	it, err := e.DB.GetItem(ctx, itemID)
	if err != nil {
		return analytics.ItemMetrics{}, fmt.Errorf("load item: %w", err)
	}
	if it == nil {
		return analytics.ItemMetrics{}, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	log, err := e.DB.ReviewLog(ctx, itemID)
	if err != nil {
		return analytics.ItemMetrics{}, err
	}
	return analytics.Compute(itemID, log, it.Stability, now), nil
}

// ItemDifficulty estimates how hard an item has been, 0 (easy) to 1.
func (e *Engine) ItemDifficulty(ctx context.Context, itemID string) (float64, error) {
	it, err := e.DB.GetItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("load item: %w", err)
	}
	if it == nil {
		return 0, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	log, err := e.DB.ReviewLog(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return analytics.EstimateDifficulty(log), nil
}

// SessionSummary summarises reviews made in the last days days.
func (e *Engine) SessionSummary(ctx context.Context, days int, now time.Time) (analytics.Session, error) {
	entries, err := e.DB.ReviewsSince(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		return analytics.Session{}, err
	}
	return analytics.SummarizeSession(entries, days, now), nil
}

// Efficiency reports reviews-to-mastery and retention by interval across
// every reviewed item.
func (e *Engine) Efficiency(ctx context.Context) (analytics.Efficiency, error) {
	logs, err := e.DB.ReviewLogsByItem(ctx, 1)
	if err != nil {
		return analytics.Efficiency{}, err
	}
	return analytics.LearningEfficiency(logs), nil
}
