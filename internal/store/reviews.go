package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/reprise/internal/fsrs"
)

type reviewRow struct {
	ID                int64  `db:"id"`
	ItemID            string `db:"item_id"`
	ReviewDate        int64  `db:"review_date"`
	Grade             int    `db:"grade"`
	ResponseTime      *int   `db:"response_time"`
	ScheduledInterval int    `db:"scheduled_interval"`
	ActualInterval    *int   `db:"actual_interval"`
}

func (r reviewRow) entry() fsrs.ReviewLogEntry {
	return fsrs.ReviewLogEntry{
		ID:                r.ID,
		ItemID:            r.ItemID,
		ReviewDate:        fromMillis(r.ReviewDate),
		Grade:             fsrs.ClampRating(r.Grade),
		ResponseTime:      r.ResponseTime,
		ScheduledInterval: r.ScheduledInterval,
		ActualInterval:    r.ActualInterval,
	}
}

const reviewColumns = "id, item_id, review_date, grade, response_time, scheduled_interval, actual_interval"

// ReviewLog returns an item's log, oldest first.
func (db *DB) ReviewLog(ctx context.Context, itemID string) ([]fsrs.ReviewLogEntry, error) {
	var rows []reviewRow
	if err := db.SelectContext(ctx, &rows,
		"SELECT "+reviewColumns+" FROM review_log WHERE item_id = ? ORDER BY review_date, id", itemID,
	); err != nil {
		return nil, fmt.Errorf("review log: %w", err)
	}
	out := make([]fsrs.ReviewLogEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// ReviewLogsByItem returns the logs of every item with at least minEntries
// reviews, keyed by item id.
func (db *DB) ReviewLogsByItem(ctx context.Context, minEntries int) (map[string][]fsrs.ReviewLogEntry, error) {
	var rows []reviewRow
	if err := db.SelectContext(ctx, &rows, `
		SELECT `+reviewColumns+` FROM review_log
		WHERE item_id IN (
			SELECT item_id FROM review_log GROUP BY item_id HAVING COUNT(*) >= ?
		)
		ORDER BY item_id, review_date, id`, minEntries,
	); err != nil {
		return nil, fmt.Errorf("review logs by item: %w", err)
	}
	out := make(map[string][]fsrs.ReviewLogEntry)
	for _, r := range rows {
		out[r.ItemID] = append(out[r.ItemID], r.entry())
	}
	return out, nil
}

// ReviewsSince returns every log entry at or after since, oldest first.
func (db *DB) ReviewsSince(ctx context.Context, since time.Time) ([]fsrs.ReviewLogEntry, error) {
	var rows []reviewRow
	if err := db.SelectContext(ctx, &rows,
		"SELECT "+reviewColumns+" FROM review_log WHERE review_date >= ? ORDER BY review_date, id",
		toMillis(since),
	); err != nil {
		return nil, fmt.Errorf("reviews since: %w", err)
	}
	out := make([]fsrs.ReviewLogEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// CountReviews returns the total number of log entries.
func (db *DB) CountReviews(ctx context.Context) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM review_log"); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}
