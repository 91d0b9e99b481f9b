package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/reprise/internal/fsrs"
)

// ErrMalformedState is returned when a row has only part of its memory model
// set. Such rows are skipped by batch passes.
var ErrMalformedState = errors.New("store: malformed memory state")

const (
	DefaultPriority = 50
	DefaultEase     = 2.5
)

// Item is a learning item (question/answer pair) and its schedule.
type Item struct {
	ID           string   `db:"id" json:"id"`
	ExtractID    *string  `db:"extract_id" json:"extract_id,omitempty"`
	Question     string   `db:"question" json:"question"`
	Answer       string   `db:"answer" json:"answer"`
	Category     string   `db:"category" json:"category,omitempty"`
	Priority     int      `db:"priority" json:"priority"`
	Stability    *float64 `db:"stability" json:"stability,omitempty"`
	Difficulty   *float64 `db:"difficulty" json:"difficulty,omitempty"`
	Reps         *int     `db:"reps" json:"reps,omitempty"`
	IntervalDays int      `db:"interval_days" json:"interval_days"`
	Easiness     float64  `db:"easiness" json:"easiness"`
	LastReviewed *int64   `db:"last_reviewed" json:"last_reviewed,omitempty"`
	NextReview   *int64   `db:"next_review" json:"next_review,omitempty"`
	LastAccessed *int64   `db:"last_accessed" json:"last_accessed,omitempty"`
	CreatedAt    int64    `db:"created_at" json:"created_at"`
	UpdatedAt    int64    `db:"updated_at" json:"updated_at"`

	Tags []string `db:"-" json:"tags"`
}

const itemColumns = `id, extract_id, question, answer, category, priority,
	stability, difficulty, reps, interval_days, easiness,
	last_reviewed, next_review, last_accessed, created_at, updated_at`

// State converts the row into the scheduler's view.
func (it *Item) State() (fsrs.State, error) {
	mem, err := memoryOf(it.Stability, it.Difficulty, it.Reps)
	if err != nil {
		return fsrs.State{}, fmt.Errorf("item %s: %w", it.ID, err)
	}
	return fsrs.State{
		ID:           it.ID,
		Priority:     it.Priority,
		Memory:       mem,
		IntervalDays: it.IntervalDays,
		Easiness:     it.Easiness,
		LastReviewed: fromMillisPtr(it.LastReviewed),
		NextReview:   fromMillisPtr(it.NextReview),
	}, nil
}

// SetState copies scheduler output back onto the row.
func (it *Item) SetState(st fsrs.State) {
	it.Priority = st.Priority
	it.Stability, it.Difficulty, it.Reps = memoryColumns(st.Memory)
	it.IntervalDays = st.IntervalDays
	it.Easiness = st.Easiness
	it.LastReviewed = toMillisPtr(st.LastReviewed)
	it.NextReview = toMillisPtr(st.NextReview)
}

// NextReviewTime returns next_review as a time, nil for new items.
func (it *Item) NextReviewTime() *time.Time {
	return fromMillisPtr(it.NextReview)
}

func memoryOf(stability, difficulty *float64, reps *int) (*fsrs.Memory, error) {
	switch {
	case stability == nil && difficulty == nil && reps == nil:
		return nil, nil
	case stability == nil || difficulty == nil || reps == nil:
		return nil, ErrMalformedState
	}
	return &fsrs.Memory{Stability: *stability, Difficulty: *difficulty, Reps: *reps}, nil
}

func memoryColumns(m *fsrs.Memory) (*float64, *float64, *int) {
	if m == nil {
		return nil, nil, nil
	}
	s, d, r := m.Stability, m.Difficulty, m.Reps
	return &s, &d, &r
}

// CreateItem inserts a new, never-reviewed item. ID, timestamps and defaults
// are filled in on the passed struct.
func (db *DB) CreateItem(ctx context.Context, it *Item) error {
	now := time.Now().UnixMilli()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Priority == 0 {
		it.Priority = DefaultPriority
	}
	it.Priority = clampPriority(it.Priority)
	if it.Easiness == 0 {
		it.Easiness = DefaultEase
	}
	it.Tags = normalizeTags(it.Tags)
	it.CreatedAt = now
	it.UpdatedAt = now

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create item: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (:id, :extract_id, :question, :answer, :category, :priority,
			:stability, :difficulty, :reps, :interval_days, :easiness,
			:last_reviewed, :next_review, :last_accessed, :created_at, :updated_at)`, it)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	if err := itemTags.replace(ctx, tx, it.ID, it.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// GetItem returns the item with the given id, or nil if not found.
func (db *DB) GetItem(ctx context.Context, id string) (*Item, error) {
	var it Item
	err := db.GetContext(ctx, &it, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	tags, err := itemTags.load(ctx, db, id)
	if err != nil {
		return nil, err
	}
	it.Tags = nonNil(tags[id])
	return &it, nil
}

// ListItems returns every item with its tags.
func (db *DB) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := db.SelectContext(ctx, &items, "SELECT "+itemColumns+" FROM items ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	tags, err := itemTags.load(ctx, db, "")
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tags = nonNil(tags[items[i].ID])
	}
	return items, nil
}

// ItemQuestions returns id → question for every item in category. An empty
// category returns all items.
func (db *DB) ItemQuestions(ctx context.Context, category string) (map[string]string, error) {
	var rows []struct {
		ID       string `db:"id"`
		Question string `db:"question"`
	}
	query := "SELECT id, question FROM items"
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("item questions: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Question
	}
	return out, nil
}

// RecordReview persists the new schedule and appends the log entry in one
// transaction.
func (db *DB) RecordReview(ctx context.Context, it *Item, entry fsrs.ReviewLogEntry) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record review: %w", err)
	}
	defer tx.Rollback()

	now := toMillis(entry.ReviewDate)
	it.LastAccessed = &now
	it.UpdatedAt = time.Now().UnixMilli()

	if err := updateItem(ctx, tx, it); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO review_log (item_id, review_date, grade, response_time, scheduled_interval, actual_interval)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ItemID, toMillis(entry.ReviewDate), int(entry.Grade), entry.ResponseTime,
		entry.ScheduledInterval, entry.ActualInterval,
	); err != nil {
		return fmt.Errorf("insert review log: %w", err)
	}
	return tx.Commit()
}

// SaveTreatment writes a treated item and, for a relearn, drops its log.
func (db *DB) SaveTreatment(ctx context.Context, it *Item, clearLog bool) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin treatment: %w", err)
	}
	defer tx.Rollback()

	it.UpdatedAt = time.Now().UnixMilli()
	if err := updateItem(ctx, tx, it); err != nil {
		return err
	}
	if clearLog {
		if _, err := tx.ExecContext(ctx, "DELETE FROM review_log WHERE item_id = ?", it.ID); err != nil {
			return fmt.Errorf("clear review log: %w", err)
		}
	}
	return tx.Commit()
}

// SetItemPriority updates only the priority column.
func (db *DB) SetItemPriority(ctx context.Context, id string, priority int) error {
	res, err := db.ExecContext(ctx,
		"UPDATE items SET priority = ?, updated_at = ? WHERE id = ?",
		clampPriority(priority), time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("set item priority: %w", err)
	}
	return expectOne(res, "item", id)
}

// DeleteItem removes an item with its tags and log.
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return expectOne(res, "item", id)
}

func updateItem(ctx context.Context, tx interface {
	NamedExecContext(context.Context, string, any) (sql.Result, error)
}, it *Item) error {
	it.Priority = clampPriority(it.Priority)
	res, err := tx.NamedExecContext(ctx, `
		UPDATE items SET
			question = :question, answer = :answer, category = :category, priority = :priority,
			stability = :stability, difficulty = :difficulty, reps = :reps,
			interval_days = :interval_days, easiness = :easiness,
			last_reviewed = :last_reviewed, next_review = :next_review,
			last_accessed = :last_accessed, updated_at = :updated_at
		WHERE id = :id`, it)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return expectOne(res, "item", it.ID)
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, sql.ErrNoRows)
	}
	return nil
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 100 {
		return 100
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
