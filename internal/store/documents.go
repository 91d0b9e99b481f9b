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

// Document is a source being read incrementally.
type Document struct {
	ID              string   `db:"id" json:"id"`
	Title           string   `db:"title" json:"title"`
	Source          string   `db:"source" json:"source,omitempty"`
	Category        string   `db:"category" json:"category,omitempty"`
	Priority        int      `db:"priority" json:"priority"`
	Stability       *float64 `db:"stability" json:"stability,omitempty"`
	Difficulty      *float64 `db:"difficulty" json:"difficulty,omitempty"`
	Reps            *int     `db:"reps" json:"reps,omitempty"`
	ReadingCount    int      `db:"reading_count" json:"reading_count"`
	IntervalDays    int      `db:"interval_days" json:"interval_days"`
	Easiness        float64  `db:"easiness" json:"easiness"`
	LastReadingDate *int64   `db:"last_reading_date" json:"last_reading_date,omitempty"`
	NextReadingDate *int64   `db:"next_reading_date" json:"next_reading_date,omitempty"`
	LastAccessed    *int64   `db:"last_accessed" json:"last_accessed,omitempty"`
	ImportedAt      int64    `db:"imported_at" json:"imported_at"`

	Tags []string `db:"-" json:"tags"`
}

const documentColumns = `id, title, source, category, priority,
	stability, difficulty, reps, reading_count, interval_days, easiness,
	last_reading_date, next_reading_date, last_accessed, imported_at`

// State converts the row into the scheduler's view.
func (d *Document) State() (fsrs.State, error) {
	mem, err := memoryOf(d.Stability, d.Difficulty, d.Reps)
	if err != nil {
		return fsrs.State{}, fmt.Errorf("document %s: %w", d.ID, err)
	}
	return fsrs.State{
		ID:           d.ID,
		Priority:     d.Priority,
		Memory:       mem,
		IntervalDays: d.IntervalDays,
		Easiness:     d.Easiness,
		LastReviewed: fromMillisPtr(d.LastReadingDate),
		NextReview:   fromMillisPtr(d.NextReadingDate),
		ReadingCount: d.ReadingCount,
	}, nil
}

// SetState copies scheduler output back onto the row.
func (d *Document) SetState(st fsrs.State) {
	d.Priority = st.Priority
	d.Stability, d.Difficulty, d.Reps = memoryColumns(st.Memory)
	d.IntervalDays = st.IntervalDays
	d.Easiness = st.Easiness
	d.ReadingCount = st.ReadingCount
	d.LastReadingDate = toMillisPtr(st.LastReviewed)
	d.NextReadingDate = toMillisPtr(st.NextReview)
}

// CreateDocument inserts an unread document.
func (db *DB) CreateDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Priority == 0 {
		d.Priority = DefaultPriority
	}
	d.Priority = clampPriority(d.Priority)
	if d.Easiness == 0 {
		d.Easiness = DefaultEase
	}
	if d.ImportedAt == 0 {
		d.ImportedAt = time.Now().UnixMilli()
	}
	d.Tags = normalizeTags(d.Tags)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create document: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (:id, :title, :source, :category, :priority,
			:stability, :difficulty, :reps, :reading_count, :interval_days, :easiness,
			:last_reading_date, :next_reading_date, :last_accessed, :imported_at)`, d,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	if err := documentTags.replace(ctx, tx, d.ID, d.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// GetDocument returns the document with the given id, or nil if not found.
func (db *DB) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := db.GetContext(ctx, &d, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	tags, err := documentTags.load(ctx, db, id)
	if err != nil {
		return nil, err
	}
	d.Tags = nonNil(tags[id])
	return &d, nil
}

// ListDocuments returns every document with its tags.
func (db *DB) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := db.SelectContext(ctx, &docs, "SELECT "+documentColumns+" FROM documents ORDER BY imported_at, id"); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	tags, err := documentTags.load(ctx, db, "")
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Tags = nonNil(tags[docs[i].ID])
	}
	return docs, nil
}

// SaveReading persists a document's new reading schedule.
func (db *DB) SaveReading(ctx context.Context, d *Document) error {
	if d.LastReadingDate != nil {
		d.LastAccessed = d.LastReadingDate
	}
	d.Priority = clampPriority(d.Priority)
	res, err := db.NamedExecContext(ctx, `
		UPDATE documents SET
			priority = :priority, stability = :stability, difficulty = :difficulty, reps = :reps,
			reading_count = :reading_count, interval_days = :interval_days, easiness = :easiness,
			last_reading_date = :last_reading_date, next_reading_date = :next_reading_date,
			last_accessed = :last_accessed
		WHERE id = :id`, d)
	if err != nil {
		return fmt.Errorf("save reading: %w", err)
	}
	return expectOne(res, "document", d.ID)
}

// SetDocumentPriority updates only the priority column.
func (db *DB) SetDocumentPriority(ctx context.Context, id string, priority int) error {
	res, err := db.ExecContext(ctx, "UPDATE documents SET priority = ? WHERE id = ?", clampPriority(priority), id)
	if err != nil {
		return fmt.Errorf("set document priority: %w", err)
	}
	return expectOne(res, "document", id)
}

// TouchDocument records an access without changing the schedule.
func (db *DB) TouchDocument(ctx context.Context, id string, at time.Time) error {
	res, err := db.ExecContext(ctx, "UPDATE documents SET last_accessed = ? WHERE id = ?", toMillis(at), id)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	return expectOne(res, "document", id)
}
