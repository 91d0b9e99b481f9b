package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Extract is a passage pulled out of a document for later processing.
type Extract struct {
	ID         string `db:"id" json:"id"`
	DocumentID string `db:"document_id" json:"document_id"`
	Content    string `db:"content" json:"content"`
	Priority   int    `db:"priority" json:"priority"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
}

// CreateExtract stores an extract and marks its document as accessed.
func (db *DB) CreateExtract(ctx context.Context, e *Extract) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Priority == 0 {
		e.Priority = DefaultPriority
	}
	e.Priority = clampPriority(e.Priority)
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create extract: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO extracts (id, document_id, content, priority, created_at)
		VALUES (:id, :document_id, :content, :priority, :created_at)`, e,
	); err != nil {
		return fmt.Errorf("insert extract: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET last_accessed = ? WHERE id = ?", e.CreatedAt, e.DocumentID,
	); err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	return tx.Commit()
}

// ListExtracts returns every extract, newest first.
func (db *DB) ListExtracts(ctx context.Context) ([]Extract, error) {
	var out []Extract
	if err := db.SelectContext(ctx, &out,
		"SELECT id, document_id, content, priority, created_at FROM extracts ORDER BY created_at DESC, id",
	); err != nil {
		return nil, fmt.Errorf("list extracts: %w", err)
	}
	return out, nil
}

// AddHighlight records a highlight on a document and marks it accessed.
func (db *DB) AddHighlight(ctx context.Context, documentID, content string, at time.Time) (int64, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add highlight: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO highlights (document_id, content, created_at) VALUES (?, ?, ?)",
		documentID, content, toMillis(at),
	)
	if err != nil {
		return 0, fmt.Errorf("insert highlight: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("highlight id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET last_accessed = ? WHERE id = ?", toMillis(at), documentID,
	); err != nil {
		return 0, fmt.Errorf("touch document: %w", err)
	}
	return id, tx.Commit()
}

// DocumentActivity counts highlights and extracts created on a document at
// or after since.
func (db *DB) DocumentActivity(ctx context.Context, documentID string, since time.Time) (highlights, extracts int, err error) {
	ms := toMillis(since)
	if err = db.GetContext(ctx, &highlights,
		"SELECT COUNT(*) FROM highlights WHERE document_id = ? AND created_at >= ?", documentID, ms,
	); err != nil {
		return 0, 0, fmt.Errorf("count highlights: %w", err)
	}
	if err = db.GetContext(ctx, &extracts,
		"SELECT COUNT(*) FROM extracts WHERE document_id = ? AND created_at >= ?", documentID, ms,
	); err != nil {
		return 0, 0, fmt.Errorf("count extracts: %w", err)
	}
	return highlights, extracts, nil
}
