package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/reprise/internal/store"
)

// AddExtract stores a passage pulled from a document. The extract's
// creation counts as activity on the document.
func (e *Engine) AddExtract(ctx context.Context, docID, content string, prio int, now time.Time) (*store.Extract, error) {
	if err := e.requireDocument(ctx, docID); err != nil {
		return nil, err
	}
	x := &store.Extract{DocumentID: docID, Content: content, Priority: prio, CreatedAt: now.UnixMilli()}
	if err := e.DB.CreateExtract(ctx, x); err != nil {
		return nil, err
	}
	return x, nil
}

// AddHighlight records a highlight on a document.
func (e *Engine) AddHighlight(ctx context.Context, docID, content string, now time.Time) (int64, error) {
	if err := e.requireDocument(ctx, docID); err != nil {
		return 0, err
	}
	return e.DB.AddHighlight(ctx, docID, content, now)
}

// SetDocumentPriority sets a document's priority manually, clamped to 1..100.
func (e *Engine) SetDocumentPriority(ctx context.Context, docID string, prio int) error {
	unlock := e.locks.lock(docID)
	defer unlock()
	if err := e.requireDocument(ctx, docID); err != nil {
		return err
	}
	return e.DB.SetDocumentPriority(ctx, docID, prio)
}

func (e *Engine) requireDocument(ctx context.Context, docID string) error {
	d, err := e.DB.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if d == nil {
		return fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	return nil
}
