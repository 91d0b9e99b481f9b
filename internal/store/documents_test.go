package store

import (
	"context"
	"testing"

	"github.com/lazypower/reprise/internal/fsrs"
)

func TestDocumentReadingRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	d := &Document{Title: "On Memory", Category: "psych", Priority: 80, Tags: []string{"Ebbinghaus"}}
	if err := db.CreateDocument(ctx, d); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	sched := fsrs.NewScheduler(fsrs.DefaultParameters(), fsrs.WithoutJitter())
	st, err := d.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	next, _ := sched.ApplyDocument(st, fsrs.Good, t0)
	d.SetState(next)
	if err := db.SaveReading(ctx, d); err != nil {
		t.Fatalf("SaveReading: %v", err)
	}

	got, err := db.GetDocument(ctx, d.ID)
	if err != nil || got == nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.ReadingCount != 1 {
		t.Errorf("ReadingCount = %d, want 1", got.ReadingCount)
	}
	if got.Difficulty == nil || *got.Difficulty != 5.0 {
		t.Errorf("Difficulty = %v, want 5.0", got.Difficulty)
	}
	if got.LastAccessed == nil || *got.LastAccessed != t0.UnixMilli() {
		t.Errorf("LastAccessed = %v", got.LastAccessed)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "ebbinghaus" {
		t.Errorf("Tags = %v", got.Tags)
	}

	missing, err := db.GetDocument(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetDocument(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestDocumentActivity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	d := &Document{Title: "doc"}
	if err := db.CreateDocument(ctx, d); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	old := t0.AddDate(0, 0, -10)
	if _, err := db.AddHighlight(ctx, d.ID, "old", old); err != nil {
		t.Fatalf("AddHighlight: %v", err)
	}
	if _, err := db.AddHighlight(ctx, d.ID, "new", t0); err != nil {
		t.Fatalf("AddHighlight: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := db.CreateExtract(ctx, &Extract{DocumentID: d.ID, Content: "passage", CreatedAt: t0.UnixMilli()}); err != nil {
			t.Fatalf("CreateExtract: %v", err)
		}
	}

	h, e, err := db.DocumentActivity(ctx, d.ID, t0.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("DocumentActivity: %v", err)
	}
	if h != 1 || e != 2 {
		t.Errorf("activity = (%d, %d), want (1, 2)", h, e)
	}

	exts, err := db.ListExtracts(ctx)
	if err != nil {
		t.Fatalf("ListExtracts: %v", err)
	}
	if len(exts) != 2 || exts[0].Priority != DefaultPriority {
		t.Errorf("extracts = %+v", exts)
	}

	got, _ := db.GetDocument(ctx, d.ID)
	if got.LastAccessed == nil || *got.LastAccessed != t0.UnixMilli() {
		t.Errorf("LastAccessed = %v, want %d", got.LastAccessed, t0.UnixMilli())
	}
}

func TestExtractRequiresDocument(t *testing.T) {
	db := testDB(t)
	err := db.CreateExtract(context.Background(), &Extract{DocumentID: "missing", Content: "x"})
	if err == nil {
		t.Error("expected foreign key error, got nil")
	}
}
