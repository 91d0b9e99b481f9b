package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/reprise/internal/store"
	"github.com/xuri/excelize/v2"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestRunCSV(t *testing.T) {
	db := testDB(t)
	path := writeCSV(t, strings.Join([]string{
		"question,answer,category,tags,priority",
		"Capital of France?,Paris,geo,europe;capitals,80",
		"Capital of Spain?,Madrid,geo,europe,",
		",,,,",
		"2+2?,4,,math,",
	}, "\n"))

	cfg := DefaultConfig()
	cfg.Path = path
	res, err := Run(context.Background(), db, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 3 || res.Created != 3 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 3 processed, 3 created", res)
	}

	items, err := db.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	byQ := map[string]store.Item{}
	for _, it := range items {
		byQ[it.Question] = it
	}
	fr := byQ["Capital of France?"]
	if fr.Priority != 80 || fr.Category != "geo" || len(fr.Tags) != 2 {
		t.Errorf("france = %+v", fr)
	}
	if sp := byQ["Capital of Spain?"]; sp.Priority != store.DefaultPriority {
		t.Errorf("spain priority = %d, want default", sp.Priority)
	}
}

func TestRunSkipsNearDuplicates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.CreateItem(ctx, &store.Item{Question: "What is the capital city of France?", Category: "geo"}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	path := writeCSV(t, strings.Join([]string{
		"question,answer,category",
		"what is the capital city of France? ,Paris,geo",
		"What is the capital city of Germany?,Berlin,geo",
		"What is the capital city of Germany?,Berlin,geo",
		"What is the capital city of France?,Paris,history",
	}, "\n"))

	cfg := DefaultConfig()
	cfg.Path = path
	res, err := Run(ctx, db, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 2 || res.Skipped != 2 {
		t.Errorf("result = %+v, want 2 created, 2 skipped", res)
	}

	cfg.SkipDuplicates = false
	res, err = Run(ctx, db, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 4 {
		t.Errorf("without dedupe created = %d, want 4", res.Created)
	}
}

func TestRunRowErrors(t *testing.T) {
	db := testDB(t)
	path := writeCSV(t, strings.Join([]string{
		"question,answer,category,tags,priority",
		",orphan answer,,,",
		"q1,a1,,,high",
		"q2,a2,,,101",
		"q3,a3,,,7",
	}, "\n"))

	cfg := DefaultConfig()
	cfg.Path = path
	res, err := Run(context.Background(), db, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 || res.Skipped != 3 || len(res.Errors) != 3 {
		t.Errorf("result = %+v, want 1 created and 3 errors", res)
	}
	if !strings.HasPrefix(res.Errors[0], "row 2:") {
		t.Errorf("first error = %q, want row 2", res.Errors[0])
	}
}

func TestRunXLSX(t *testing.T) {
	db := testDB(t)
	path := filepath.Join(t.TempDir(), "cards.xlsx")

	f := excelize.NewFile()
	rows := [][]string{
		{"Front", "Back", "Deck"},
		{"Hola", "Hello", "spanish"},
		{"Gracias", "Thank you", "spanish"},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	cfg := Config{
		Path:           path,
		StartRow:       2,
		QuestionColumn: "A",
		AnswerColumn:   "B",
		CategoryColumn: "C",
	}
	res, err := Run(context.Background(), db, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 2 {
		t.Errorf("created = %d, want 2 (errors: %v)", res.Created, res.Errors)
	}

	qs, err := db.ItemQuestions(context.Background(), "spanish")
	if err != nil {
		t.Fatalf("ItemQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Errorf("spanish items = %d, want 2", len(qs))
	}

	cfg.Sheet = "Missing"
	if _, err := Run(context.Background(), db, cfg); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestRunBadConfig(t *testing.T) {
	db := testDB(t)
	if _, err := Run(context.Background(), db, Config{Path: "x.txt", QuestionColumn: "A"}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := Run(context.Background(), db, Config{Path: "x.csv"}); err == nil {
		t.Error("expected error for missing question column")
	}
	if _, err := Run(context.Background(), db, Config{Path: "x.csv", QuestionColumn: "1"}); err == nil {
		t.Error("expected error for invalid column name")
	}
	if _, err := Run(context.Background(), db, Config{Path: filepath.Join(t.TempDir(), "none.csv"), QuestionColumn: "A"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNearIdentical(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"hello world", "hello world", true},
		{"  Hello World ", "hello world", true},
		{"", "", true},
		{"", "hello", false},
		{"a", "b", false},
		{
			"Which protein carries oxygen in red blood cells of mammals",
			"Which protein carries oxygen in red blood cells of mammals?",
			true,
		},
		{"capital of France", "capital of Germany", false},
	}
	for _, tt := range tests {
		if got := nearIdentical(tt.a, tt.b); got != tt.want {
			t.Errorf("nearIdentical(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
