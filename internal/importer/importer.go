// Package importer loads learning items from spreadsheets (.xlsx) and CSV
// files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lazypower/reprise/internal/store"
	"github.com/xuri/excelize/v2"
)

// Config describes where each field lives. Columns are spreadsheet letters
// ("A", "B", ...) and apply to CSV files too. An empty column is not read.
type Config struct {
	Path           string
	Sheet          string // defaults to the first sheet
	StartRow       int    // 1-based; 2 skips a header row
	QuestionColumn string
	AnswerColumn   string
	CategoryColumn string
	TagsColumn     string // comma or semicolon separated
	PriorityColumn string
	Category       string // used when the row has none
	SkipDuplicates bool
}

// DefaultConfig reads question, answer, category, tags and priority from
// columns A to E below a header row.
func DefaultConfig() Config {
	return Config{
		StartRow:       2,
		QuestionColumn: "A",
		AnswerColumn:   "B",
		CategoryColumn: "C",
		TagsColumn:     "D",
		PriorityColumn: "E",
		SkipDuplicates: true,
	}
}

// Result summarises an import run.
type Result struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// ItemStore is the subset of the store the importer writes through.
type ItemStore interface {
	ItemQuestions(ctx context.Context, category string) (map[string]string, error)
	CreateItem(ctx context.Context, it *store.Item) error
}

// Run imports every row of cfg.Path. Rows that fail are recorded in
// Result.Errors and skipped; only an unreadable file is an error.
func Run(ctx context.Context, db ItemStore, cfg Config) (Result, error) {
	cols, err := resolveColumns(cfg)
	if err != nil {
		return Result{}, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".csv":
		rows, err = readCSV(cfg.Path)
	case ".xlsx", ".xlsm":
		rows, err = readSheet(cfg.Path, cfg.Sheet)
	default:
		return Result{}, fmt.Errorf("unsupported file type %q", filepath.Ext(cfg.Path))
	}
	if err != nil {
		return Result{}, err
	}

	var res Result
	seen := map[string][]string{} // category -> questions
	start := max(cfg.StartRow, 1)
	for i, row := range rows {
		if i < start-1 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if blank(row) {
			continue
		}
		res.Processed++
		line := i + 1

		it, err := cols.item(row, cfg.Category)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			res.Skipped++
			continue
		}

		if cfg.SkipDuplicates {
			known, ok := seen[it.Category]
			if !ok {
				existing, err := db.ItemQuestions(ctx, it.Category)
				if err != nil {
					return res, fmt.Errorf("load existing questions: %w", err)
				}
				for _, q := range existing {
					known = append(known, q)
				}
			}
			if duplicate(it.Question, known) {
				res.Skipped++
				seen[it.Category] = known
				continue
			}
			seen[it.Category] = append(known, it.Question)
		}

		if err := db.CreateItem(ctx, it); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			res.Skipped++
			continue
		}
		res.Created++
	}
	return res, nil
}

type columns struct {
	question, answer, category, tags, priority int // 0-based, -1 = unused
}

func resolveColumns(cfg Config) (columns, error) {
	var c columns
	var err error
	if cfg.QuestionColumn == "" {
		return c, errors.New("question column is required")
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{cfg.QuestionColumn, &c.question},
		{cfg.AnswerColumn, &c.answer},
		{cfg.CategoryColumn, &c.category},
		{cfg.TagsColumn, &c.tags},
		{cfg.PriorityColumn, &c.priority},
	} {
		*f.dst = -1
		if f.name == "" {
			continue
		}
		n, cerr := excelize.ColumnNameToNumber(strings.ToUpper(f.name))
		if cerr != nil {
			err = fmt.Errorf("column %q: %w", f.name, cerr)
			break
		}
		*f.dst = n - 1
	}
	return c, err
}

func (c columns) item(row []string, defaultCategory string) (*store.Item, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	it := &store.Item{
		Question: cell(c.question),
		Answer:   cell(c.answer),
		Category: cell(c.category),
	}
	if it.Question == "" {
		return nil, errors.New("empty question")
	}
	if it.Category == "" {
		it.Category = defaultCategory
	}
	if raw := cell(c.tags); raw != "" {
		it.Tags = strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	}
	if raw := cell(c.priority); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("priority %q is not a number", raw)
		}
		if p < 1 || p > 100 {
			return nil, fmt.Errorf("priority %d out of range 1-100", p)
		}
		it.Priority = p
	}
	return it, nil
}

func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
