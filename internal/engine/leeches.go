package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/lazypower/reprise/internal/leech"
	"golang.org/x/sync/errgroup"
)

// Suggestion pairs a leech with the treatment advised for it.
type Suggestion struct {
	Leech     leech.Record    `json:"leech"`
	Treatment leech.Treatment `json:"treatment"`
}

// DetectLeeches scans every item with enough history against cfg. An
// invalid cfg fails before anything is read. Results are ordered by item id.
func (e *Engine) DetectLeeches(ctx context.Context, cfg leech.Config) ([]leech.Record, error) {
	det, err := leech.NewDetector(cfg)
	if err != nil {
		return nil, err
	}

	logs, err := e.DB.ReviewLogsByItem(ctx, leech.MinReviews)
	if err != nil {
		return nil, fmt.Errorf("detect leeches: %w", err)
	}
	questions, err := e.DB.ItemQuestions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("detect leeches: %w", err)
	}

	ids := make([]string, 0, len(logs))
	for id := range logs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	found := make([]*leech.Record, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, ok := det.Evaluate(id, logs[id])
			if ok {
				rec.Question = questions[id]
				found[i] = &rec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []leech.Record{}
	for _, r := range found {
		if r != nil {
			out = append(out, *r)
		}
	}
	e.Logger.Info("leech scan", "scanned", len(ids), "leeches", len(out))
	return out, nil
}

// SuggestTreatments runs DetectLeeches and attaches a treatment to each.
func (e *Engine) SuggestTreatments(ctx context.Context, cfg leech.Config) ([]Suggestion, error) {
	recs, err := e.DetectLeeches(ctx, cfg)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, len(recs))
	for i, r := range recs {
		out[i] = Suggestion{Leech: r, Treatment: leech.Suggest(r)}
	}
	return out, nil
}

// ApplyTreatment applies strategy to an item. It reports false with
// leech.ErrUnknownStrategy or ErrNotFound when nothing was changed.
func (e *Engine) ApplyTreatment(ctx context.Context, itemID string, strategy leech.Strategy, now time.Time) (bool, error) {
	if _, err := leech.ParseStrategy(string(strategy)); err != nil {
		return false, err
	}

	unlock := e.locks.lock(itemID)
	defer unlock()

	it, st, err := e.itemState(ctx, itemID)
	if err != nil {
		return false, err
	}

	out, err := leech.Apply(it.Question, st, strategy, now)
	if err != nil {
		return false, err
	}
	it.Question = out.Question
	it.SetState(out.State)
	if err := e.DB.SaveTreatment(ctx, it, out.ClearLog); err != nil {
		return false, fmt.Errorf("save treatment %s: %w", itemID, err)
	}

	e.Logger.Info("leech treated", "item", itemID, "strategy", string(strategy), "cleared_log", out.ClearLog)
	return true, nil
}
