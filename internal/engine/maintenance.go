package engine

// Priority maintenance math lives in the priority package (Maintainer.Adjust).
// This file wires it to the store and the periodic job.
//
//   - documents: decay by days since last access, boost by highlights and
//     extracts made in the last 7 days
//   - items: decay only, they have no activity feed
//   - a row that fails to load or save is skipped and counted in the Report
//   - runs on server startup and then every MaintenanceInterval via
//     Engine.StartMaintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/lazypower/reprise/internal/priority"
)

const (
	targetItem     = "item"
	targetDocument = "document"
)

// RunPriorityMaintenance decays and boosts every item and document once.
func (e *Engine) RunPriorityMaintenance(ctx context.Context, now time.Time) (priority.Report, error) {
	targets, err := e.priorityTargets(ctx)
	if err != nil {
		return priority.Report{}, err
	}
	rep, err := e.Maintainer.Run(ctx, targets, storeSource{e}, now)
	if err != nil {
		return rep, fmt.Errorf("priority maintenance: %w", err)
	}
	for _, msg := range rep.Errors {
		e.Logger.Warn("priority maintenance skipped", "target", msg)
	}
	return rep, nil
}

// StartMaintenance runs priority maintenance now and then every interval
// until Stop is called.
func (e *Engine) StartMaintenance(interval time.Duration) error {
	e.cronMu.Lock()
	defer e.cronMu.Unlock()
	if e.cron != nil {
		return fmt.Errorf("maintenance already started")
	}

	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(interval).Do(e.maintenanceJob); err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	s.StartAsync()
	e.cron = s
	return nil
}

// Stop shuts down the engine's background jobs.
func (e *Engine) Stop() {
	e.cronMu.Lock()
	defer e.cronMu.Unlock()
	if e.cron != nil {
		e.cron.Stop()
		e.cron = nil
	}
}

func (e *Engine) maintenanceJob() {
	rep, err := e.RunPriorityMaintenance(context.Background(), time.Now())
	if err != nil {
		e.Logger.Error("priority maintenance", "err", err)
		return
	}
	if rep.Updated > 0 || rep.Skipped > 0 {
		e.Logger.Info("priority maintenance", "scanned", rep.Scanned, "updated", rep.Updated, "skipped", rep.Skipped)
	}
}

func (e *Engine) priorityTargets(ctx context.Context) ([]priority.Target, error) {
	docs, err := e.DB.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("priority targets: %w", err)
	}
	items, err := e.DB.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("priority targets: %w", err)
	}

	targets := make([]priority.Target, 0, len(docs)+len(items))
	for _, d := range docs {
		targets = append(targets, priority.Target{
			ID: d.ID, Kind: targetDocument, Priority: d.Priority, LastAccessed: millisTime(d.LastAccessed),
		})
	}
	for _, it := range items {
		targets = append(targets, priority.Target{
			ID: it.ID, Kind: targetItem, Priority: it.Priority, LastAccessed: millisTime(it.LastAccessed),
		})
	}
	return targets, nil
}

// storeSource feeds the maintainer from the database.
type storeSource struct {
	e *Engine
}

func (s storeSource) Activity(ctx context.Context, t priority.Target, since time.Time) (priority.Activity, error) {
	if t.Kind != targetDocument {
		return priority.Activity{}, nil
	}
	h, x, err := s.e.DB.DocumentActivity(ctx, t.ID, since)
	if err != nil {
		return priority.Activity{}, err
	}
	return priority.Activity{Highlights: h, Extracts: x}, nil
}

func (s storeSource) SetPriority(ctx context.Context, t priority.Target, p int) error {
	unlock := s.e.locks.lock(t.ID)
	defer unlock()

	switch t.Kind {
	case targetDocument:
		return s.e.DB.SetDocumentPriority(ctx, t.ID, p)
	case targetItem:
		return s.e.DB.SetItemPriority(ctx, t.ID, p)
	}
	return fmt.Errorf("unknown target kind %q", t.Kind)
}

func millisTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

var _ priority.Source = storeSource{}
