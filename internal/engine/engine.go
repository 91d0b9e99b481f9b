package engine

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/leech"
	"github.com/lazypower/reprise/internal/priority"
	"github.com/lazypower/reprise/internal/store"
)

// ErrNotFound is returned when an item or document id does not exist.
var ErrNotFound = errors.New("not found")

// Engine ties the scheduling algorithms to the store. Read-modify-write
// operations are serialised per entity id.
type Engine struct {
	DB         *store.DB
	Scheduler  *fsrs.Scheduler
	Maintainer *priority.Maintainer
	Leech      leech.Config
	Logger     *slog.Logger

	locks keyedMutex

	cronMu sync.Mutex
	cron   *gocron.Scheduler
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithLeechConfig sets the thresholds used when no explicit config is given.
func WithLeechConfig(cfg leech.Config) Option {
	return func(e *Engine) { e.Leech = cfg }
}

// WithScheduler replaces the transition scheduler, e.g. one without jitter.
func WithScheduler(s *fsrs.Scheduler) Option {
	return func(e *Engine) { e.Scheduler = s }
}

// New creates an Engine bound to db and p. It panics on an invalid
// parameter vector, like fsrs.NewScheduler.
func New(db *store.DB, p fsrs.Parameters, opts ...Option) *Engine {
	e := &Engine{
		DB:     db,
		Leech:  leech.DefaultConfig(),
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Scheduler == nil {
		e.Scheduler = fsrs.NewScheduler(p, fsrs.WithLogger(e.Logger))
	}
	e.Maintainer = priority.NewMaintainer(e.Scheduler.Parameters())
	return e
}

// keyedMutex hands out one mutex per id and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
