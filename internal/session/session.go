// Package session keeps one partition view in sync with the resource manager.
//
// A Session owns its rows exclusively. Each tick fetches a snapshot, moves the
// session between the uninitialized, showing and error modes, and reconciles
// the rows in place. Readers see either the state before or after a tick,
// never a partially applied snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirychukyurii/partview/internal/metrics"
	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/reconcile"
	"github.com/kirychukyurii/partview/internal/repository"
	"github.com/kirychukyurii/partview/internal/rowstore"
)

// ErrNoSnapshot is reported when the fetcher claims no change before any
// snapshot was retained
var ErrNoSnapshot = errors.New("no partition snapshot retained")

// ErrStopped is returned by Tick once Stop has been called
var ErrStopped = errors.New("view session stopped")

// surface is what the session currently displays: a table backed by a row
// store, or an error message
type surface struct {
	rows    *rowstore.List
	message string
}

// Options configures a new session
type Options struct {
	ID       string
	Title    string
	Scope    *model.Scope // nil for the unscoped view
	Interval time.Duration
}

// Session is one reconciled partition view
type Session struct {
	id       string
	title    string
	interval time.Duration
	repo     repository.PartitionRepository
	engine   *reconcile.Engine
	logger   *slog.Logger

	tickMu sync.Mutex // serializes ticks

	mu         sync.RWMutex
	scope      *model.Scope
	snapshot   *model.Snapshot
	mode       model.Mode
	surface    *surface
	diagnostic string
	updatedAt  time.Time

	resetRequested atomic.Bool
	refreshCh      chan struct{}
	stopCh         chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

// New creates a session in the uninitialized mode
func New(opts Options, repo repository.PartitionRepository, engine *reconcile.Engine, logger *slog.Logger) *Session {
	title := opts.Title
	if title == "" {
		title = opts.Scope.Title()
	}

	return &Session{
		id:        opts.ID,
		title:     title,
		interval:  opts.Interval,
		repo:      repo,
		engine:    engine,
		logger:    logger.With(slog.String("view", opts.ID), slog.String("title", title)),
		scope:     opts.Scope,
		refreshCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Title returns the session title
func (s *Session) Title() string {
	return s.title
}

// Scope returns the current scope, nil for the unscoped view
func (s *Session) Scope() *model.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// SetScope replaces the filter target. The next tick re-renders the rows even
// if the snapshot did not change.
func (s *Session) SetScope(scope *model.Scope) {
	s.mu.Lock()
	s.scope = scope
	s.mu.Unlock()
	s.Refresh()
}

// RequestReset asks the next tick to destroy the current surface and rebuild it
func (s *Session) RequestReset() {
	s.resetRequested.Store(true)
	s.Refresh()
}

// Refresh schedules an immediate tick on the running loop
func (s *Session) Refresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Tick fetches a snapshot and brings the displayed state up to date.
// Fetch failures move the session to the error mode and are returned for
// logging; they are retried on the next tick. A stopped session is never
// fetched or reconciled again.
func (s *Session) Tick(ctx context.Context) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.stopped() {
		return ErrStopped
	}

	if s.resetRequested.Swap(false) {
		s.mu.Lock()
		s.destroySurface()
		s.mode = model.ModeUninitialized
		if s.snapshot != nil {
			defer s.mu.Unlock()
			s.logger.Info("view reset, rebuilding from retained snapshot")
			return s.display()
		}
		s.mu.Unlock()
	}

	s.mu.RLock()
	var since time.Time
	if s.snapshot != nil {
		since = s.snapshot.LastUpdate
	}
	s.mu.RUnlock()

	snap, err := s.repo.Fetch(ctx, since)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(err, repository.ErrNoChange):
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeNoChange).Inc()
		if s.snapshot == nil {
			s.fail(ErrNoSnapshot)
			return ErrNoSnapshot
		}
		if s.surface == nil || s.mode == model.ModeError {
			return s.display()
		}
		return s.reconcile()

	case err != nil:
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.fail(err)
		return fmt.Errorf("load partitions: %w", err)

	default:
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		s.snapshot = snap
		return s.display()
	}
}

func (s *Session) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// fail replaces the surface with an error message unless one is already shown
func (s *Session) fail(err error) {
	if s.mode == model.ModeError {
		return
	}
	s.destroySurface()
	s.surface = &surface{message: "load partitions: " + err.Error()}
	s.mode = model.ModeError

	s.logger.Warn("partition view failed",
		slog.String("error", err.Error()),
	)
}

// display makes sure a table surface exists and reconciles into it
func (s *Session) display() error {
	if s.mode == model.ModeError && s.surface != nil {
		s.destroySurface()
	}
	if s.surface == nil {
		s.surface = &surface{rows: rowstore.New()}
	}
	s.mode = model.ModeShowing
	return s.reconcile()
}

func (s *Session) reconcile() error {
	res, err := s.engine.Reconcile(s.surface.rows, s.snapshot, s.scope)
	if err != nil {
		s.diagnostic = err.Error()
		s.logger.Warn("reconcile aborted, keeping previous rows",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("reconcile: %w", err)
	}

	s.diagnostic = strings.Join(res.Diagnostics, "; ")
	s.updatedAt = time.Now()
	return nil
}

func (s *Session) destroySurface() {
	s.surface = nil
	s.diagnostic = ""
}

// View returns a copy of what the session displays
func (s *Session) View() model.View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := model.View{
		ID:         s.id,
		Title:      s.title,
		Scope:      s.scope,
		Mode:       s.mode,
		Diagnostic: s.diagnostic,
		Rows:       []model.Row{},
		UpdatedAt:  s.updatedAt,
	}
	if s.surface != nil {
		if s.surface.rows != nil {
			v.Rows = s.surface.rows.Rows()
		} else {
			v.Error = s.surface.message
		}
	}
	return v
}

// Summary returns the short listing form of the session
func (s *Session) Summary() model.ViewSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := 0
	if s.surface != nil && s.surface.rows != nil {
		rows = s.surface.rows.Len()
	}
	return model.ViewSummary{
		ID:    s.id,
		Title: s.title,
		Scope: s.scope,
		Mode:  s.mode,
		Rows:  rows,
	}
}

// Partition returns the record for name from the retained snapshot
func (s *Session) Partition(name string) (model.Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Lookup(name)
}

// LastUpdate returns the time of the retained snapshot
func (s *Session) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return time.Time{}
	}
	return s.snapshot.LastUpdate
}
