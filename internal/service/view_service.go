package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirychukyurii/partview/internal/concurrent"
	"github.com/kirychukyurii/partview/internal/metrics"
	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/reconcile"
	"github.com/kirychukyurii/partview/internal/repository"
	"github.com/kirychukyurii/partview/internal/session"
)

// MainViewID identifies the unscoped partition view that lives for the whole process
const MainViewID = "main"

// maxParallelRefresh bounds RefreshAll fan-out
const maxParallelRefresh = 8

var (
	// ErrViewNotFound is returned when no open view has the requested ID
	ErrViewNotFound = errors.New("view not found")
	// ErrPartitionNotFound is returned when the main view's snapshot has no
	// partition with the requested name
	ErrPartitionNotFound = errors.New("partition not found")
	// ErrInvalidScope is returned for a missing scope, an unknown kind or empty scope data
	ErrInvalidScope = errors.New("invalid scope")
	// ErrMainView is returned when closing the main view
	ErrMainView = errors.New("main view cannot be closed")
	// ErrNotStarted is returned by operations called before Start
	ErrNotStarted = errors.New("view service not started")
)

// ViewService defines the interface for partition view operations
type ViewService interface {
	Start(ctx context.Context)
	MainView() (model.View, error)
	PartitionInfo(name string) (model.Partition, error)
	OpenView(scope *model.Scope, title string) (model.ViewSummary, error)
	OpenFromPartition(name string, kind model.ScopeKind) (model.ViewSummary, error)
	ListViews() []model.ViewSummary
	GetView(id string) (model.View, error)
	RefreshView(id string) error
	ResetView(id string) error
	RefreshAll(ctx context.Context) error
	CloseView(id string) error
	Status() model.ServiceStatus
	Shutdown()
}

// viewService implements ViewService
type viewService struct {
	repo     repository.PartitionRepository
	engine   *reconcile.Engine
	interval time.Duration
	source   string
	logger   *slog.Logger

	mu       sync.RWMutex
	ctx      context.Context
	sessions map[string]*session.Session
}

// NewViewService creates a new view service. Start must be called before
// views can be served.
func NewViewService(
	repo repository.PartitionRepository,
	engine *reconcile.Engine,
	interval time.Duration,
	source string,
	logger *slog.Logger,
) ViewService {
	return &viewService{
		repo:     repo,
		engine:   engine,
		interval: interval,
		source:   source,
		logger:   logger,
		sessions: make(map[string]*session.Session),
	}
}

// Start opens the main view. Sessions opened later run until ctx is done or
// they are closed.
func (s *viewService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return
	}
	s.ctx = ctx
	s.openLocked(MainViewID, nil, "")

	s.logger.Info("view service started",
		slog.String("source", s.source),
		slog.Duration("interval", s.interval),
	)
}

// openLocked creates and starts a session. Caller holds s.mu.
func (s *viewService) openLocked(id string, scope *model.Scope, title string) *session.Session {
	sess := session.New(session.Options{
		ID:       id,
		Title:    title,
		Scope:    scope,
		Interval: s.interval,
	}, s.repo, s.engine, s.logger)

	s.sessions[id] = sess
	metrics.Sessions.Set(float64(len(s.sessions)))
	sess.Start(s.ctx)
	return sess
}

func (s *viewService) get(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ctx == nil {
		return nil, ErrNotStarted
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return sess, nil
}

// MainView returns the unscoped partition view
func (s *viewService) MainView() (model.View, error) {
	return s.GetView(MainViewID)
}

// PartitionInfo returns one record from the main view's retained snapshot
func (s *viewService) PartitionInfo(name string) (model.Partition, error) {
	main, err := s.get(MainViewID)
	if err != nil {
		return model.Partition{}, err
	}

	p, ok := main.Partition(name)
	if !ok {
		return model.Partition{}, fmt.Errorf("%w: %s", ErrPartitionNotFound, name)
	}
	return p, nil
}

// OpenView opens a scoped view. If a view with the same title is already
// open, its scope is replaced and that view is returned.
func (s *viewService) OpenView(scope *model.Scope, title string) (model.ViewSummary, error) {
	if err := validateScope(scope); err != nil {
		return model.ViewSummary{}, err
	}
	if title == "" {
		title = scope.Title()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return model.ViewSummary{}, ErrNotStarted
	}

	for id, sess := range s.sessions {
		if id == MainViewID || sess.Title() != title {
			continue
		}
		s.logger.Info("reusing view",
			slog.String("view", id),
			slog.String("title", title),
		)
		sess.SetScope(scope)
		return sess.Summary(), nil
	}

	sess := s.openLocked(uuid.NewString(), scope, title)
	s.logger.Info("view opened",
		slog.String("view", sess.ID()),
		slog.String("title", title),
		slog.String("kind", scope.Kind.String()),
		slog.String("data", scope.Data),
	)
	return sess.Summary(), nil
}

// OpenFromPartition opens a view scoped from a row of the main view. A job
// scope targets the partition itself; node and block scopes target its
// node list.
func (s *viewService) OpenFromPartition(name string, kind model.ScopeKind) (model.ViewSummary, error) {
	p, err := s.PartitionInfo(name)
	if err != nil {
		return model.ViewSummary{}, err
	}

	scope := &model.Scope{Kind: kind}
	switch kind {
	case model.ScopeJob:
		scope.Data = p.Name
	case model.ScopeNode, model.ScopeBlock:
		scope.Data = p.Nodes
	default:
		return model.ViewSummary{}, fmt.Errorf("%w: unknown kind %s", ErrInvalidScope, kind)
	}

	return s.OpenView(scope, "")
}

// ListViews returns summaries of all open views, main view first
func (s *viewService) ListViews() []model.ViewSummary {
	s.mu.RLock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	summaries := make([]model.ViewSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sess.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ID == MainViewID || summaries[j].ID == MainViewID {
			return summaries[i].ID == MainViewID
		}
		return summaries[i].Title < summaries[j].Title
	})
	return summaries
}

// GetView returns the current contents of a view
func (s *viewService) GetView(id string) (model.View, error) {
	sess, err := s.get(id)
	if err != nil {
		return model.View{}, err
	}
	return sess.View(), nil
}

// RefreshView schedules an immediate tick of a view
func (s *viewService) RefreshView(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	sess.Refresh()
	return nil
}

// ResetView asks a view to rebuild its rows from scratch on the next tick
func (s *viewService) ResetView(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	sess.RequestReset()
	return nil
}

// RefreshAll ticks every open view in parallel and waits for completion.
// Per-view failures are joined into the returned error; each view is left in
// its error mode.
func (s *viewService) RefreshAll(ctx context.Context) error {
	s.mu.RLock()
	if s.ctx == nil {
		s.mu.RUnlock()
		return ErrNotStarted
	}
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	results := concurrent.ParallelMapWithLimit(ctx, sessions, func(ctx context.Context, sess *session.Session) (struct{}, error) {
		// a view closed after the list was copied is skipped
		if err := sess.Tick(ctx); err != nil && !errors.Is(err, session.ErrStopped) {
			return struct{}{}, fmt.Errorf("view %s: %w", sess.ID(), err)
		}
		return struct{}{}, nil
	}, maxParallelRefresh)

	errs := concurrent.AllErrors(results)
	if len(errs) > 0 {
		s.logger.Warn("refresh finished with errors",
			slog.Int("views", len(sessions)),
			slog.Int("failed", len(errs)),
		)
	}
	return errors.Join(errs...)
}

// CloseView stops a view and forgets it. The main view cannot be closed.
func (s *viewService) CloseView(id string) error {
	if id == MainViewID {
		return ErrMainView
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.Sessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}

	sess.Stop()
	s.logger.Info("view closed", slog.String("view", id))
	return nil
}

// Status returns the current service status
func (s *viewService) Status() model.ServiceStatus {
	s.mu.RLock()
	count := len(s.sessions)
	main := s.sessions[MainViewID]
	s.mu.RUnlock()

	status := model.ServiceStatus{
		Source:          s.source,
		Sessions:        count,
		RefreshInterval: s.interval.Milliseconds(),
	}
	if main != nil {
		status.LastUpdate = main.LastUpdate()
	}
	return status
}

// Shutdown stops all views and waits for their loops to exit
func (s *viewService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*session.Session)
	metrics.Sessions.Set(0)
	s.mu.Unlock()

	concurrent.ParallelMap(context.Background(), sessions, func(_ context.Context, sess *session.Session) (struct{}, error) {
		sess.Stop()
		return struct{}{}, nil
	})

	s.logger.Info("all views stopped", slog.Int("count", len(sessions)))
}

func validateScope(scope *model.Scope) error {
	if scope == nil {
		return fmt.Errorf("%w: scope is required", ErrInvalidScope)
	}
	switch scope.Kind {
	case model.ScopeJob, model.ScopeNode, model.ScopeBlock:
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidScope, scope.Kind)
	}
	if strings.TrimSpace(scope.Data) == "" {
		return fmt.Errorf("%w: %s scope needs data", ErrInvalidScope, scope.Kind)
	}
	return nil
}
