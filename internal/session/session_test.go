package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/reconcile"
	"github.com/kirychukyurii/partview/internal/repository"
)

type step struct {
	snap *model.Snapshot
	err  error
}

// scriptedRepository replays a fixed sequence of fetch outcomes and then
// keeps reporting no change
type scriptedRepository struct {
	mu     sync.Mutex
	steps  []step
	calls  int
	sinces []time.Time
}

func (r *scriptedRepository) Fetch(ctx context.Context, since time.Time) (*model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.sinces = append(r.sinces, since)
	if len(r.steps) == 0 {
		return nil, repository.ErrNoChange
	}
	next := r.steps[0]
	r.steps = r.steps[1:]
	return next.snap, next.err
}

func (r *scriptedRepository) push(steps ...step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, steps...)
}

func (r *scriptedRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(repo repository.PartitionRepository, scope *model.Scope) *Session {
	logger := discardLogger()
	return New(Options{ID: "test", Scope: scope, Interval: time.Hour}, repo, reconcile.NewEngine(logger), logger)
}

func snapAt(sec int64, parts ...model.Partition) *model.Snapshot {
	return &model.Snapshot{Partitions: parts, LastUpdate: time.Unix(sec, 0)}
}

var (
	debug = model.Partition{Name: "debug", Up: true, MaxTime: 60, TotalNodes: 4, Nodes: "n[1-4]"}
	batch = model.Partition{Name: "batch", Up: true, MaxTime: model.InfiniteTime, TotalNodes: 4, Nodes: "n[5-8]"}
)

func rowNames(v model.View) []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Name)
	}
	return out
}

func TestSession_InitialSuccess(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug, batch)}}}
	s := newTestSession(repo, nil)

	assert.Equal(t, model.ModeUninitialized, s.View().Mode)

	require.NoError(t, s.Tick(context.Background()))

	v := s.View()
	assert.Equal(t, model.ModeShowing, v.Mode)
	assert.Equal(t, []string{"debug", "batch"}, rowNames(v))
	assert.Equal(t, "Partitions", v.Title)
	assert.True(t, repo.sinces[0].IsZero(), "first fetch is a full fetch")
}

func TestSession_FailureShowsErrorOnce(t *testing.T) {
	repo := &scriptedRepository{steps: []step{
		{snap: snapAt(1, debug)},
		{err: errors.New("controller unreachable")},
		{err: errors.New("still unreachable")},
	}}
	s := newTestSession(repo, nil)
	require.NoError(t, s.Tick(context.Background()))

	err := s.Tick(context.Background())
	require.Error(t, err)

	v := s.View()
	assert.Equal(t, model.ModeError, v.Mode)
	assert.Equal(t, "load partitions: controller unreachable", v.Error)
	assert.Empty(t, v.Rows)
	errSurface := s.surface

	require.Error(t, s.Tick(context.Background()))
	assert.Same(t, errSurface, s.surface, "no second error surface")
	assert.Equal(t, "load partitions: controller unreachable", s.View().Error)
}

func TestSession_RecoversFromErrorOnSuccess(t *testing.T) {
	repo := &scriptedRepository{steps: []step{
		{err: errors.New("down")},
		{snap: snapAt(2, debug)},
	}}
	s := newTestSession(repo, nil)

	require.Error(t, s.Tick(context.Background()))
	assert.Equal(t, model.ModeError, s.View().Mode)

	require.NoError(t, s.Tick(context.Background()))
	v := s.View()
	assert.Equal(t, model.ModeShowing, v.Mode)
	assert.Empty(t, v.Error)
	assert.Equal(t, []string{"debug"}, rowNames(v))
}

func TestSession_NoChangeInErrorRebuildsFromRetainedSnapshot(t *testing.T) {
	repo := &scriptedRepository{steps: []step{
		{snap: snapAt(1, debug)},
		{err: errors.New("down")},
		{err: repository.ErrNoChange},
	}}
	s := newTestSession(repo, nil)
	require.NoError(t, s.Tick(context.Background()))
	require.Error(t, s.Tick(context.Background()))

	require.NoError(t, s.Tick(context.Background()))

	v := s.View()
	assert.Equal(t, model.ModeShowing, v.Mode)
	assert.Equal(t, []string{"debug"}, rowNames(v))
	assert.Equal(t, time.Unix(1, 0), repo.sinces[2], "incremental fetch uses the retained snapshot time")
}

func TestSession_NoChangeReappliesScope(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug, batch)}}}
	s := newTestSession(repo, &model.Scope{Kind: model.ScopeJob, Data: "debug"})
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []string{"debug"}, rowNames(s.View()))
	table := s.surface

	s.SetScope(&model.Scope{Kind: model.ScopeNode, Data: "n6"})
	require.NoError(t, s.Tick(context.Background()))

	assert.Equal(t, []string{"batch"}, rowNames(s.View()))
	assert.Same(t, table, s.surface, "surface is refreshed, not rebuilt")
}

func TestSession_NoChangeWithoutSnapshot(t *testing.T) {
	s := newTestSession(&scriptedRepository{steps: []step{{err: repository.ErrNoChange}}}, nil)

	err := s.Tick(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Equal(t, model.ModeError, s.View().Mode)
}

func TestSession_ResetRebuildsWithoutFetching(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug)}}}
	s := newTestSession(repo, nil)
	require.NoError(t, s.Tick(context.Background()))
	before := s.surface

	s.RequestReset()
	require.NoError(t, s.Tick(context.Background()))

	assert.Equal(t, 1, repo.callCount(), "reset reuses the retained snapshot")
	assert.NotSame(t, before, s.surface)
	assert.Equal(t, model.ModeShowing, s.View().Mode)
	assert.Equal(t, []string{"debug"}, rowNames(s.View()))
	assert.False(t, s.resetRequested.Load())

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, 2, repo.callCount(), "flag is honored once")
}

func TestSession_ResetWithoutSnapshotFetches(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug)}}}
	s := newTestSession(repo, nil)

	s.RequestReset()
	require.NoError(t, s.Tick(context.Background()))

	assert.Equal(t, 1, repo.callCount())
	assert.Equal(t, model.ModeShowing, s.View().Mode)
}

func TestSession_ScopeResolutionKeepsRows(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug, batch)}}}
	s := newTestSession(repo, &model.Scope{Kind: model.ScopeNode, Data: "n2"})
	require.NoError(t, s.Tick(context.Background()))
	require.Equal(t, []string{"debug"}, rowNames(s.View()))

	s.SetScope(&model.Scope{Kind: model.ScopeNode, Data: ""})
	err := s.Tick(context.Background())

	assert.ErrorIs(t, err, reconcile.ErrScopeResolution)
	v := s.View()
	assert.Equal(t, model.ModeShowing, v.Mode)
	assert.Equal(t, []string{"debug"}, rowNames(v))
	assert.Contains(t, v.Diagnostic, "scope node list is empty")
}

func TestSession_EndToEnd(t *testing.T) {
	repo := &scriptedRepository{steps: []step{
		{snap: snapAt(1, debug)},
		{snap: snapAt(2, model.Partition{Name: "debug", Up: false, MaxTime: 60, TotalNodes: 3, Nodes: "n[2-4]"})},
	}}
	s := newTestSession(repo, nil)

	require.NoError(t, s.Tick(context.Background()))
	v := s.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "debug", v.Rows[0].Name)
	assert.Equal(t, "up", v.Rows[0].Avail)
	assert.Equal(t, "01:00:00", v.Rows[0].TimeLimit)
	assert.Equal(t, "4", v.Rows[0].NodeCount)
	assert.Equal(t, "n[1-4]", v.Rows[0].NodeList)

	require.NoError(t, s.Tick(context.Background()))
	v = s.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "down", v.Rows[0].Avail)
	assert.Equal(t, "3", v.Rows[0].NodeCount)
	assert.Equal(t, "n[2-4]", v.Rows[0].NodeList)
	assert.Equal(t, 0, v.Rows[0].Position)
}

func TestSession_Partition(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug)}}}
	s := newTestSession(repo, nil)

	_, ok := s.Partition("debug")
	assert.False(t, ok)

	require.NoError(t, s.Tick(context.Background()))
	p, ok := s.Partition("debug")
	require.True(t, ok)
	assert.Equal(t, debug, p)
	assert.Equal(t, time.Unix(1, 0), s.LastUpdate())
}

func TestSession_StartStop(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug)}}}
	logger := discardLogger()
	s := New(Options{ID: "loop", Interval: 10 * time.Millisecond}, repo, reconcile.NewEngine(logger), logger)

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return s.View().Mode == model.ModeShowing
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	calls := repo.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, repo.callCount(), "no ticks after Stop")

	s.Stop() // idempotent
}

func TestSession_RefreshTriggersTick(t *testing.T) {
	repo := &scriptedRepository{}
	logger := discardLogger()
	s := New(Options{ID: "refresh", Interval: time.Hour}, repo, reconcile.NewEngine(logger), logger)

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return repo.callCount() == 1 }, time.Second, 5*time.Millisecond)

	repo.push(step{snap: snapAt(1, batch)})
	s.Refresh()

	assert.Eventually(t, func() bool {
		return len(s.View().Rows) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSession_TickAfterStop(t *testing.T) {
	repo := &scriptedRepository{steps: []step{{snap: snapAt(1, debug)}}}
	logger := discardLogger()
	s := New(Options{ID: "stopped", Interval: time.Hour}, repo, reconcile.NewEngine(logger), logger)

	s.Start(context.Background())
	s.Stop()
	calls := repo.callCount()

	err := s.Tick(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, calls, repo.callCount(), "stopped session does not fetch")
}

// blockingRepository holds Fetch until release is closed
type blockingRepository struct {
	started chan struct{}
	release chan struct{}
	snap    *model.Snapshot
}

func (r *blockingRepository) Fetch(ctx context.Context, since time.Time) (*model.Snapshot, error) {
	close(r.started)
	<-r.release
	return r.snap, nil
}

func TestSession_StopWaitsForExternalTick(t *testing.T) {
	repo := &blockingRepository{
		started: make(chan struct{}),
		release: make(chan struct{}),
		snap:    snapAt(1, debug),
	}
	s := newTestSession(repo, nil)

	tickDone := make(chan error, 1)
	go func() { tickDone <- s.Tick(context.Background()) }()
	<-repo.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a tick was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(repo.release)
	require.NoError(t, <-tickDone)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the tick finished")
	}
	assert.ErrorIs(t, s.Tick(context.Background()), ErrStopped)
}
