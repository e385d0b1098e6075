// Package reconcile merges partition snapshots into displayed rows in place.
package reconcile

import (
	"errors"
	"log/slog"
	"time"

	"github.com/kirychukyurii/partview/internal/format"
	"github.com/kirychukyurii/partview/internal/metrics"
	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/rowstore"
)

// ErrNilSnapshot is returned when Reconcile is called without a snapshot
var ErrNilSnapshot = errors.New("nil snapshot")

// Result summarizes one reconcile pass
type Result struct {
	Added       int
	Updated     int // rows whose displayed fields changed
	Removed     int
	Skipped     int      // records filtered out or without nodes
	Diagnostics []string // distinct filter problems, in order of first occurrence
}

// Engine reconciles snapshots against a row store
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a new reconcile engine
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Reconcile makes store reflect snap under scope. Matching rows are updated in
// place, new partitions are appended and rows absent from snap are removed.
//
// If a node or block scope cannot be resolved to a host the call fails with
// ErrScopeResolution before any row is touched.
//
// Names are expected to be unique within snap. If they are not, every
// occurrence updates the first row with that name.
func (e *Engine) Reconcile(store rowstore.Store, snap *model.Snapshot, scope *model.Scope) (Result, error) {
	if snap == nil {
		return Result{}, ErrNilSnapshot
	}
	start := time.Now()

	var host string
	if scope != nil && (scope.Kind == model.ScopeNode || scope.Kind == model.ScopeBlock) {
		resolved, err := ResolveHost(scope)
		if err != nil {
			metrics.ReconcileErrors.WithLabelValues("scope_resolution").Inc()
			return Result{}, err
		}
		host = resolved
	}

	for i := 0; i < store.Len(); i++ {
		store.At(i).SetTouched(false)
	}

	var res Result
	seen := make(map[string]struct{})
	for _, rec := range snap.Partitions {
		if rec.Nodes == "" {
			res.Skipped++
			continue
		}

		ok, err := Included(scope, host, rec)
		if err != nil {
			e.diagnose(&res, seen, err)
		}
		if !ok {
			res.Skipped++
			continue
		}

		row, next := Find(store, rec.Name)
		if row == nil {
			row = store.Append(model.Row{Position: next, Name: rec.Name})
			applyRecord(row, rec)
			res.Added++
		} else if applyRecord(row, rec) {
			res.Updated++
		}
		row.SetTouched(true)
	}

	res.Removed = store.RemoveFunc(func(r *model.Row) bool {
		return !r.Touched()
	})

	metrics.ReconcileRows.WithLabelValues(metrics.ActionAdded).Add(float64(res.Added))
	metrics.ReconcileRows.WithLabelValues(metrics.ActionUpdated).Add(float64(res.Updated))
	metrics.ReconcileRows.WithLabelValues(metrics.ActionRemoved).Add(float64(res.Removed))
	metrics.ReconcileRows.WithLabelValues(metrics.ActionSkipped).Add(float64(res.Skipped))
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())

	e.logger.Debug("reconciled partitions",
		slog.Int("records", len(snap.Partitions)),
		slog.Int("rows", store.Len()),
		slog.Int("added", res.Added),
		slog.Int("updated", res.Updated),
		slog.Int("removed", res.Removed),
		slog.Int("skipped", res.Skipped),
	)

	return res, nil
}

func (e *Engine) diagnose(res *Result, seen map[string]struct{}, err error) {
	msg := err.Error()
	if _, ok := seen[msg]; ok {
		return
	}
	seen[msg] = struct{}{}
	res.Diagnostics = append(res.Diagnostics, msg)

	reason := "filter"
	if errors.Is(err, ErrUnknownScopeKind) {
		reason = "unknown_scope_kind"
	}
	metrics.ReconcileErrors.WithLabelValues(reason).Inc()

	e.logger.Warn("partition filter failed",
		slog.String("reason", reason),
		slog.String("error", msg),
	)
}

// applyRecord writes the displayed fields derived from rec and reports whether any changed.
// Position is left alone.
func applyRecord(row *model.Row, rec model.Partition) bool {
	avail := model.AvailDown
	if rec.Up {
		avail = model.AvailUp
	}

	timeLimit := "infinite"
	if !rec.IsInfinite() {
		timeLimit = format.Duration(int64(rec.MaxTime) * 60)
	}

	nodeCount := format.Kilo(uint64(rec.TotalNodes))

	changed := row.Name != rec.Name ||
		row.Avail != avail ||
		row.TimeLimit != timeLimit ||
		row.NodeCount != nodeCount ||
		row.NodeList != rec.Nodes

	row.Name = rec.Name
	row.Avail = avail
	row.TimeLimit = timeLimit
	row.NodeCount = nodeCount
	row.NodeList = rec.Nodes
	return changed
}
