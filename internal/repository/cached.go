package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirychukyurii/partview/internal/cache"
	"github.com/kirychukyurii/partview/internal/model"
)

// sharedFetchTimeout bounds one upstream call made on behalf of all waiting callers
const sharedFetchTimeout = time.Minute

// cachedRepository shares one upstream snapshot between all sessions for the
// cache TTL. Concurrent misses are collapsed into a single upstream call.
type cachedRepository struct {
	next   PartitionRepository
	cache  cache.SnapshotCache
	key    string
	logger *slog.Logger

	sf   singleflight.Group
	mu   sync.Mutex
	last *model.Snapshot
}

// NewCachedRepository wraps next with a snapshot cache stored under key
func NewCachedRepository(next PartitionRepository, snapshots cache.SnapshotCache, key string, logger *slog.Logger) PartitionRepository {
	return &cachedRepository{
		next:   next,
		cache:  snapshots,
		key:    key,
		logger: logger,
	}
}

// Fetch returns the cached snapshot, refreshing it from upstream when expired.
// The shared upstream call does not inherit the caller's cancellation; a
// caller whose ctx ends stops waiting without failing the others.
func (r *cachedRepository) Fetch(ctx context.Context, since time.Time) (*model.Snapshot, error) {
	snap, ok := r.cache.Get(r.key)
	if !ok {
		ch := r.sf.DoChan(r.key, func() (any, error) {
			if cached, ok := r.cache.Get(r.key); ok {
				return cached, nil
			}
			fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
			defer cancel()
			return r.refresh(fetchCtx)
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		snap = res.Val.(*model.Snapshot)

		if res.Shared {
			r.logger.Debug("shared upstream partition fetch", slog.String("source", r.key))
		}
	}

	if !isNewer(snap, since) {
		return nil, ErrNoChange
	}
	return snap, nil
}

// refresh asks upstream for changes since the last snapshot it returned
func (r *cachedRepository) refresh(ctx context.Context) (*model.Snapshot, error) {
	r.mu.Lock()
	prev := r.last
	r.mu.Unlock()

	var since time.Time
	if prev != nil {
		since = prev.LastUpdate
	}

	snap, err := r.next.Fetch(ctx, since)
	switch {
	case errors.Is(err, ErrNoChange) && prev != nil:
		snap = prev
	case err != nil:
		return nil, err
	}

	r.mu.Lock()
	r.last = snap
	r.mu.Unlock()

	r.cache.Set(r.key, snap)
	return snap, nil
}
