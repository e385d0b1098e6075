package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirychukyurii/partview/internal/cache"
	"github.com/kirychukyurii/partview/internal/config"
	"github.com/kirychukyurii/partview/internal/model"
)

// ErrNoChange is returned by Fetch when nothing changed since the given time
var ErrNoChange = errors.New("no change in partition data")

// PartitionRepository fetches partition snapshots from a resource manager
type PartitionRepository interface {
	// Fetch returns the current snapshot. A zero since forces a full fetch;
	// otherwise ErrNoChange is returned when the data is not newer than since.
	Fetch(ctx context.Context, since time.Time) (*model.Snapshot, error)
}

// New creates the repository for the configured source, wrapped in a
// TTL cache shared by every view session
func New(cfg *config.Config, snapshots cache.SnapshotCache, logger *slog.Logger) (PartitionRepository, error) {
	var (
		repo PartitionRepository
		err  error
	)

	switch cfg.Source {
	case config.SourceSlurm:
		repo, err = NewSlurmRepository(cfg.Slurm, logger)
	case config.SourceNomad:
		repo, err = NewNomadRepository(cfg.Nomad, logger)
	default:
		return nil, fmt.Errorf("unsupported source %q", cfg.Source)
	}
	if err != nil {
		return nil, err
	}

	return NewCachedRepository(repo, snapshots, cfg.Source, logger), nil
}

// isNewer reports whether snap should be returned for a caller that already has since
func isNewer(snap *model.Snapshot, since time.Time) bool {
	return since.IsZero() || snap.LastUpdate.After(since)
}
