package model

import (
	"math"
	"time"
)

// InfiniteTime marks a partition without a time limit
const InfiniteTime uint32 = math.MaxUint32

// Partition represents one partition as reported by the resource manager
type Partition struct {
	Name       string `json:"name"`
	Up         bool   `json:"up"`
	MaxTime    uint32 `json:"max_time"` // minutes, InfiniteTime when unbounded
	TotalNodes uint32 `json:"total_nodes"`
	MinNodes   uint32 `json:"min_nodes"`
	MaxNodes   uint32 `json:"max_nodes"`
	Nodes      string `json:"nodes"` // host-list expression, e.g. "n[1-4]"

	// Details only; not part of the reconciled row
	Default  bool   `json:"default"`
	Hidden   bool   `json:"hidden"`
	RootOnly bool   `json:"root_only"`
	Shared   string `json:"shared"` // NO, YES:n, FORCE:n or EXCLUSIVE
}

// IsInfinite returns true if the partition has no time limit
func (p *Partition) IsInfinite() bool {
	return p.MaxTime == InfiniteTime
}

// Snapshot is one complete partition listing returned by a fetch.
// A snapshot is never modified after it has been returned.
type Snapshot struct {
	Partitions []Partition `json:"partitions"`
	LastUpdate time.Time   `json:"last_update"`
}

// Lookup returns the first partition with the given name
func (s *Snapshot) Lookup(name string) (Partition, bool) {
	if s == nil {
		return Partition{}, false
	}
	for _, p := range s.Partitions {
		if p.Name == name {
			return p, true
		}
	}
	return Partition{}, false
}
