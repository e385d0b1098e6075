package model

import (
	"fmt"
	"strings"
)

// ScopeKind selects what a scoped view filters on
type ScopeKind int

const (
	ScopeJob ScopeKind = iota + 1
	ScopeNode
	ScopeBlock
)

// String returns the lowercase name of the kind
func (k ScopeKind) String() string {
	switch k {
	case ScopeJob:
		return "job"
	case ScopeNode:
		return "node"
	case ScopeBlock:
		return "block"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler
func (k ScopeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ScopeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseScopeKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseScopeKind converts a kind name ("job", "node", "block") to a ScopeKind
func ParseScopeKind(s string) (ScopeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job":
		return ScopeJob, nil
	case "node":
		return ScopeNode, nil
	case "block":
		return ScopeBlock, nil
	default:
		return 0, fmt.Errorf("unknown scope kind %q", s)
	}
}

// Scope restricts a view to the partitions relevant to a job, node or block.
// For ScopeJob, Data is a partition name. For ScopeNode and ScopeBlock, Data
// is a host-list expression whose first host is tested for membership.
// A nil *Scope means the view is unscoped.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	Data string    `json:"data"`
}

// Title returns the default view title for the scope
func (s *Scope) Title() string {
	if s == nil {
		return "Partitions"
	}
	switch s.Kind {
	case ScopeJob:
		return fmt.Sprintf("Partition %s", s.Data)
	case ScopeNode:
		return fmt.Sprintf("Partition(s) with node(s) %s", s.Data)
	case ScopeBlock:
		return fmt.Sprintf("Partition(s) with block %s", s.Data)
	default:
		return fmt.Sprintf("Partition(s) for %s %s", s.Kind, s.Data)
	}
}
