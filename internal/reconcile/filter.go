package reconcile

import (
	"errors"
	"fmt"

	"github.com/kirychukyurii/partview/internal/hostlist"
	"github.com/kirychukyurii/partview/internal/model"
)

var (
	// ErrScopeResolution is returned when a node or block scope names no host
	ErrScopeResolution = errors.New("scope node list is empty")

	// ErrUnknownScopeKind is returned for a scope tag the filter does not handle
	ErrUnknownScopeKind = errors.New("unknown scope kind")
)

// ResolveHost returns the representative host of a node or block scope:
// the first host of the scope's node list
func ResolveHost(scope *model.Scope) (string, error) {
	host := hostlist.First(scope.Data)
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrScopeResolution, scope.Data)
	}
	return host, nil
}

// Included reports whether rec belongs in a view with the given scope.
// host is the representative host of node and block scopes; it is ignored
// for other kinds. A partition with no nodes is never included.
func Included(scope *model.Scope, host string, rec model.Partition) (bool, error) {
	if rec.Nodes == "" {
		return false, nil
	}
	if scope == nil {
		return true, nil
	}

	switch scope.Kind {
	case model.ScopeJob:
		return rec.Name == scope.Data, nil
	case model.ScopeNode, model.ScopeBlock:
		if host == "" {
			return false, nil
		}
		found, err := hostlist.Contains(rec.Nodes, host)
		if err != nil {
			return false, fmt.Errorf("partition %s: %w", rec.Name, err)
		}
		return found, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownScopeKind, int(scope.Kind))
	}
}
