package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/partview/internal/model"
)

func TestIncluded(t *testing.T) {
	debug := model.Partition{Name: "debug", Nodes: "n[1-4]"}

	tests := []struct {
		name  string
		scope *model.Scope
		host  string
		rec   model.Partition
		want  bool
	}{
		{"unscoped", nil, "", debug, true},
		{"no nodes unscoped", nil, "", model.Partition{Name: "empty"}, false},
		{"job match", &model.Scope{Kind: model.ScopeJob, Data: "debug"}, "", debug, true},
		{"job mismatch", &model.Scope{Kind: model.ScopeJob, Data: "batch"}, "", debug, false},
		{"job no nodes", &model.Scope{Kind: model.ScopeJob, Data: "empty"}, "", model.Partition{Name: "empty"}, false},
		{"node member", &model.Scope{Kind: model.ScopeNode, Data: "n3"}, "n3", debug, true},
		{"node not member", &model.Scope{Kind: model.ScopeNode, Data: "n7"}, "n7", debug, false},
		{"node without host", &model.Scope{Kind: model.ScopeNode, Data: ""}, "", debug, false},
		{"block member", &model.Scope{Kind: model.ScopeBlock, Data: "n[2-3]"}, "n2", debug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Included(tt.scope, tt.host, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncluded_UnknownKind(t *testing.T) {
	ok, err := Included(&model.Scope{Kind: model.ScopeKind(9)}, "", model.Partition{Name: "a", Nodes: "n1"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownScopeKind)
}

func TestIncluded_MalformedNodeList(t *testing.T) {
	ok, err := Included(&model.Scope{Kind: model.ScopeNode, Data: "n1"}, "n1", model.Partition{Name: "bad", Nodes: "n[1-"})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestResolveHost(t *testing.T) {
	host, err := ResolveHost(&model.Scope{Kind: model.ScopeNode, Data: "n[3-5]"})
	require.NoError(t, err)
	assert.Equal(t, "n3", host)

	_, err = ResolveHost(&model.Scope{Kind: model.ScopeNode, Data: ""})
	assert.ErrorIs(t, err, ErrScopeResolution)
}
