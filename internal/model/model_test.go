package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_Title(t *testing.T) {
	tests := []struct {
		name  string
		scope *Scope
		want  string
	}{
		{name: "unscoped", scope: nil, want: "Partitions"},
		{name: "job", scope: &Scope{Kind: ScopeJob, Data: "debug"}, want: "Partition debug"},
		{name: "node", scope: &Scope{Kind: ScopeNode, Data: "n[1-4]"}, want: "Partition(s) with node(s) n[1-4]"},
		{name: "block", scope: &Scope{Kind: ScopeBlock, Data: "bp1"}, want: "Partition(s) with block bp1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Title())
		})
	}
}

func TestParseScopeKind(t *testing.T) {
	k, err := ParseScopeKind(" Node ")
	require.NoError(t, err)
	assert.Equal(t, ScopeNode, k)

	_, err = ParseScopeKind("cluster")
	assert.Error(t, err)
}

func TestScope_JSON(t *testing.T) {
	data, err := json.Marshal(Scope{Kind: ScopeBlock, Data: "bp1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"block","data":"bp1"}`, string(data))

	var s Scope
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"job","data":"debug"}`), &s))
	assert.Equal(t, Scope{Kind: ScopeJob, Data: "debug"}, s)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"cluster"}`), &s))
}

func TestMode_Text(t *testing.T) {
	for _, m := range []Mode{ModeUninitialized, ModeError, ModeShowing} {
		text, err := m.MarshalText()
		require.NoError(t, err)

		var got Mode
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, m, got)
	}

	var m Mode
	assert.Error(t, m.UnmarshalText([]byte("broken")))
}

func TestSnapshot_Lookup(t *testing.T) {
	var nilSnap *Snapshot
	_, ok := nilSnap.Lookup("debug")
	assert.False(t, ok)

	snap := &Snapshot{
		LastUpdate: time.Unix(1, 0),
		Partitions: []Partition{
			{Name: "debug", Nodes: "n1"},
			{Name: "debug", Nodes: "n2"},
		},
	}
	p, ok := snap.Lookup("debug")
	require.True(t, ok)
	assert.Equal(t, "n1", p.Nodes)

	_, ok = snap.Lookup("batch")
	assert.False(t, ok)
}

func TestPartition_IsInfinite(t *testing.T) {
	p := Partition{MaxTime: InfiniteTime}
	assert.True(t, p.IsInfinite())
	p.MaxTime = 60
	assert.False(t, p.IsInfinite())
}
