package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/partview/internal/model"
)

func TestTTLCache(t *testing.T) {
	c := New(time.Minute)
	snap := &model.Snapshot{LastUpdate: time.Unix(100, 0)}

	_, ok := c.Get("slurm")
	assert.False(t, ok)

	c.Set("slurm", snap)
	got, ok := c.Get("slurm")
	require.True(t, ok)
	assert.Same(t, snap, got)

	c.Delete("slurm")
	_, ok = c.Get("slurm")
	assert.False(t, ok)

	c.Set("a", snap)
	c.Set("b", snap)
	c.Clear()
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_Expires(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("slurm", &model.Snapshot{})

	assert.Eventually(t, func() bool {
		_, ok := c.Get("slurm")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
