package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelMap_PreservesOrder(t *testing.T) {
	results := ParallelMap(context.Background(), []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Duration(4-n) * time.Millisecond)
		return n * 10, nil
	})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, (i+1)*10, r.Value)
		assert.NoError(t, r.Error)
	}
}

func TestParallelMapWithLimit(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 10)

	ParallelMapWithLimit(context.Background(), items, func(ctx context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	}, 2)

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestAllErrors(t *testing.T) {
	boom := errors.New("boom")
	results := ParallelMap(context.Background(), []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	assert.Equal(t, []error{boom}, AllErrors(results))
	assert.Empty(t, AllErrors(results[:1]))
}

func TestParallelMap_Empty(t *testing.T) {
	results := ParallelMap(context.Background(), []int(nil), func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	assert.Empty(t, results)
}
