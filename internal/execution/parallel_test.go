package execution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunParallel_Sum(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = i + 1
	}

	for _, threads := range []int{1, 3, 8, 2000} {
		c := NewContext(context.Background(), threads, nil, zap.NewNop())
		sum, err := RunParallel(c, items,
			func() int { return 0 },
			func(v int, acc int) (int, error) { return acc + v, nil },
			func(a, b int) int { return a + b })
		require.NoError(t, err)
		assert.Equal(t, 500500, sum, "threads=%d", threads)
	}
}

func TestRunParallel_PreservesChunkOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	c := NewContext(context.Background(), 3, nil, zap.NewNop())

	joined, err := RunParallel(c, items,
		func() []string { return nil },
		func(s string, acc []string) ([]string, error) { return append(acc, s), nil },
		func(a, b []string) []string { return append(a, b...) })
	require.NoError(t, err)
	assert.Equal(t, items, joined)
}

func TestRunParallel_Empty(t *testing.T) {
	c := NewContext(context.Background(), 4, nil, zap.NewNop())
	v, err := RunParallel(c, nil,
		func() int { return 42 },
		func(v int, acc int) (int, error) { return acc, nil },
		func(a, b int) int { return a + b })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRunParallel_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3, 4, 5, 6}
	c := NewContext(context.Background(), 2, nil, zap.NewNop())

	_, err := RunParallel(c, items,
		func() int { return 0 },
		func(v int, acc int) (int, error) {
			if v == 4 {
				return acc, boom
			}
			return acc + v, nil
		},
		func(a, b int) int { return a + b })
	assert.True(t, errors.Is(err, boom))
}

func TestRunParallel_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewContext(ctx, 2, nil, zap.NewNop())

	items := make([]int, 100)
	var once sync.Once
	_, err := RunParallel(c, items,
		func() int { return 0 },
		func(v int, acc int) (int, error) {
			once.Do(cancel)
			return acc + 1, nil
		},
		func(a, b int) int { return a + b })

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.True(t, IsCanceled(err))

	_, err = RunParallel(c, items,
		func() int { return 0 },
		func(v int, acc int) (int, error) { return acc, nil },
		func(a, b int) int { return a + b })
	assert.True(t, errors.Is(err, ErrCanceled))
}

func TestMap_KeepsOrder(t *testing.T) {
	c := NewContext(context.Background(), 4, nil, zap.NewNop())
	out, err := Map(c, []int{3, 1, 2, 5, 4}, func(v int) (int, error) { return v * v, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{9, 1, 4, 25, 16}, out)
}

func TestProgress_SubRanges(t *testing.T) {
	var mu sync.Mutex
	var reported []float64
	root := NewProgress(func(f float64) {
		mu.Lock()
		reported = append(reported, f)
		mu.Unlock()
	})

	build := root.Sub(0, 0.1)
	optimise := root.Sub(0.1, 1)

	build.Set(0.5)
	assert.InDelta(t, 0.05, root.Value(), 1e-9)
	build.Done()
	assert.InDelta(t, 0.1, root.Value(), 1e-9)

	optimise.Set(0.5)
	assert.InDelta(t, 0.55, root.Value(), 1e-9)

	// progress never goes backwards
	build.Set(0.2)
	assert.InDelta(t, 0.55, root.Value(), 1e-9)

	optimise.Sub(0.5, 1).Done()
	assert.InDelta(t, 1.0, root.Value(), 1e-9)
	assert.Len(t, reported, 4)
}

func TestRunParallel_ReportsProgress(t *testing.T) {
	p := NewProgress(nil)
	c := NewContext(context.Background(), 4, p.Sub(0.5, 1), zap.NewNop())
	_, err := RunParallel(c, []int{1, 2, 3, 4},
		func() int { return 0 },
		func(v int, acc int) (int, error) { return acc + v, nil },
		func(a, b int) int { return a + b })
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Value(), 1e-9)
}

func TestRunParallel_UnevenSplits(t *testing.T) {
	for n := 1; n <= 20; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for threads := 1; threads <= 16; threads++ {
			c := NewContext(context.Background(), threads, nil, zap.NewNop())
			seen, err := RunParallel(c, items,
				func() []int { return nil },
				func(v int, acc []int) ([]int, error) { return append(acc, v), nil },
				func(a, b []int) []int { return append(a, b...) })
			require.NoError(t, err, "n=%d threads=%d", n, threads)
			assert.Equal(t, items, seen, "n=%d threads=%d", n, threads)
		}
	}
}

func TestRunParallel_RecoversWorkerPanic(t *testing.T) {
	c := NewContext(context.Background(), 4, nil, zap.NewNop())
	_, err := RunParallel(c, []int{1, 2, 3, 4, 5},
		func() int { return 0 },
		func(v int, acc int) (int, error) {
			if v == 3 {
				panic("bad item")
			}
			return acc + v, nil
		},
		func(a, b int) int { return a + b })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad item")
	assert.False(t, IsCanceled(err))
}
