package bench

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noWork(ctx context.Context, name string) error {
	return nil
}

func TestRunCounts(t *testing.T) {
	p := profiler.NewProfiler()
	var done int64
	opts := Options{
		Workers:     8,
		Iterations:  25,
		Names:       []string{"a", "b"},
		Concurrency: 3,
		Work:        noWork,
		OnDone: func(string) {
			atomic.AddInt64(&done, 1)
		},
	}
	require.NoError(t, Run(context.Background(), p, opts))

	require.Equal(t, int64(opts.Total()), atomic.LoadInt64(&done))
	for _, name := range opts.Names {
		data, ok := p.Get(name)
		require.True(t, ok)
		require.Equal(t, uint64(200), data.Count)
	}
	require.Equal(t, 2, p.Len())
}

func TestRunDefaults(t *testing.T) {
	p := profiler.NewProfiler()
	require.NoError(t, Run(context.Background(), p, Options{Workers: 2, Iterations: 1}))

	entries := p.Snapshot()
	require.Len(t, entries, len(DefaultNames))
	require.ElementsMatch(t, DefaultNames, []string{entries[0].Name, entries[1].Name, entries[2].Name})
	for _, e := range entries {
		require.Equal(t, uint64(2), e.Count)
	}
}

func TestRunConcurrencyLimit(t *testing.T) {
	var running, peak int64
	work := func(ctx context.Context, name string) error {
		n := atomic.AddInt64(&running, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
				break
			}
		}
		atomic.AddInt64(&running, -1)
		return nil
	}
	opts := Options{Workers: 10, Iterations: 50, Names: []string{"x"}, Concurrency: 2, Work: work}
	require.NoError(t, Run(context.Background(), profiler.NewProfiler(), opts))
	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestRunWorkError(t *testing.T) {
	p := profiler.NewProfiler()
	boom := errors.New("boom")
	err := Run(context.Background(), p, Options{
		Workers:    4,
		Iterations: 100,
		Names:      []string{"fail"},
		Work: func(ctx context.Context, name string) error {
			return boom
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")

	// Failed calls are still timed.
	data, ok := p.Get("fail")
	require.True(t, ok)
	require.GreaterOrEqual(t, data.Count, uint64(1))
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	err := Run(ctx, profiler.NewProfiler(), Options{
		Workers:    4,
		Iterations: 1000000,
		Names:      []string{"n"},
		Work:       noWork,
		OnDone: func(string) {
			once.Do(cancel)
		},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunInvalidOptions(t *testing.T) {
	p := profiler.NewProfiler()
	require.Error(t, Run(context.Background(), p, Options{Workers: 0, Iterations: 1}))
	require.Error(t, Run(context.Background(), p, Options{Workers: 1, Iterations: 0}))
	require.Error(t, Run(context.Background(), p, Options{Workers: 1, Iterations: 1, Names: []string{""}}))
	require.Equal(t, 0, p.Len())
}
