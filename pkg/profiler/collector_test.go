package profiler

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	p := NewProfiler()
	p.Record("load", 1500*time.Millisecond)
	p.Record("load", 500*time.Millisecond)
	p.Record("save", 250*time.Millisecond)

	expected := `
# HELP test_calls_total Number of recorded calls of a profiled routine.
# TYPE test_calls_total counter
test_calls_total{name="load"} 2
test_calls_total{name="save"} 1
# HELP test_duration_seconds_total Total time spent in a profiled routine.
# TYPE test_duration_seconds_total counter
test_duration_seconds_total{name="load"} 2
test_duration_seconds_total{name="save"} 0.25
`
	c := NewCollector(p, "test")
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestCollectorRegistry(t *testing.T) {
	p := NewProfiler()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(p, "")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	p.Record("a", time.Second)
	p.Record("b", time.Second)

	n, err = testutil.GatherAndCount(reg, "profiled_calls_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
