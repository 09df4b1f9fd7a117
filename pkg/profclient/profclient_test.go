package profclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	liberrs "github.com/kuberlab/lib/pkg/errors"
	"github.com/kuberlab/profiled/pkg/api"
	"github.com/kuberlab/profiled/pkg/config"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.ProfiledConfig) (*profiler.Profiler, *httptest.Server) {
	p := profiler.NewProfiler()
	if cfg == nil {
		cfg = config.Default()
		cfg.InternalKey = ""
	}
	srv := httptest.NewServer(api.NewAPI(p, cfg).Build())
	t.Cleanup(srv.Close)
	return p, srv
}

func TestNewClientDefaultsPath(t *testing.T) {
	c, err := NewClient("http://localhost:8082/", nil)
	require.NoError(t, err)
	assert.Equal(t, utils.ApiPrefix, c.BaseURL.Path)
	assert.Equal(t, "ws://localhost:8082/profiler/v1/watch", c.watchURL())

	c, err = NewClient("https://example.com/custom", nil)
	require.NoError(t, err)
	assert.Equal(t, "/custom", c.BaseURL.Path)
	assert.Equal(t, "wss://example.com/custom/watch", c.watchURL())

	_, err = NewClient("localhost", nil)
	require.Error(t, err)
}

func TestSnapshotAndGet(t *testing.T) {
	p, srv := newTestServer(t, nil)
	p.Record("b", 2*time.Second)
	p.Record("a", time.Second)
	p.Record("a/nested", time.Millisecond)

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	entries, err := c.Snapshot()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a/nested", entries[0].Name)
	assert.Equal(t, "a", entries[1].Name)
	assert.Equal(t, "b", entries[2].Name)

	e, err := c.Get("a/nested")
	require.NoError(t, err)
	assert.Equal(t, profiler.ProfileData{TotalDuration: time.Millisecond, Count: 1}, e.ProfileData)

	_, err = c.Get("missing")
	require.Error(t, err)
	var libErr *liberrs.Error
	require.True(t, errors.As(err, &libErr))
	assert.Equal(t, "Entry 'missing' not found", libErr.Message)
}

func TestReport(t *testing.T) {
	p, srv := newTestServer(t, nil)
	p.Record("render", time.Second)

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	text, err := c.Report("text")
	require.NoError(t, err)
	assert.Equal(t, "render = 1s (1 calls)\n", text)

	_, err = c.Report("xml")
	require.Error(t, err)
}

func TestRecordSample(t *testing.T) {
	p, srv := newTestServer(t, nil)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.RecordSample("remote", time.Second)
	require.NoError(t, err)
	e, err := c.RecordSample("remote", 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e.Count)
	assert.Equal(t, 1500*time.Millisecond, e.TotalDuration)

	data, ok := p.Get("remote")
	require.True(t, ok)
	assert.Equal(t, e.ProfileData, data)

	_, err = c.RecordSample("", time.Second)
	require.Error(t, err)
	_, err = c.RecordSample("neg", -time.Second)
	require.Error(t, err)
}

func TestRecordSampleInternalKey(t *testing.T) {
	cfg := config.Default()
	cfg.InternalKey = "secret"
	_, srv := newTestServer(t, cfg)

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	_, err = c.RecordSample("f", time.Millisecond)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Unauthorized"))

	c, err = NewClient(srv.URL, &Options{InternalKey: "secret"})
	require.NoError(t, err)
	_, err = c.RecordSample("f", time.Millisecond)
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	_, srv := newTestServer(t, nil)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	v, err := c.CheckVersion()
	require.NoError(t, err)
	assert.Equal(t, utils.VersionStr, v.Version)
}

func TestWatch(t *testing.T) {
	p, srv := newTestServer(t, nil)
	p.Record("boot", time.Second)

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop := errors.New("stop")
	var got []profiler.Entry
	err = c.Watch(ctx, func(entries []profiler.Entry) error {
		got = entries
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Len(t, got, 1)
	assert.Equal(t, "boot", got[0].Name)
}

func TestWatchCancel(t *testing.T) {
	_, srv := newTestServer(t, nil)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan struct{})
	once := sync.Once{}
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(entries []profiler.Entry) error {
			once.Do(func() { close(first) })
			return nil
		})
	}()

	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot received")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
