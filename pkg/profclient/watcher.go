package profclient

import (
	"context"
	"time"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/sirupsen/logrus"
)

const sleepLimit = 10

// Watcher keeps a snapshot stream open across server restarts.
type Watcher struct {
	client  *Client
	attempt int
	// Backoff is the delay unit between reconnects. The first retry after a
	// failure is immediate and the n-th waits (n-1)*Backoff, at most
	// sleepLimit*Backoff.
	Backoff time.Duration
}

func (c *Client) NewWatcher() *Watcher {
	return &Watcher{client: c, Backoff: time.Second}
}

// Run streams snapshots to fn until ctx is done or fn returns an error.
// Connection errors are logged and followed by a reconnect.
func (w *Watcher) Run(ctx context.Context, fn func([]profiler.Entry) error) error {
	for {
		var fnErr error
		err := w.client.Watch(ctx, func(entries []profiler.Entry) error {
			w.attempt = 0
			fnErr = fn(entries)
			return fnErr
		})
		if fnErr != nil {
			return fnErr
		}
		if ctx.Err() != nil {
			return nil
		}

		toSleep := w.attempt
		if toSleep > sleepLimit {
			toSleep = sleepLimit
		}
		delay := w.Backoff * time.Duration(toSleep)
		logrus.Warnf("[Watcher] %v; reconnect in %v", err, delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		w.attempt++
	}
}
