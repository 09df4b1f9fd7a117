// Package bench drives a Profiler with concurrent timed calls. It backs the
// "profiled bench" command and doubles as a stress test for the registry.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type Options struct {
	// Workers is the number of worker goroutines.
	Workers int
	// Iterations is the number of rounds each worker runs. A round calls
	// Work once for every name.
	Iterations int
	Names      []string
	// Concurrency caps how many workers run at once. Zero means Workers.
	Concurrency int64
	Work        func(ctx context.Context, name string) error
	// OnDone is called after every timed call. It must be safe for concurrent use.
	OnDone func(name string)
}

var DefaultNames = []string{"bench.fast", "bench.medium", "bench.slow"}

// SleepWork sleeps for a name-dependent interval, or until ctx is done.
func SleepWork(ctx context.Context, name string) error {
	d := 100 * time.Microsecond
	switch name {
	case "bench.medium":
		d = time.Millisecond
	case "bench.slow":
		d = 5 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Total is the number of timed calls Run makes when it is not interrupted.
func (o Options) Total() int {
	return o.Workers * o.Iterations * len(o.Names)
}

func (o *Options) validate() error {
	if o.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %v", o.Workers)
	}
	if o.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %v", o.Iterations)
	}
	if len(o.Names) == 0 {
		o.Names = DefaultNames
	}
	for _, name := range o.Names {
		if name == "" {
			return fmt.Errorf("empty routine name")
		}
	}
	if o.Concurrency <= 0 {
		o.Concurrency = int64(o.Workers)
	}
	if o.Work == nil {
		o.Work = SleepWork
	}
	return nil
}

// Run records Workers*Iterations calls of every name into p. The first Work
// error or the cancellation of ctx stops all workers.
func Run(ctx context.Context, p *profiler.Profiler, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	logrus.Debugf(
		"Bench: %v workers x %v iterations over %v names, concurrency %v",
		opts.Workers, opts.Iterations, len(opts.Names), opts.Concurrency,
	)

	sem := semaphore.NewWeighted(opts.Concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return runWorker(gctx, p, &opts)
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func runWorker(ctx context.Context, p *profiler.Profiler, opts *Options) error {
	for i := 0; i < opts.Iterations; i++ {
		for _, name := range opts.Names {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := p.RunE(name, func() error {
				return opts.Work(ctx, name)
			})
			if err != nil {
				return fmt.Errorf("%v: %v", name, err)
			}
			if opts.OnDone != nil {
				opts.OnDone(name)
			}
		}
	}
	return nil
}
