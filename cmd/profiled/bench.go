package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuberlab/profiled/pkg/bench"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/report"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"
)

type benchCmd struct {
	opts     bench.Options
	format   string
	pretty   bool
	progress bool
}

func NewBenchCmd() *cobra.Command {
	b := &benchCmd{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Hammer a local profiler with concurrent calls and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			format, err := outputFormat(b.format)
			if err != nil {
				return err
			}
			b.format = format
			b.progress = b.progress && isatty.IsTerminal(os.Stdout.Fd())
			return b.run(ctx, cmd, profiler.NewProfiler())
		},
	}

	f := cmd.Flags()
	f.IntVar(&b.opts.Workers, "workers", 16, "Number of worker goroutines")
	f.IntVar(&b.opts.Iterations, "iterations", 100, "Rounds per worker")
	f.Int64Var(&b.opts.Concurrency, "concurrency", 0, "Maximum workers running at once (0 = all)")
	f.StringSliceVar(&b.opts.Names, "names", bench.DefaultNames, "Routine names to time")
	f.StringVarP(&b.format, "format", "o", "", "Output format. One of (table, text, json)")
	f.BoolVar(&b.pretty, "pretty", false, "Indent JSON output")
	f.BoolVar(&b.progress, "progress", true, "Show a progress bar when attached to a terminal")
	return cmd
}

func (b *benchCmd) run(ctx context.Context, cmd *cobra.Command, p *profiler.Profiler) error {
	opts := b.opts
	var bar *pb.ProgressBar
	if b.progress {
		bar = pb.New(opts.Total())
		bar.SetMaxWidth(100)
		bar.ShowSpeed = true
		bar.Start()
		opts.OnDone = func(string) {
			bar.Increment()
		}
	}

	err := bench.Run(ctx, p, opts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	logrus.Debugf("Bench finished: %v calls", opts.Total())
	return report.Render(cmd.OutOrStdout(), b.format, p.Snapshot(), b.pretty)
}
