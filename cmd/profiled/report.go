package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/kuberlab/profiled/pkg/config"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func outputFormat(format string) (string, error) {
	if format == "" {
		format = config.Config.Format
	}
	return format, report.CheckFormat(format)
}

func NewReportCmd() *cobra.Command {
	var format string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the snapshot of a running profiled server",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(format)
			if err != nil {
				return err
			}
			client, err := initClient()
			if err != nil {
				return err
			}
			entries, err := client.Snapshot()
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), format, entries, pretty)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "o", "", "Output format. One of (table, text, json)")
	f.BoolVar(&pretty, "pretty", false, "Indent JSON output")
	return cmd
}

func NewWatchCmd() *cobra.Command {
	var format string
	var count int
	var reconnect bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream snapshots of a running profiled server",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(format)
			if err != nil {
				return err
			}
			client, err := initClient()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			watch := client.Watch
			if reconnect {
				watch = client.NewWatcher().Run
			}
			received := 0
			err = watch(ctx, func(entries []profiler.Entry) error {
				if received > 0 {
					fmt.Fprintln(out)
				}
				if err := report.Render(out, format, entries, false); err != nil {
					return err
				}
				received++
				if count > 0 && received >= count {
					cancel()
				}
				return nil
			})
			logrus.Debugf("Watch stopped after %v snapshots", received)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "o", "", "Output format. One of (table, text, json)")
	f.IntVarP(&count, "count", "n", 0, "Stop after this many snapshots (0 = until interrupted)")
	f.BoolVar(&reconnect, "reconnect", false, "Reconnect when the server goes away")
	return cmd
}
