package main

import (
	"errors"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/report"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/spf13/cobra"
)

func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <name> <duration>",
		Short: "Record one sample on a running profiled server",
		Long: `Record one sample on a running profiled server.

Duration is a Go duration ("250ms", "1.5s") or a number of nanoseconds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validation
			if len(args) != 2 {
				return errors.New("Expected exactly two arguments: <name> <duration>")
			}
			if args[0] == "" {
				return errors.New("Name must not be empty")
			}
			d, err := utils.ParseSampleDuration(args[1])
			if err != nil {
				return err
			}

			client, err := initClient()
			if err != nil {
				return err
			}
			entry, err := client.RecordSample(args[0], d)
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), report.FormatText, []profiler.Entry{*entry}, false)
		},
	}
	return cmd
}
