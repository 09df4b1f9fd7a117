package main

import (
	"fmt"
	"runtime"

	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/spf13/cobra"
)

type Version struct {
	version    string
	goCompiler string
}

func (v Version) String() string {
	return fmt.Sprintf("%v (%v)", v.version, v.goCompiler)
}

func GetVersion() Version {
	return Version{
		version:    utils.VersionStr,
		goCompiler: runtime.Version(),
	}
}

func NewVersionCmd() *cobra.Command {
	var server bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the client version, and optionally the server one",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client: %v\n", GetVersion())
			if !server {
				return nil
			}
			client, err := initClient()
			if err != nil {
				return err
			}
			v, err := client.CheckVersion()
			if v != nil {
				fmt.Fprintf(out, "Server: %v (%v)\n", v.Version, v.Go)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "Also query the server at --url and check compatibility")
	return cmd
}
