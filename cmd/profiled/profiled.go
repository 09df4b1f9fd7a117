package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/kuberlab/profiled/cmd/logging"
	"github.com/kuberlab/profiled/pkg/config"
	"github.com/kuberlab/profiled/pkg/profclient"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

const (
	defaultConfigPath = "~/.profiled/config.yaml"
	urlVar            = "PROFILED_URL"
	logLevelVar       = "LOG_LEVEL"
)

var (
	configPath string
	baseURL    string
	logLevel   string
)

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func initConfig(cmd *cobra.Command, args []string) error {
	config.Config = config.Default()
	if configPath != "" {
		path := expandHome(configPath)
		err := config.InitConfig(path)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist) && configPath == defaultConfigPath:
			// A missing default config is fine.
		default:
			return err
		}
	}

	cfg := config.Config
	config.InitConfigField(&cfg.LogLevel, logLevel, logLevelVar, logging.DefaultLevel)
	logging.InitLogging(cfg.LogLevel)

	from := config.InitConfigField(&cfg.URL, baseURL, urlVar, "http://localhost:"+cfg.HttpPort)
	logrus.Debugf("Using profiled at %v (source %v)", cfg.URL, from)
	return nil
}

func initClient() (*profclient.Client, error) {
	return profclient.NewClient(
		config.Config.URL,
		&profclient.Options{InternalKey: config.Config.InternalKey, InsecureSkipVerify: true},
	)
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:               "profiled",
		Short:             "Wall-clock profiler for named routines",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	p := rootCmd.PersistentFlags()
	// Declare common arguments.
	p.StringVar(&logLevel, "log-level", "", "Logging level. One of (debug, info, warning, error)")
	p.StringVarP(&configPath, "config", "", defaultConfigPath, "Path to config file")
	p.StringVar(&baseURL, "url", "", "Base url to profiled.")

	// Add all commands
	rootCmd.AddCommand(
		NewServeCmd(),
		NewBenchCmd(),
		NewReportCmd(),
		NewWatchCmd(),
		NewRecordCmd(),
		NewVersionCmd(),
	)
	rootCmd.AddCommand(completionCmd(rootCmd))
	return rootCmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
