package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/kuberlab/profiled/pkg/api"
	"github.com/kuberlab/profiled/pkg/config"
	"github.com/kuberlab/profiled/pkg/grpc"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveCmd struct {
	httpPort        string
	grpcPort        string
	profileRequests bool
}

func NewServeCmd() *cobra.Command {
	serve := &serveCmd{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the profiler over HTTP, websocket and gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve.run(ctx, profiler.Default())
		},
	}

	f := cmd.Flags()
	f.StringVar(&serve.httpPort, "http-port", "", "HTTP port, overrides PROFILED_HTTP_PORT")
	f.StringVar(&serve.grpcPort, "grpc-port", "", "gRPC port, overrides "+utils.PortGrpcVar)
	f.BoolVar(&serve.profileRequests, "profile-requests", false, "Record API handlers into the served profiler")
	return cmd
}

func (cmd *serveCmd) run(ctx context.Context, p *profiler.Profiler) error {
	cfg := config.Config
	if cmd.httpPort != "" {
		cfg.HttpPort = cmd.httpPort
	}
	if cmd.grpcPort != "" {
		cfg.GrpcPort = cmd.grpcPort
	}
	if cmd.profileRequests {
		cfg.ProfileRequests = true
	}
	if utils.DebugEnabled() {
		utils.PrintEnvInfo()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.NewAPI(p, cfg).Start(gctx, ":"+cfg.HttpPort)
	})
	g.Go(func() error {
		return grpc.Start(gctx, ":"+cfg.GrpcPort, p)
	})
	err := g.Wait()
	logrus.Info("Stopped.")
	return err
}
