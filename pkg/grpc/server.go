package grpc

import (
	"context"
	"net"
	"time"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// UnaryServerInterceptor records every unary call under its full method name.
func UnaryServerInterceptor(p *profiler.Profiler) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		defer p.Start(info.FullMethod)()
		return handler(ctx, req)
	}
}

// StreamServerInterceptor records every stream, from open to the handler's return.
func StreamServerInterceptor(p *profiler.Profiler) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		defer p.Start(info.FullMethod)()
		return handler(srv, ss)
	}
}

func NewServer(p *profiler.Profiler) *grpc.Server {
	s := grpc.NewServer(
		grpc.WriteBufferSize(1024*32),
		grpc.ReadBufferSize(1024*32),
		grpc.MaxConcurrentStreams(64),
		grpc.KeepaliveParams(keepalive.ServerParameters{Time: time.Duration(0)}),
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(p)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(p)),
	)
	healthpb.RegisterHealthServer(s, health.NewServer())
	return s
}

// Serve runs s on lis until ctx is done.
func Serve(ctx context.Context, s *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logrus.Info("Shutting down grpc server...")
		s.GracefulStop()
		return nil
	}
}

func Start(ctx context.Context, addr string, p *profiler.Profiler) error {
	logrus.Infof("Starting grpc server at %v", addr)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, NewServer(p), lis)
}
