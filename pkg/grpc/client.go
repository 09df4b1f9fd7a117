package grpc

import (
	"context"
	"fmt"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// UnaryClientInterceptor records every outgoing unary call, including the
// time spent waiting for the server, under the full method name.
func UnaryClientInterceptor(p *profiler.Profiler) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		defer p.Start(method)()
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

func NewClient(address string, p *profiler.Profiler, opts ...grpc.DialOption) (*Client, error) {
	opts = append(
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithChainUnaryInterceptor(UnaryClientInterceptor(p)),
		},
		opts...,
	)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("did not connect: %v", err)
	}

	logrus.Debugf("Created grpc client for %v.", address)

	return &Client{
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
	}, nil
}

// Check asks the server for its overall health status.
func (c *Client) Check(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.Status, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
