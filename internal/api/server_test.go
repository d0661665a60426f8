package api

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"homeservices/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startGRPC(t *testing.T, probe Probe) (*GRPCServer, healthpb.HealthClient) {
	t.Helper()
	logger := zerolog.Nop()
	s, err := NewGRPCServer(config.APIConfig{GRPC: config.APIGRPCConfig{Port: 0, Reflection: true}}, probe, &logger)
	require.NoError(t, err)

	go func() {
		_ = s.Serve()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})

	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	conn, err := grpc.NewClient(net.JoinHostPort("127.0.0.1", port), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return s, healthpb.NewHealthClient(conn)
}

func TestGRPCHealthServing(t *testing.T) {
	_, client := startGRPC(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, name := range []string{"", ServiceName} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}

func TestGRPCHealthFollowsProbe(t *testing.T) {
	var failing atomic.Bool
	s, client := startGRPC(t, func(ctx context.Context) error {
		if failing.Load() {
			return errors.New("database is down")
		}
		return nil
	})

	watchCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go s.Watch(watchCtx, 20*time.Millisecond)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	failing.Store(true)
	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	failing.Store(false)
	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGRPCServerAddr(t *testing.T) {
	s, _ := startGRPC(t, nil)
	assert.NotEmpty(t, s.Addr())
	assert.NotEqual(t, ":0", s.Addr())
}
