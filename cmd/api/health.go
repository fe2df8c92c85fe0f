package main

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// pinger reports whether the backing database is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// healthServer exposes the standard gRPC health service for orchestrators
// that probe over gRPC instead of HTTP.
type healthServer struct {
	grpc   *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func newHealthServer(log *zap.Logger) *healthServer {
	hs := health.NewServer()
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	return &healthServer{grpc: s, health: hs, log: log}
}

// setServing flips the overall status reported under the empty service name.
func (h *healthServer) setServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}

// watch pings the database every interval and mirrors the result until ctx ends.
func (h *healthServer) watch(ctx context.Context, db pinger, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := db.Ping(pctx)
		if err != nil && ctx.Err() == nil {
			h.log.Warn("database ping failed", zap.Error(err))
		}
		h.setServing(err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (h *healthServer) serve(lis net.Listener) error {
	return h.grpc.Serve(lis)
}

// stop marks every service as not serving and drains in-flight probes.
func (h *healthServer) stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
