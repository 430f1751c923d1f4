package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported next to "".
const ServiceName = "academic_assist.Portal"

// GRPCServer exposes readiness over the standard gRPC health protocol.
type GRPCServer struct {
	checker *Checker
	health  *health.Server
	logger  *slog.Logger
}

// NewGRPCServer registers the health service on srv. Status starts as
// NOT_SERVING until the first Update.
func NewGRPCServer(srv *grpc.Server, checker *Checker, logger *slog.Logger) *GRPCServer {
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{
		checker: checker,
		health:  hs,
		logger:  logger,
	}
}

// Update runs the checker once and publishes the result.
func (g *GRPCServer) Update(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if failures := g.checker.Check(ctx); len(failures) > 0 {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		for name, err := range failures {
			g.logger.WarnContext(ctx, "grpc health probe failed", "dependency", name, "error", err)
		}
	}

	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
	return status
}

// Run refreshes the status every interval until ctx is done.
func (g *GRPCServer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.Update(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Update(ctx)
		}
	}
}

// Shutdown flips every service to NOT_SERVING so clients drain first.
func (g *GRPCServer) Shutdown() {
	g.health.Shutdown()
}
