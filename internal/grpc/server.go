// Package server exposes the standard gRPC health service for the sensor
// bridge. The fo_energy_production service reports SERVING while at least one
// entity holds a value.
package server

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	middleware "github.com/tejusbharadwaj/foenergy/internal/grpc/middlewares"
	"github.com/tejusbharadwaj/foenergy/internal/metrics"
)

// ServiceName is the health service name of the sensor bridge
const ServiceName = "fo_energy_production"

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimit:      5.0, // 5 requests per second
		RateLimitBurst: 10,  // Burst of 10 requests
	}
}

// SetupServer initializes the gRPC server with all middleware and registers
// the health service
func SetupServer(health *HealthChecker, m *metrics.Metrics, config ServerConfig, logger *logrus.Logger) *grpc.Server {
	limiter := rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)

	server := grpc.NewServer(
		grpc.UnaryInterceptor(
			chainUnaryInterceptors(
				// request id first so every later stage can log it
				middleware.ContextMiddleware,
				middleware.NewRateLimitingInterceptor(limiter),
				middleware.NewLoggingInterceptor(logger),
				middleware.NewMetricsInterceptor(m.Requests, m.Latency),
			),
		),
	)

	grpc_health_v1.RegisterHealthServer(server, health)
	return server
}

// chainUnaryInterceptors creates a single interceptor from multiple interceptors
func chainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			chainedInterceptor := chain
			chain = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return interceptor(currentCtx, currentReq, info, chainedInterceptor)
			}
		}
		return chain(ctx, req)
	}
}
