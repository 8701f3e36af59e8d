package server

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// AvailabilityReader reports whether any sensor currently has a value
type AvailabilityReader interface {
	AnyAvailable() bool
}

// HealthChecker implements the gRPC health checking protocol
type HealthChecker struct {
	grpc_health_v1.UnimplementedHealthServer
	mu     sync.RWMutex
	status map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
}

// NewHealthChecker reports the server itself as SERVING and the sensor
// bridge as NOT_SERVING until the first successful refresh
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		status: map[string]grpc_health_v1.HealthCheckResponse_ServingStatus{
			"":          grpc_health_v1.HealthCheckResponse_SERVING,
			ServiceName: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		},
	}
}

func (h *HealthChecker) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if status, ok := h.status[req.Service]; ok {
		return &grpc_health_v1.HealthCheckResponse{
			Status: status,
		}, nil
	}

	return nil, status.Error(codes.NotFound, "unknown service")
}

func (h *HealthChecker) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	return status.Error(codes.Unimplemented, "watching is not supported")
}

// SetServingStatus sets the serving status of a service
func (h *HealthChecker) SetServingStatus(service string, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status[service] = status
}

// Sync derives the sensor bridge's status from the entity registry
func (h *HealthChecker) Sync(reader AvailabilityReader) {
	serving := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if reader.AnyAvailable() {
		serving = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.SetServingStatus(ServiceName, serving)
}

// Shutdown marks every service NOT_SERVING
func (h *HealthChecker) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for service := range h.status {
		h.status[service] = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
}
