package handler

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Component names reported through the gRPC health service.
const (
	HealthGateway   = "storefront.gateway"
	HealthInventory = "storefront.inventory"
)

// GRPCHandler exposes readiness of the gateway and the trigger consumer
// over the standard gRPC health protocol.
type GRPCHandler struct {
	health *health.Server
}

func NewGRPCHandler() *GRPCHandler {
	h := &GRPCHandler{health: health.NewServer()}
	h.health.SetServingStatus(HealthGateway, healthpb.HealthCheckResponse_NOT_SERVING)
	h.health.SetServingStatus(HealthInventory, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

func (h *GRPCHandler) SetServing(component string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(component, status)
}

// Shutdown marks every component as not serving.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}
