package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Checks the database, deferred storage and change stream",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Time taken by the check"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		// The system of record is required; without it nothing works.
		"database": checkComponent(ctx, s.store, statusUnhealthy),
		"deferred": checkComponent(ctx, s.services.Deferred, statusDegraded),
	}
	if events := s.services.Events; events != nil {
		components["events"] = ComponentHealth{
			Status:  statusHealthy,
			Message: strconv.Itoa(events.ClientCount()) + " open streams",
		}
	}

	overall := statusHealthy
	for _, c := range components {
		if rank(c.Status) > rank(overall) {
			overall = c.Status
		}
	}

	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

// checkComponent pings p and reports failure with the given status.
func checkComponent(ctx context.Context, p Pinger, onFailure string) ComponentHealth {
	if p == nil {
		return ComponentHealth{Status: statusDegraded, Message: "not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start).String()
	if err != nil {
		return ComponentHealth{Status: onFailure, Latency: latency, Message: "ping failed"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency}
}

func rank(status string) int {
	switch status {
	case statusUnhealthy:
		return 2
	case statusDegraded:
		return 1
	default:
		return 0
	}
}
