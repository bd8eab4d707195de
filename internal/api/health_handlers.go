package api

import (
	"context"
	"fmt"
	"net/http"
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
		Description: "Reports the state of the persistence service, the search index and the event stream",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// === DTOs ===

// ComponentHealth is the health of one dependency.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy, degraded or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Check latency"`
	Message string `json:"message,omitempty" doc:"Detail when not healthy"`
}

// HealthResponse is the overall health report.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status"`
	Components map[string]ComponentHealth `json:"components" doc:"Per-component status"`
	Counts     HealthCounts               `json:"counts" doc:"In-memory state sizes"`
}

// HealthCounts reports how much state the engine holds.
type HealthCounts struct {
	Books    int `json:"books"`
	Groups   int `json:"groups"`
	Sessions int `json:"sessions"`
}

// HealthOutput wraps the health report. Status is 503 when unhealthy.
type HealthOutput struct {
	Status int
	Body   HealthResponse
}

// === Handlers ===

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
		"sse":      s.checkSSEManager(),
	}

	overall := statusHealthy
	for name, c := range components {
		switch {
		case c.Status == statusUnhealthy && name == "database":
			overall = statusUnhealthy
		case c.Status != statusHealthy && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	code := http.StatusOK
	if overall == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	counts := HealthCounts{}
	counts.Books = len(s.services.Catalog.Books())
	counts.Groups = len(s.services.Community.Groups())
	counts.Sessions = s.services.Account.SessionCount()

	return &HealthOutput{
		Status: code,
		Body: HealthResponse{
			Status:     overall,
			Components: components,
			Counts:     counts,
		},
	}, nil
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.services.Remote == nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.services.Remote.Ping(ctx); err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: err.Error()}
	}
	return ComponentHealth{Status: statusHealthy, Latency: time.Since(start).String()}
}

func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search disabled"}
	}
	n, err := s.services.Search.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: statusDegraded, Message: err.Error()}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d documents", n)}
}

func (s *Server) checkSSEManager() ComponentHealth {
	if s.services.SSE == nil {
		return ComponentHealth{Status: statusDegraded, Message: "event stream disabled"}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d clients", s.services.SSE.ClientCount())}
}
