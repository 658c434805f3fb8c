package http

import (
	"github.com/go-employee-api/internal/application/auth"
	"github.com/go-employee-api/internal/application/employee"
	"github.com/go-employee-api/internal/observability"
	"github.com/go-employee-api/internal/transport/http/handler"
)

// Deps holds the services and probes the router wires into handlers.
type Deps struct {
	Auth      auth.Service
	Employees employee.Service
	Metrics   *observability.Metrics
	// Readiness is probed in order by GET /v1/health-check/ready.
	Readiness []handler.ReadinessCheck
}
