package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/simplify/marketplace-api/internal/infrastructure/http/handlers"
)

// RegisterOps mounts the operational routes on e: probes, Prometheus metrics
// and the OpenAPI browser. None of them require authentication.
func RegisterOps(e *echo.Echo, gatherer prometheus.Gatherer, checks ...handlers.Check) {
	// --- Health probes ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Metrics ---
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	// --- API docs ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
