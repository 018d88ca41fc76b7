// Package escalation runs the incident pipeline for short-notice broker
// cancellations: emergency claims, RM/SRM review deadlines and decisions.
package escalation

import (
	"visitops_backend/internal/escalation/handler"
	"visitops_backend/internal/escalation/repository"
	"visitops_backend/internal/escalation/service"
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the escalation module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new escalation module with all dependencies wired
func NewModule(pool *pgxpool.Pool, flags service.FlagIssuer, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, flags, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "escalation"
}

// Service exposes the escalation service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the RM/SRM incident routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
