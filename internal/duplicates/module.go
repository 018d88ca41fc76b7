// Package duplicates routes suspected duplicate listings through an RM review
// queue.
package duplicates

import (
	"visitops_backend/internal/duplicates/handler"
	"visitops_backend/internal/duplicates/repository"
	"visitops_backend/internal/duplicates/scoring"
	"visitops_backend/internal/duplicates/service"
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the duplicate detection and review module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new duplicates module. A nil scorer selects the default
// heuristic.
func NewModule(pool *pgxpool.Pool, score scoring.Scorer, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, score, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "duplicates"
}

// Service exposes the duplicates service for the inventory module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the RM review queue routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
