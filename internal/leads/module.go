// Package leads imports external customer leads and folds them into the
// shared customer directory.
package leads

import (
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/leads/handler"
	"visitops_backend/internal/leads/repository"
	"visitops_backend/internal/leads/service"
	visitsrepo "visitops_backend/internal/visits/repository"
	"visitops_backend/platform/config"
	"visitops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the leads module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new leads module with all dependencies wired
func NewModule(pool *pgxpool.Pool, customers *visitsrepo.Repository, cfg config.LeadsConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, customers, log)
	h := handler.New(svc, cfg)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the leads service for the periodic sync task.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the admin lead routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
