// Package inventory manages property listings: creation, role-scoped
// browsing and removal with an audit trail.
package inventory

import (
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/inventory/handler"
	"visitops_backend/internal/inventory/repository"
	"visitops_backend/internal/inventory/service"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the inventory module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new inventory module with all dependencies wired
func NewModule(pool *pgxpool.Pool, duplicates service.DuplicateEvaluator, standing service.StandingReader, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, duplicates, standing, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "inventory"
}

// Service exposes the inventory service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the inventory repository for adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers broker listing management and public browsing.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	broker := ctx.Protected.Group("/broker")
	broker.Use(httpkit.RequireRole(httpkit.RoleBroker))
	m.handler.RegisterBrokerRoutes(broker)

	m.handler.RegisterPublicRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
