// Package visits provides the slot/visit lifecycle domain module.
package visits

import (
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/visits/handler"
	"visitops_backend/internal/visits/repository"
	"visitops_backend/internal/visits/service"
	"visitops_backend/platform/config"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the visits domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new visits module with all dependencies wired
func NewModule(pool *pgxpool.Pool, properties service.PropertyReader, standing service.StandingReader, incidents service.IncidentRecorder, policy config.PolicyConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, properties, standing, incidents, policy, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "visits"
}

// Service exposes the visits service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the visits repository for the verification module.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers broker routes (JWT) and customer routes (phone-bound).
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	broker := ctx.Protected.Group("/broker")
	broker.Use(httpkit.RequireRole(httpkit.RoleBroker))
	m.handler.RegisterBrokerRoutes(broker)

	m.handler.RegisterPublicRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
