// Package ledger tracks broker accountability flags, penalties and standing.
package ledger

import (
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/ledger/handler"
	"visitops_backend/internal/ledger/repository"
	"visitops_backend/internal/ledger/service"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the accountability ledger module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new ledger module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "ledger"
}

// Service exposes the ledger service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers admin standing views and the broker self view.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)

	broker := ctx.Protected.Group("/broker")
	broker.Use(httpkit.RequireRole(httpkit.RoleBroker))
	m.handler.RegisterBrokerRoutes(broker)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
