// Package notification turns domain events into queued customer messages and
// serves the RM message log.
package notification

import (
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/notification/handler"
	"visitops_backend/internal/notification/repository"
	"visitops_backend/internal/notification/service"
	"visitops_backend/internal/notification/templates"
	visitsrepo "visitops_backend/internal/visits/repository"
	"visitops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the notification module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new notification module and subscribes it to the event
// bus.
func NewModule(pool *pgxpool.Pool, visits *visitsrepo.Repository, eventBus events.Bus, log *logger.Logger) (*Module, error) {
	catalog, err := templates.LoadCatalog()
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, visits, catalog, log)
	svc.RegisterHandlers(eventBus)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "notification"
}

// Service exposes the notification service for the outbox dispatcher.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the RM message log route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
