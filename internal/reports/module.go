// Package reports aggregates booking, completion and accountability data
// into RM-facing reports with CSV export.
package reports

import (
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/reports/handler"
	"visitops_backend/internal/reports/repository"
	"visitops_backend/internal/reports/service"
	"visitops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the reports module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new reports module with all dependencies wired
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes registers the admin reporting routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
