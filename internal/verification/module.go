// Package verification provides the visit completion verification module.
package verification

import (
	"visitops_backend/internal/events"
	apphttp "visitops_backend/internal/http"
	"visitops_backend/internal/storage"
	"visitops_backend/internal/verification/handler"
	"visitops_backend/internal/verification/repository"
	"visitops_backend/internal/verification/service"
	visitsrepo "visitops_backend/internal/visits/repository"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the verification domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new verification module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, visits *visitsrepo.Repository, properties service.PropertyLocator, classifier service.Classifier, photos storage.PhotoStore, bucket string, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, visits, properties, classifier, photos, bucket, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "verification"
}

// RegisterRoutes mounts OTP issue/complete under the broker group with the
// stricter OTP rate limit.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	broker := ctx.Protected.Group("/broker")
	broker.Use(httpkit.RequireRole(httpkit.RoleBroker), ctx.OTPRateLimiter.RateLimit())
	m.handler.RegisterRoutes(broker)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
