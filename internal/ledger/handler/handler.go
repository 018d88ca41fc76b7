package handler

import (
	"net/http"
	"time"

	"visitops_backend/internal/ledger/service"
	"visitops_backend/internal/ledger/transport"
	"visitops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the broker accountability views
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAdminRoutes mounts the RM/SRM-facing accountability routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/brokers/:id/standing", h.GetStanding)
}

// RegisterBrokerRoutes lets a broker see their own standing.
func (h *Handler) RegisterBrokerRoutes(rg *gin.RouterGroup) {
	rg.GET("/standing", h.GetOwnStanding)
}

// GetStanding handles GET /api/v1/admin/brokers/:id/standing
func (h *Handler) GetStanding(c *gin.Context) {
	brokerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	h.respondStanding(c, brokerID)
}

// GetOwnStanding handles GET /api/v1/broker/standing
func (h *Handler) GetOwnStanding(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	h.respondStanding(c, identity.UserID())
}

func (h *Handler) respondStanding(c *gin.Context, brokerID uuid.UUID) {
	asOf := time.Now().UTC()
	standing, err := h.svc.GetStanding(c.Request.Context(), brokerID, asOf)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStandingResponse(standing, asOf))
}
