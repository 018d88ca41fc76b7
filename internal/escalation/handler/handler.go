package handler

import (
	"net/http"

	"visitops_backend/internal/escalation/domain"
	"visitops_backend/internal/escalation/repository"
	"visitops_backend/internal/escalation/service"
	"visitops_backend/internal/escalation/transport"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the incident review pipeline
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes mounts the RM/SRM incident routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/incidents", h.ListOpen)
	rg.GET("/incidents/:id", h.Get)
	rg.POST("/incidents/:id/review", h.Review)
}

// ListOpen handles GET /api/v1/admin/incidents. An optional brokerId query
// switches to that broker's full incident history.
func (h *Handler) ListOpen(c *gin.Context) {
	var (
		incidents []repository.Incident
		err       error
	)
	if raw := c.Query("brokerId"); raw != "" {
		brokerID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid brokerId", nil)
			return
		}
		incidents, err = h.svc.ListByBroker(c.Request.Context(), brokerID)
	} else {
		incidents, err = h.svc.ListOpen(c.Request.Context())
	}
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, transport.ToIncidentResponse(&incidents[i]))
	}
	httpkit.OK(c, out)
}

// Get handles GET /api/v1/admin/incidents/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	inc, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToIncidentResponse(inc))
}

// Review handles POST /api/v1/admin/incidents/:id/review. The reviewer role
// must match the requested stage; admins may decide either stage.
func (h *Handler) Review(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if !stageAllowed(identity, req.Stage) {
		httpkit.Error(c, http.StatusForbidden, "role does not match review stage", nil)
		return
	}

	result, err := h.svc.Review(c.Request.Context(), id, identity.UserID(), req.Stage, *req.Approve, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ReviewResponse{
		Incident:   transport.ToIncidentResponse(result.Incident),
		FlagIssued: result.FlagIssued,
	})
}

func stageAllowed(identity httpkit.Identity, stage string) bool {
	if identity.HasRole(httpkit.RoleAdmin) {
		return true
	}
	switch stage {
	case domain.StageRM:
		return identity.HasRole(httpkit.RoleRM)
	case domain.StageSRM:
		return identity.HasRole(httpkit.RoleSRM)
	}
	return false
}
