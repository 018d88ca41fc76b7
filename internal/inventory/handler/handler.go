package handler

import (
	"net/http"

	"visitops_backend/internal/inventory/repository"
	"visitops_backend/internal/inventory/service"
	"visitops_backend/internal/inventory/transport"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for property listings
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterBrokerRoutes mounts listing management for brokers.
func (h *Handler) RegisterBrokerRoutes(rg *gin.RouterGroup) {
	rg.GET("/properties", h.ListOwn)
	rg.POST("/properties", h.Create)
	rg.GET("/properties/:id", h.GetOwn)
	rg.POST("/properties/:id/remove", h.Remove)
}

// RegisterPublicRoutes mounts the customer browse routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/properties", h.ListVisible)
	rg.GET("/properties/:id", h.GetVisible)
}

// Create handles POST /api/v1/broker/properties
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	prop, eval, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.CreatePropertyResponse{
		Property:       transport.ToPropertyResponse(prop),
		UnderReview:    eval.Hidden,
		DuplicateScore: eval.BestScore,
	})
}

// ListOwn handles GET /api/v1/broker/properties
func (h *Handler) ListOwn(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	props, err := h.svc.ListOwn(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponses(props))
}

// GetOwn handles GET /api/v1/broker/properties/:id
func (h *Handler) GetOwn(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	prop, err := h.svc.GetOwned(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(prop))
}

// Remove handles POST /api/v1/broker/properties/:id/remove
func (h *Handler) Remove(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.RemovePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	prop, err := h.svc.Remove(c.Request.Context(), identity.UserID(), id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(prop))
}

// ListVisible handles GET /api/v1/properties
func (h *Handler) ListVisible(c *gin.Context) {
	props, err := h.svc.ListVisible(c.Request.Context(), c.Query("city"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponses(props))
}

// GetVisible handles GET /api/v1/properties/:id
func (h *Handler) GetVisible(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	prop, err := h.svc.GetVisible(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(prop))
}

func toResponses(props []repository.Property) []transport.PropertyResponse {
	out := make([]transport.PropertyResponse, 0, len(props))
	for i := range props {
		out = append(out, transport.ToPropertyResponse(&props[i]))
	}
	return out
}
