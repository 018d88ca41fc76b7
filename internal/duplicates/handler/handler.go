package handler

import (
	"net/http"

	"visitops_backend/internal/duplicates/service"
	"visitops_backend/internal/duplicates/transport"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the duplicate review queue
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes mounts the RM review queue routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/duplicates", h.ListPending)
	rg.GET("/duplicates/:id", h.GetEntry)
	rg.POST("/duplicates/:id/resolve", h.Resolve)
}

// ListPending handles GET /api/v1/admin/duplicates
func (h *Handler) ListPending(c *gin.Context) {
	entries, err := h.svc.PendingReviews(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.ReviewEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, transport.ToReviewEntryResponse(&entries[i]))
	}
	httpkit.OK(c, out)
}

// GetEntry handles GET /api/v1/admin/duplicates/:id
func (h *Handler) GetEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	entry, err := h.svc.GetEntry(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToReviewEntryResponse(entry))
}

// Resolve handles POST /api/v1/admin/duplicates/:id/resolve
func (h *Handler) Resolve(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	entry, err := h.svc.Resolve(c.Request.Context(), id, identity.UserID(), req.Resolution, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToReviewEntryResponse(entry))
}
