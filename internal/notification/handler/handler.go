package handler

import (
	"net/http"
	"strconv"

	"visitops_backend/internal/notification/service"
	"visitops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the RM message log view
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAdminRoutes mounts the message log for RM support.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.MessageLog)
}

// MessageLog handles GET /api/v1/admin/notifications?phone=...
func (h *Handler) MessageLog(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone is required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.svc.MessageLog(c.Request.Context(), phone, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, messages)
}
