package handler

import (
	"strconv"

	"visitops_backend/internal/leads/service"
	"visitops_backend/platform/config"
	"visitops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves lead import and inspection
type Handler struct {
	svc *service.Service
	cfg config.LeadsConfig
}

func New(svc *service.Service, cfg config.LeadsConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// RegisterAdminRoutes mounts the lead routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.List)
	rg.POST("/leads/import", h.Import)
}

// Import handles POST /api/v1/admin/leads/import. With a multipart "file"
// part it imports the upload; without one it re-reads the configured sync
// file.
func (h *Handler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		result, err := h.svc.ImportCSV(c.Request.Context(), file, "manual_upload")
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, result)
		return
	}

	result, err := h.svc.ImportFile(c.Request.Context(), h.cfg.GetLeadsImportFile())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List handles GET /api/v1/admin/leads
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	leads, err := h.svc.List(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	if leads == nil {
		httpkit.OK(c, []struct{}{})
		return
	}
	httpkit.OK(c, leads)
}
