package handler

import (
	"net/http"
	"time"

	"visitops_backend/internal/reports/service"
	"visitops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the operational reports
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAdminRoutes mounts the reporting routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/funnel", h.Funnel)
	rg.GET("/reports/brokers", h.BrokerReliability)
	rg.GET("/reports/visits", h.DailyVisitCounts)
}

// Funnel handles GET /api/v1/admin/reports/funnel
func (h *Handler) Funnel(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	funnel, err := h.svc.Funnel(c.Request.Context(), period)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, funnel)
}

// BrokerReliability handles GET /api/v1/admin/reports/brokers.
// format=csv streams the report as a CSV attachment.
func (h *Handler) BrokerReliability(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="broker_reliability.csv"`)
		if err := h.svc.WriteBrokerReliabilityCSV(c.Request.Context(), period, c.Writer); err != nil {
			httpkit.HandleError(c, err)
		}
		return
	}

	rows, err := h.svc.BrokerReliability(c.Request.Context(), period)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, rows)
}

// DailyVisitCounts handles GET /api/v1/admin/reports/visits.
// format=csv streams the report as a CSV attachment.
func (h *Handler) DailyVisitCounts(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="visit_counts.csv"`)
		if err := h.svc.WriteDailyVisitCountsCSV(c.Request.Context(), period, c.Writer); err != nil {
			httpkit.HandleError(c, err)
		}
		return
	}

	rows, err := h.svc.DailyVisitCounts(c.Request.Context(), period)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, rows)
}

func (h *Handler) period(c *gin.Context) (service.Period, bool) {
	period := service.DefaultPeriod(time.Now().UTC())

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid from timestamp", nil)
			return service.Period{}, false
		}
		period.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid to timestamp", nil)
			return service.Period{}, false
		}
		period.To = t
	}
	if !period.From.Before(period.To) {
		httpkit.Error(c, http.StatusBadRequest, "from must be before to", nil)
		return service.Period{}, false
	}
	return period, true
}
