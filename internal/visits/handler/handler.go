package handler

import (
	"net/http"
	"strconv"

	"visitops_backend/internal/temporal"
	"visitops_backend/internal/visits/service"
	"visitops_backend/internal/visits/transport"
	"visitops_backend/platform/httpkit"
	"visitops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for slots and visits
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new visits handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterBrokerRoutes mounts broker-facing slot/visit routes.
func (h *Handler) RegisterBrokerRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.ListBrokerSlots)
	rg.POST("/slots", h.CreateSlot)
	rg.POST("/slots/:id/cancel", h.CancelSlot)
	rg.GET("/visits", h.ListBrokerVisits)
}

// RegisterPublicRoutes mounts customer-facing routes. Customers authenticate
// per request with the booking phone number, not with an account.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/visits", h.Book)
	rg.GET("/visits", h.ListCustomerVisits)
	rg.POST("/visits/:id/cancel", h.CustomerCancel)
	rg.POST("/visits/:id/reschedule", h.CustomerReschedule)
	rg.GET("/visits/:id/rebook-options", h.RebookOptions)
	rg.GET("/scheduling/duration", h.TourDuration)
}

// CreateSlot handles POST /api/v1/broker/slots
func (h *Handler) CreateSlot(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	slot, err := h.svc.CreateSlot(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.SlotResponse{
		ID:       slot.ID,
		BrokerID: slot.BrokerID,
		City:     slot.City,
		StartAt:  slot.StartAt,
		EndAt:    slot.EndAt,
		Status:   slot.Status,
	})
}

// ListBrokerSlots handles GET /api/v1/broker/slots
func (h *Handler) ListBrokerSlots(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	slots, err := h.svc.ListBrokerSlots(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, slots)
}

// CancelSlot handles POST /api/v1/broker/slots/:id/cancel
func (h *Handler) CancelSlot(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.CancelSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.BrokerCancelSlot(c.Request.Context(), identity.UserID(), slotID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListBrokerVisits handles GET /api/v1/broker/visits
func (h *Handler) ListBrokerVisits(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	visits, err := h.svc.ListBrokerVisits(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, visits)
}

// Book handles POST /api/v1/visits
func (h *Handler) Book(c *gin.Context) {
	var req transport.BookVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	visitID, err := h.svc.Book(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"visitId": visitID})
}

// ListCustomerVisits handles GET /api/v1/visits?phone=...
func (h *Handler) ListCustomerVisits(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone is required", nil)
		return
	}

	visits, err := h.svc.ListCustomerVisits(c.Request.Context(), phone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, visits)
}

// CustomerCancel handles POST /api/v1/visits/:id/cancel
func (h *Handler) CustomerCancel(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.CustomerCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.CustomerCancel(c.Request.Context(), visitID, req.Phone); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"cancelled": true})
}

// CustomerReschedule handles POST /api/v1/visits/:id/reschedule
func (h *Handler) CustomerReschedule(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.CustomerRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	newVisitID, err := h.svc.CustomerReschedule(c.Request.Context(), visitID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"visitId": newVisitID})
}

// RebookOptions handles GET /api/v1/visits/:id/rebook-options?phone=...
func (h *Handler) RebookOptions(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	phone := c.Query("phone")
	if phone == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone is required", nil)
		return
	}

	options, err := h.svc.RebookOptions(c.Request.Context(), visitID, phone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, options)
}

// TourDuration handles GET /api/v1/scheduling/duration?propertyCount=n
func (h *Handler) TourDuration(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("propertyCount", "1"))
	if err != nil || count < 1 {
		httpkit.Error(c, http.StatusBadRequest, "propertyCount must be a positive integer", nil)
		return
	}

	httpkit.OK(c, gin.H{
		"propertyCount":   count,
		"durationMinutes": temporal.TourDurationMinutes(count),
	})
}
