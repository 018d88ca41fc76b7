package handler

import (
	"io"
	"net/http"

	"visitops_backend/internal/verification/service"
	"visitops_backend/internal/verification/transport"
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

// Handler handles HTTP requests for visit verification
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new verification handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the verification routes on the broker group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/visits/:id/otp", h.IssueOTP)
	rg.POST("/visits/:id/complete", h.CompleteVisit)
}

// IssueOTP handles POST /api/v1/broker/visits/:id/otp
func (h *Handler) IssueOTP(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	resp, err := h.svc.IssueOTP(c.Request.Context(), identity.UserID(), visitID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

// CompleteVisit handles POST /api/v1/broker/visits/:id/complete
// as multipart form data: otp, lat, lng and an optional photo file.
func (h *Handler) CompleteVisit(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.CompleteVisitRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read photo", err.Error())
		return
	}

	resp, err := h.svc.CompleteVisit(c.Request.Context(), identity.UserID(), visitID, req, photo)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func readPhoto(c *gin.Context) (*service.Photo, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		// Absent photo is a valid submission; geofence may still pass.
		return nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &service.Photo{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
