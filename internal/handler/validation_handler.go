package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
	"github.com/peoplehub/hr-access-api/pkg/response"
)

type validationService interface {
	Inbox(ctx context.Context, userID string) ([]dto.InboxItem, error)
	Approve(ctx context.Context, validationID string, actor *models.JWTClaims, note *string) (*models.ValidationRecord, error)
	Reject(ctx context.Context, validationID string, actor *models.JWTClaims, note string) (*models.ValidationRecord, error)
}

// ValidationHandler exposes the validator inbox and resolution endpoints.
type ValidationHandler struct {
	service validationService
}

// NewValidationHandler constructs the handler.
func NewValidationHandler(service validationService) *ValidationHandler {
	return &ValidationHandler{service: service}
}

// Inbox godoc
// @Summary List the caller's pending validations
// @Tags Validations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /validations/inbox [get]
func (h *ValidationHandler) Inbox(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.Inbox(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Approve godoc
// @Summary Approve a pending validation
// @Tags Validations
// @Accept json
// @Produce json
// @Param id path string true "Validation ID"
// @Param payload body dto.ApproveValidationRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Router /validations/{id}/approve [post]
func (h *ValidationHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ApproveValidationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approval payload"))
			return
		}
	}
	var note *string
	if req.Note != "" {
		note = &req.Note
	}
	record, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims, note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Reject godoc
// @Summary Reject a pending validation with a note
// @Tags Validations
// @Accept json
// @Produce json
// @Param id path string true "Validation ID"
// @Param payload body dto.RejectValidationRequest true "Rejection note"
// @Success 200 {object} response.Envelope
// @Router /validations/{id}/reject [post]
func (h *ValidationHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RejectValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a rejection note is required"))
		return
	}
	record, err := h.service.Reject(c.Request.Context(), c.Param("id"), claims, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
