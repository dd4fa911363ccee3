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

type transferService interface {
	Preview(ctx context.Context, req dto.TransferRequest) (*dto.TransferPreview, error)
	Create(ctx context.Context, req dto.TransferRequest, actor *models.JWTClaims) (*dto.TransferResult, error)
	History(ctx context.Context, employeeID string) ([]models.Transfer, error)
}

// TransferHandler exposes department mobility endpoints.
type TransferHandler struct {
	service transferService
}

// NewTransferHandler constructs the handler.
func NewTransferHandler(service transferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// Preview godoc
// @Summary Preview the combined decisions for a transfer
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.TransferRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /transfers/preview [post]
func (h *TransferHandler) Preview(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transfer payload"))
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Create godoc
// @Summary Record a transfer and spawn an access request when needed
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.TransferRequest true "Transfer payload"
// @Success 201 {object} response.Envelope
// @Router /transfers [post]
func (h *TransferHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transfer payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// History godoc
// @Summary List an employee's transfers
// @Tags Transfers
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{employeeId}/transfers [get]
func (h *TransferHandler) History(c *gin.Context) {
	transfers, err := h.service.History(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transfers, nil)
}
