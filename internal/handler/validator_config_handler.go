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

type validatorConfigService interface {
	ListBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error)
	Create(ctx context.Context, systemID string, req dto.WriteValidatorConfigRequest, actor *models.JWTClaims) (*models.ValidatorConfiguration, error)
	Update(ctx context.Context, id string, req dto.WriteValidatorConfigRequest, actor *models.JWTClaims) (*models.ValidatorConfiguration, error)
	SetActive(ctx context.Context, id string, active bool, actor *models.JWTClaims) error
}

// ValidatorConfigHandler administers per-system validator configurations.
type ValidatorConfigHandler struct {
	service validatorConfigService
}

// NewValidatorConfigHandler constructs the handler.
func NewValidatorConfigHandler(service validatorConfigService) *ValidatorConfigHandler {
	return &ValidatorConfigHandler{service: service}
}

// List godoc
// @Summary List validator configurations for a system
// @Tags ValidatorConfigs
// @Produce json
// @Param systemId path string true "System ID"
// @Success 200 {object} response.Envelope
// @Router /systems/{systemId}/validators [get]
func (h *ValidatorConfigHandler) List(c *gin.Context) {
	configs, err := h.service.ListBySystem(c.Request.Context(), c.Param("systemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Create godoc
// @Summary Add a validator configuration to a system
// @Tags ValidatorConfigs
// @Accept json
// @Produce json
// @Param systemId path string true "System ID"
// @Param payload body dto.WriteValidatorConfigRequest true "Configuration payload"
// @Success 201 {object} response.Envelope
// @Router /systems/{systemId}/validators [post]
func (h *ValidatorConfigHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteValidatorConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid configuration payload"))
		return
	}
	config, err := h.service.Create(c.Request.Context(), c.Param("systemId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, config, nil)
}

// Update godoc
// @Summary Rewrite a validator configuration
// @Tags ValidatorConfigs
// @Accept json
// @Produce json
// @Param id path string true "Configuration ID"
// @Param payload body dto.WriteValidatorConfigRequest true "Configuration payload"
// @Success 200 {object} response.Envelope
// @Router /validators/{id} [put]
func (h *ValidatorConfigHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteValidatorConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid configuration payload"))
		return
	}
	config, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Disable godoc
// @Summary Soft-disable a validator configuration
// @Tags ValidatorConfigs
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 204
// @Router /validators/{id} [delete]
func (h *ValidatorConfigHandler) Disable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.SetActive(c.Request.Context(), c.Param("id"), false, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enable godoc
// @Summary Re-enable a validator configuration
// @Tags ValidatorConfigs
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 204
// @Router /validators/{id}/enable [post]
func (h *ValidatorConfigHandler) Enable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.SetActive(c.Request.Context(), c.Param("id"), true, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
