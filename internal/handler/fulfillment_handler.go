package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
	"github.com/peoplehub/hr-access-api/pkg/response"
)

type fulfillmentService interface {
	ListPool(ctx context.Context, actor *models.JWTClaims, role models.UserRole) ([]models.FulfillmentTask, error)
	Complete(ctx context.Context, taskID string, actor *models.JWTClaims) (*models.FulfillmentTask, error)
}

// FulfillmentHandler exposes the role-pool task queue.
type FulfillmentHandler struct {
	service fulfillmentService
}

// NewFulfillmentHandler constructs the handler.
func NewFulfillmentHandler(service fulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{service: service}
}

// ListPool godoc
// @Summary List open fulfillment tasks for the caller's role
// @Tags Fulfillment
// @Produce json
// @Param role query string false "Explicit role pool (admin only)"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *FulfillmentHandler) ListPool(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(c.Query("role"))))
	tasks, err := h.service.ListPool(c.Request.Context(), claims, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Complete godoc
// @Summary Mark a fulfillment task done
// @Tags Fulfillment
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/complete [post]
func (h *FulfillmentHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	task, err := h.service.Complete(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}
