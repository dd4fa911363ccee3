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

type checklistService interface {
	Create(ctx context.Context, req dto.CreateChecklistRequest) (*models.Checklist, error)
	Get(ctx context.Context, id string) (*models.Checklist, error)
	CompleteTask(ctx context.Context, taskID string, actor *models.JWTClaims) (*models.ChecklistTask, error)
}

// ChecklistHandler exposes onboarding/offboarding checklist endpoints.
type ChecklistHandler struct {
	service checklistService
}

// NewChecklistHandler constructs the handler.
func NewChecklistHandler(service checklistService) *ChecklistHandler {
	return &ChecklistHandler{service: service}
}

// Create godoc
// @Summary Instantiate a checklist from the active template
// @Tags Checklists
// @Accept json
// @Produce json
// @Param payload body dto.CreateChecklistRequest true "Checklist payload"
// @Success 201 {object} response.Envelope
// @Router /checklists [post]
func (h *ChecklistHandler) Create(c *gin.Context) {
	var req dto.CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid checklist payload"))
		return
	}
	checklist, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, checklist, nil)
}

// Get godoc
// @Summary Get a checklist with its tasks
// @Tags Checklists
// @Produce json
// @Param id path string true "Checklist ID"
// @Success 200 {object} response.Envelope
// @Router /checklists/{id} [get]
func (h *ChecklistHandler) Get(c *gin.Context) {
	checklist, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checklist, nil)
}

// CompleteTask godoc
// @Summary Mark a checklist task done
// @Tags Checklists
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /checklists/tasks/{id}/complete [post]
func (h *ChecklistHandler) CompleteTask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	task, err := h.service.CompleteTask(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}
