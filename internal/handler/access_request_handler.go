package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
	"github.com/peoplehub/hr-access-api/pkg/response"
)

type accessRequestService interface {
	Create(ctx context.Context, req dto.CreateAccessRequest, requesterID string) (*models.AccessRequest, error)
	List(ctx context.Context, query dto.AccessRequestQuery, actor *models.JWTClaims) ([]models.AccessRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.AccessRequestDetail, error)
}

// AccessRequestHandler exposes REST endpoints for access requests.
type AccessRequestHandler struct {
	service accessRequestService
}

// NewAccessRequestHandler constructs the handler.
func NewAccessRequestHandler(service accessRequestService) *AccessRequestHandler {
	return &AccessRequestHandler{service: service}
}

// Create godoc
// @Summary Open an access request for an employee
// @Tags AccessRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateAccessRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *AccessRequestHandler) Create(c *gin.Context) {
	var req dto.CreateAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid access request payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// List godoc
// @Summary List access requests visible to the caller
// @Tags AccessRequests
// @Produce json
// @Param state query string false "Comma separated states"
// @Param employee_id query string false "Target employee"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *AccessRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.AccessRequestQuery{
		EmployeeID: strings.TrimSpace(c.Query("employee_id")),
	}
	if rawState := c.Query("state"); rawState != "" {
		parts := strings.Split(rawState, ",")
		states := make([]models.AccessRequestState, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			states = append(states, models.AccessRequestState(part))
		}
		query.States = states
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			query.Offset = offset
		}
	}
	requests, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get an access request with entries and validations
// @Tags AccessRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *AccessRequestHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
