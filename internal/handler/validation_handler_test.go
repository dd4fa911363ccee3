package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/middleware"
	"github.com/peoplehub/hr-access-api/internal/models"
)

type validationServiceMock struct {
	inboxResp    []dto.InboxItem
	approved     []string
	rejectedNote string
}

func (m *validationServiceMock) Inbox(ctx context.Context, userID string) ([]dto.InboxItem, error) {
	return m.inboxResp, nil
}

func (m *validationServiceMock) Approve(ctx context.Context, validationID string, actor *models.JWTClaims, note *string) (*models.ValidationRecord, error) {
	m.approved = append(m.approved, validationID)
	return &models.ValidationRecord{ID: validationID, State: models.ValidationStateApproved}, nil
}

func (m *validationServiceMock) Reject(ctx context.Context, validationID string, actor *models.JWTClaims, note string) (*models.ValidationRecord, error) {
	m.rejectedNote = note
	return &models.ValidationRecord{ID: validationID, State: models.ValidationStateRejected}, nil
}

func validatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "validator-1", Role: models.RoleManager}
}

func TestValidationHandlerInboxUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewValidationHandler(&validationServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/validations/inbox", nil)
	c.Request = req

	handler.Inbox(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationHandlerApproveWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &validationServiceMock{}
	handler := NewValidationHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/validations/val-1/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "val-1"}}
	c.Set(middleware.ContextUserKey, validatorClaims())

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"val-1"}, mock.approved)
}

func TestValidationHandlerRejectInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewValidationHandler(&validationServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/validations/val-1/reject", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "val-1"}}
	c.Set(middleware.ContextUserKey, validatorClaims())

	handler.Reject(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationHandlerRejectPassesNote(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &validationServiceMock{}
	handler := NewValidationHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.RejectValidationRequest{Note: "insufficient justification"})
	req, _ := http.NewRequest(http.MethodPost, "/validations/val-1/reject", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "val-1"}}
	c.Set(middleware.ContextUserKey, validatorClaims())

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "insufficient justification", mock.rejectedNote)
}
