package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type fulfillmentStore interface {
	GetByID(ctx context.Context, id string) (*models.FulfillmentTask, error)
	ListOpenByRole(ctx context.Context, role models.UserRole) ([]models.FulfillmentTask, error)
	Complete(ctx context.Context, id, userID string, ts time.Time) error
	CountOpenByRequest(ctx context.Context, requestID string) (int, error)
}

type requestFinalizer interface {
	GetByID(ctx context.Context, id string) (*models.AccessRequest, error)
	TransitionState(ctx context.Context, id string, from, to models.AccessRequestState) (bool, error)
}

// FulfillmentService serves the role-pool task queue. Completing the last
// open task of a request finalizes the request.
type FulfillmentService struct {
	tasks    fulfillmentStore
	requests requestFinalizer
	notify   notifier
	audit    auditLogger
	logger   *zap.Logger
	metrics  *MetricsService
}

// SetMetrics attaches the instrumentation sink. Optional; nil is fine.
func (s *FulfillmentService) SetMetrics(m *MetricsService) { s.metrics = m }

// NewFulfillmentService constructs the service.
func NewFulfillmentService(tasks fulfillmentStore, requests requestFinalizer, notify notifier, audit auditLogger, logger *zap.Logger) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{tasks: tasks, requests: requests, notify: notify, audit: audit, logger: logger}
}

// ListPool returns open tasks assigned to the actor's role. Admin roles may
// inspect any pool by passing an explicit role.
func (s *FulfillmentService) ListPool(ctx context.Context, actor *models.JWTClaims, role models.UserRole) ([]models.FulfillmentTask, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if role == "" {
		role = actor.Role
	}
	if role != actor.Role && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrForbidden
	}
	tasks, err := s.tasks.ListOpenByRole(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open tasks")
	}
	if tasks == nil {
		tasks = []models.FulfillmentTask{}
	}
	return tasks, nil
}

// Complete marks a task done on behalf of the actor. The actor must hold the
// task's assigned role; completing the final open task of a request moves
// the request from APPROVED to FINALIZED exactly once.
func (s *FulfillmentService) Complete(ctx context.Context, taskID string, actor *models.JWTClaims) (*models.FulfillmentTask, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if actor.Role != task.AssignedRole && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task belongs to another role pool")
	}

	now := time.Now().UTC()
	if err := s.tasks.Complete(ctx, taskID, actor.UserID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "task already completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete task")
	}

	task.State = models.FulfillmentTaskDone
	task.CompletedBy = &actor.UserID
	task.CompletedAt = &now
	s.metrics.RecordTaskCompleted()
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionTaskComplete,
		Resource:   "fulfillment_task",
		ResourceID: &task.ID,
		NewValues:  snapshotJSON(task),
	})

	if err := s.maybeFinalize(ctx, task.RequestID, actor); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *FulfillmentService) maybeFinalize(ctx context.Context, requestID string, actor *models.JWTClaims) error {
	open, err := s.tasks.CountOpenByRequest(ctx, requestID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open tasks")
	}
	if open > 0 {
		return nil
	}

	moved, err := s.requests.TransitionState(ctx, requestID, models.RequestStateApproved, models.RequestStateFinalized)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize request")
	}
	if !moved {
		return nil
	}
	s.metrics.RecordTransition(models.RequestStateApproved, models.RequestStateFinalized)

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Warn("request finalized but reload failed", zap.String("request_id", requestID), zap.Error(err))
		return nil
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRequestTransition,
		Resource:   "access_request",
		ResourceID: &request.ID,
		OldValues:  snapshotJSON(map[string]interface{}{"state": models.RequestStateApproved}),
		NewValues:  snapshotJSON(map[string]interface{}{"state": models.RequestStateFinalized}),
	})

	recipients := []string{request.RequesterID}
	if request.EmployeeID != request.RequesterID {
		recipients = append(recipients, request.EmployeeID)
	}
	s.notify.DispatchAll(recipients, models.Notification{
		Title:         fmt.Sprintf("Access request %s fulfilled", request.Reference),
		Body:          "All requested accesses have been provisioned.",
		Severity:      models.SeverityInfo,
		ActionURL:     stringPtr(fmt.Sprintf("/requests/%s", request.ID)),
		CorrelationID: &request.ID,
	})
	return nil
}

func (s *FulfillmentService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "fulfillment-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
