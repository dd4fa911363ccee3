package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type checklistStore interface {
	ListTemplateItems(ctx context.Context, kind models.ChecklistKind) ([]models.ChecklistTemplateItem, error)
	Create(ctx context.Context, checklist *models.Checklist, tasks []models.ChecklistTask) error
	GetByID(ctx context.Context, id string) (*models.Checklist, error)
	GetTask(ctx context.Context, id string) (*models.ChecklistTask, error)
	CompleteTask(ctx context.Context, id, userID string, ts time.Time) error
	CountOpenTasks(ctx context.Context, checklistID string) (int, error)
	Close(ctx context.Context, id string, ts time.Time) (bool, error)
}

// ChecklistService instantiates onboarding and offboarding checklists from
// templates. Completing the last open task auto-closes the checklist.
type ChecklistService struct {
	checklists checklistStore
	users      identityProvider
	notify     notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewChecklistService constructs the service.
func NewChecklistService(checklists checklistStore, users identityProvider, notify notifier, validate *validator.Validate, logger *zap.Logger) *ChecklistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChecklistService{checklists: checklists, users: users, notify: notify, validator: validate, logger: logger}
}

// Create instantiates the active template of the given kind for an employee.
func (s *ChecklistService) Create(ctx context.Context, req dto.CreateChecklistRequest) (*models.Checklist, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checklist payload")
	}
	if req.Kind != models.ChecklistOnboarding && req.Kind != models.ChecklistOffboarding {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown checklist kind")
	}
	if _, err := s.users.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "employee does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify employee")
	}

	items, err := s.checklists.ListTemplateItems(ctx, req.Kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist template")
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no active template items for this checklist kind")
	}

	checklist := &models.Checklist{
		EmployeeID: req.EmployeeID,
		Kind:       req.Kind,
	}
	tasks := make([]models.ChecklistTask, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, models.ChecklistTask{
			Title:        item.Title,
			AssignedRole: item.AssignedRole,
			Rank:         item.Rank,
		})
	}
	if err := s.checklists.Create(ctx, checklist, tasks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create checklist")
	}
	checklist.Tasks = tasks
	return checklist, nil
}

// Get returns a checklist with its tasks.
func (s *ChecklistService) Get(ctx context.Context, id string) (*models.Checklist, error) {
	checklist, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist")
	}
	return checklist, nil
}

// CompleteTask marks a task done. The actor must hold the task's assigned
// role; completing the last open task closes the checklist.
func (s *ChecklistService) CompleteTask(ctx context.Context, taskID string, actor *models.JWTClaims) (*models.ChecklistTask, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	task, err := s.checklists.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist task")
	}
	if actor.Role != task.AssignedRole && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task belongs to another role pool")
	}

	now := time.Now().UTC()
	if err := s.checklists.CompleteTask(ctx, taskID, actor.UserID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "task already completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete checklist task")
	}
	task.State = models.FulfillmentTaskDone
	task.CompletedBy = &actor.UserID
	task.CompletedAt = &now

	open, err := s.checklists.CountOpenTasks(ctx, task.ChecklistID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open checklist tasks")
	}
	if open == 0 {
		closed, err := s.checklists.Close(ctx, task.ChecklistID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close checklist")
		}
		if closed {
			checklist, err := s.checklists.GetByID(ctx, task.ChecklistID)
			if err == nil {
				s.notify.Dispatch(models.Notification{
					RecipientID:   checklist.EmployeeID,
					Title:         fmt.Sprintf("%s checklist completed", checklist.Kind),
					Body:          "Every checklist task has been completed.",
					Severity:      models.SeverityInfo,
					CorrelationID: &checklist.ID,
				})
			} else {
				s.logger.Warn("checklist closed but reload failed", zap.String("checklist_id", task.ChecklistID), zap.Error(err))
			}
		}
	}
	return task, nil
}
