package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	"github.com/peoplehub/hr-access-api/internal/repository"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type validationResolver interface {
	GetByID(ctx context.Context, id string) (*models.ValidationRecord, error)
	Resolve(ctx context.Context, params repository.ResolveValidationParams) error
	ListPendingForUser(ctx context.Context, userID string) ([]dto.InboxItem, error)
}

type requestRecomputer interface {
	GetByID(ctx context.Context, id string) (*models.AccessRequest, error)
	ListEntries(ctx context.Context, requestID string) ([]models.RequestedSystemAccess, error)
	Recompute(ctx context.Context, requestID string, next func(models.AccessRequestState, models.ValidationTally) models.AccessRequestState) (models.AccessRequestState, models.AccessRequestState, error)
	MarkEntriesApproved(ctx context.Context, requestID string, ts time.Time) error
}

type fulfillmentCreator interface {
	CreateBatch(ctx context.Context, tasks []models.FulfillmentTask) error
}

type inboxCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ValidationService resolves validation records and recomputes the owning
// request's aggregate state. A resolution is authorized purely against the
// record itself: the representative for individual records, membership in
// the frozen snapshot for group records. Admin roles get no shortcut.
type ValidationService struct {
	validations validationResolver
	requests    requestRecomputer
	tasks       fulfillmentCreator
	cache       inboxCache
	notify      notifier
	audit       auditLogger
	logger      *zap.Logger
	metrics     *MetricsService
	inboxTTL    time.Duration
}

// SetMetrics attaches the instrumentation sink. Optional; nil is fine.
func (s *ValidationService) SetMetrics(m *MetricsService) { s.metrics = m }

// NewValidationService constructs the service.
func NewValidationService(
	validations validationResolver,
	requests requestRecomputer,
	tasks fulfillmentCreator,
	cache inboxCache,
	notify notifier,
	audit auditLogger,
	logger *zap.Logger,
	inboxTTL time.Duration,
) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if inboxTTL <= 0 {
		inboxTTL = 30 * time.Second
	}
	return &ValidationService{
		validations: validations,
		requests:    requests,
		tasks:       tasks,
		cache:       cache,
		notify:      notify,
		audit:       audit,
		logger:      logger,
		inboxTTL:    inboxTTL,
	}
}

// Approve resolves a pending record as APPROVED.
func (s *ValidationService) Approve(ctx context.Context, validationID string, actor *models.JWTClaims, note *string) (*models.ValidationRecord, error) {
	return s.resolve(ctx, validationID, actor, models.ValidationStateApproved, note)
}

// Reject resolves a pending record as REJECTED. The note is mandatory and
// is relayed to the requester.
func (s *ValidationService) Reject(ctx context.Context, validationID string, actor *models.JWTClaims, note string) (*models.ValidationRecord, error) {
	if note == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection note is required")
	}
	return s.resolve(ctx, validationID, actor, models.ValidationStateRejected, &note)
}

func (s *ValidationService) resolve(ctx context.Context, validationID string, actor *models.JWTClaims, state models.ValidationState, note *string) (*models.ValidationRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	record, err := s.validations.GetByID(ctx, validationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validation record")
	}
	if record.State != models.ValidationStatePending {
		return nil, appErrors.ErrAlreadyResolved
	}
	if !record.CanResolve(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not an eligible validator for this record")
	}

	now := time.Now().UTC()
	err = s.validations.Resolve(ctx, repository.ResolveValidationParams{
		ID:         validationID,
		State:      state,
		ResolvedBy: actor.UserID,
		ResolvedAt: now,
		Note:       note,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyResolved
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve validation")
	}

	s.metrics.RecordResolution(state)

	oldSnapshot := snapshotJSON(record)
	record.State = state
	record.ResolvedBy = &actor.UserID
	record.ResolvedAt = &now
	record.ResolutionNote = note

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionValidationResolve,
		Resource:   "validation_record",
		ResourceID: &record.ID,
		OldValues:  oldSnapshot,
		NewValues:  snapshotJSON(record),
	})
	s.invalidateInbox(ctx, record)

	if err := s.recompute(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// recompute derives the request's aggregate state and fires the side
// effects of an observed transition. Recompute serializes on a row lock,
// so only one resolver observes any given transition and the effects run
// exactly once.
func (s *ValidationService) recompute(ctx context.Context, record *models.ValidationRecord) error {
	prev, current, err := s.requests.Recompute(ctx, record.RequestID, nextRequestState)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute request state")
	}
	if current == prev {
		return nil
	}
	s.metrics.RecordTransition(prev, current)

	request, err := s.requests.GetByID(ctx, record.RequestID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     record.ResolvedBy,
		Action:     models.AuditActionRequestTransition,
		Resource:   "access_request",
		ResourceID: &request.ID,
		OldValues:  snapshotJSON(map[string]interface{}{"state": prev}),
		NewValues:  snapshotJSON(map[string]interface{}{"state": current}),
	})

	switch current {
	case models.RequestStateApproved:
		return s.onApproved(ctx, request)
	case models.RequestStateRejected:
		s.onRejected(request, record)
	}
	return nil
}

func (s *ValidationService) onApproved(ctx context.Context, request *models.AccessRequest) error {
	now := time.Now().UTC()
	if err := s.requests.MarkEntriesApproved(ctx, request.ID, now); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark entries approved")
	}

	entries, err := s.requests.ListEntries(ctx, request.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request entries")
	}
	tasks := make([]models.FulfillmentTask, 0, len(entries))
	for _, entry := range entries {
		tasks = append(tasks, models.FulfillmentTask{
			RequestID:     request.ID,
			SystemID:      entry.SystemID,
			AccessLevelID: entry.AccessLevelID,
			AssignedRole:  models.RoleIT,
		})
	}
	if err := s.tasks.CreateBatch(ctx, tasks); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fulfillment tasks")
	}

	s.notify.Dispatch(models.Notification{
		RecipientID:   request.RequesterID,
		Title:         fmt.Sprintf("Access request %s approved", request.Reference),
		Body:          "All validators approved. Implementation tasks have been queued.",
		Severity:      models.SeverityInfo,
		ActionURL:     stringPtr(fmt.Sprintf("/requests/%s", request.ID)),
		CorrelationID: &request.ID,
	})
	return nil
}

func (s *ValidationService) onRejected(request *models.AccessRequest, record *models.ValidationRecord) {
	body := "A validator rejected the request."
	if record.ResolutionNote != nil && *record.ResolutionNote != "" {
		body = fmt.Sprintf("A validator rejected the request: %s", *record.ResolutionNote)
	}
	s.notify.Dispatch(models.Notification{
		RecipientID:   request.RequesterID,
		Title:         fmt.Sprintf("Access request %s rejected", request.Reference),
		Body:          body,
		Severity:      models.SeverityWarning,
		ActionURL:     stringPtr(fmt.Sprintf("/requests/%s", request.ID)),
		CorrelationID: &request.ID,
	})
}

// Inbox returns the caller's pending validations, served from cache when
// fresh.
func (s *ValidationService) Inbox(ctx context.Context, userID string) ([]dto.InboxItem, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	key := inboxCacheKey(userID)
	var cached []dto.InboxItem
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("inbox cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	items, err := s.validations.ListPendingForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending validations")
	}
	if items == nil {
		items = []dto.InboxItem{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, items, s.inboxTTL); err != nil {
			s.logger.Warn("inbox cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return items, nil
}

func (s *ValidationService) invalidateInbox(ctx context.Context, record *models.ValidationRecord) {
	if s.cache == nil {
		return
	}
	for _, recipient := range record.Recipients() {
		if err := s.cache.Delete(ctx, inboxCacheKey(recipient)); err != nil {
			s.logger.Warn("inbox cache invalidation failed", zap.String("user_id", recipient), zap.Error(err))
		}
	}
}

func (s *ValidationService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "validation-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func inboxCacheKey(userID string) string {
	return fmt.Sprintf("inbox:%s", userID)
}
