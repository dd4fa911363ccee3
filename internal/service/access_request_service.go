package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	"github.com/peoplehub/hr-access-api/internal/repository"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type accessRequestStore interface {
	Create(ctx context.Context, request *models.AccessRequest, entries []models.RequestedSystemAccess) error
	GetByID(ctx context.Context, id string) (*models.AccessRequest, error)
	ListEntries(ctx context.Context, requestID string) ([]models.RequestedSystemAccess, error)
	List(ctx context.Context, filter models.AccessRequestFilter) ([]models.AccessRequest, error)
	SetFailure(ctx context.Context, id, reason string) error
}

type validationStore interface {
	CreateFanOut(ctx context.Context, requestID string, records []models.ValidationRecord) (repository.FanOutResult, error)
	ListByRequest(ctx context.Context, requestID string) ([]models.ValidationRecord, error)
}

type validatorConfigSource interface {
	ListActiveBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error)
}

type identityProvider interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type managerResolver interface {
	ResolveManagers(ctx context.Context, departmentID string) ([]models.Manager, error)
}

type notifier interface {
	Dispatch(notification models.Notification)
	DispatchAll(recipients []string, template models.Notification)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AccessRequestService owns request creation and the validation fan-out:
// expanding each requested system's validator configurations into concrete
// validation records.
type AccessRequestService struct {
	requests    accessRequestStore
	validations validationStore
	configs     validatorConfigSource
	users       identityProvider
	departments managerResolver
	notify      notifier
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	refPrefix   string
}

// SetMetrics attaches the instrumentation sink. Optional; nil is fine.
func (s *AccessRequestService) SetMetrics(m *MetricsService) { s.metrics = m }

// NewAccessRequestService constructs the service.
func NewAccessRequestService(
	requests accessRequestStore,
	validations validationStore,
	configs validatorConfigSource,
	users identityProvider,
	departments managerResolver,
	notify notifier,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	refPrefix string,
) *AccessRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if refPrefix == "" {
		refPrefix = "AR"
	}
	return &AccessRequestService{
		requests:    requests,
		validations: validations,
		configs:     configs,
		users:       users,
		departments: departments,
		notify:      notify,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		refPrefix:   refPrefix,
	}
}

// Create opens an access request for an employee and immediately fans out
// its validations. The requester id is an explicit parameter taken from the
// authenticated claims, never resolved implicitly.
func (s *AccessRequestService) Create(ctx context.Context, req dto.CreateAccessRequest, requesterID string) (*models.AccessRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access request payload")
	}
	if requesterID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	employee, err := s.users.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "target employee does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target employee")
	}
	if !employee.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target employee is inactive")
	}

	request := &models.AccessRequest{
		Reference:     s.newReference(),
		RequesterID:   requesterID,
		EmployeeID:    req.EmployeeID,
		Justification: strings.TrimSpace(req.Justification),
		State:         models.RequestStatePending,
	}
	entries := make([]models.RequestedSystemAccess, 0, len(req.Entries))
	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		if _, dup := seen[entry.SystemID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate system in request entries")
		}
		seen[entry.SystemID] = struct{}{}
		entries = append(entries, models.RequestedSystemAccess{
			SystemID:      entry.SystemID,
			AccessLevelID: entry.AccessLevelID,
		})
	}

	if err := s.requests.Create(ctx, request, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access request")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &requesterID,
		Action:     models.AuditActionRequestCreate,
		Resource:   "access_request",
		ResourceID: &request.ID,
		NewValues:  snapshotJSON(request),
	})

	if err := s.CreateValidations(ctx, request.ID); err != nil {
		return nil, err
	}

	created, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload access request")
	}
	return created, nil
}

// CreateValidations expands the request's validator configurations into
// validation records. Safe to re-invoke: existing (request, system,
// configuration) triples are skipped inside the fan-out transaction, so a
// retried job never duplicates records. A request for which not a single
// validator resolves on its first fan-out is marked ERROR and the operation
// fails.
func (s *AccessRequestService) CreateValidations(ctx context.Context, requestID string) error {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load access request")
	}
	entries, err := s.requests.ListEntries(ctx, requestID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request entries")
	}

	plan := make([]models.ValidationRecord, 0, len(entries))
	for _, entry := range entries {
		configs, err := s.configs.ListActiveBySystem(ctx, entry.SystemID)
		if err != nil {
			s.logger.Warn("failed to load validator configurations, skipping system",
				zap.String("request_id", requestID),
				zap.String("system_id", entry.SystemID),
				zap.Error(err))
			continue
		}
		for _, config := range configs {
			record, ok := s.planRecord(ctx, requestID, entry.SystemID, config)
			if ok {
				plan = append(plan, record)
			}
		}
	}

	if len(plan) == 0 {
		// Directory churn can make every configuration unresolvable after a
		// successful fan-out. Existing records keep their frozen snapshots and
		// still drive the request, so re-entry must not touch its state.
		existing, err := s.validations.ListByRequest(ctx, requestID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validations")
		}
		if len(existing) > 0 || request.State != models.RequestStatePending {
			return nil
		}
		reason := "no validators could be resolved for any requested system"
		if err := s.requests.SetFailure(ctx, requestID, reason); err != nil {
			s.logger.Error("failed to mark request as errored", zap.String("request_id", requestID), zap.Error(err))
		}
		s.metrics.RecordTransition(request.State, models.RequestStateError)
		return appErrors.Clone(appErrors.ErrNoValidatorsResolvable, reason)
	}

	result, err := s.validations.CreateFanOut(ctx, requestID, plan)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create validations")
	}
	s.metrics.ObserveFanOut(len(result.Created))

	for _, record := range result.Created {
		record := record
		s.emitAudit(ctx, &models.AuditLog{
			UserID:     &request.RequesterID,
			Action:     models.AuditActionValidationCreate,
			Resource:   "validation_record",
			ResourceID: &record.ID,
			NewValues:  snapshotJSON(&record),
		})
		s.notify.DispatchAll(record.Recipients(), models.Notification{
			Title:         fmt.Sprintf("Access request %s awaits your validation", request.Reference),
			Body:          fmt.Sprintf("A request for employee %s needs your approval.", request.EmployeeID),
			Severity:      models.SeverityAction,
			ActionURL:     stringPtr(fmt.Sprintf("/validations/%s", record.ID)),
			CorrelationID: &request.ID,
		})
	}
	return nil
}

// Get returns a request with entries and validations, enforcing actor
// scope: employees see their own requests, managers additionally see
// requests awaiting them, HR and admins see everything.
func (s *AccessRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.AccessRequestDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load access request")
	}
	validations, err := s.validations.ListByRequest(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validations")
	}
	if !s.canView(request, validations, actor) {
		return nil, appErrors.ErrForbidden
	}
	entries, err := s.requests.ListEntries(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request entries")
	}
	return &dto.AccessRequestDetail{Request: *request, Entries: entries, Validations: validations}, nil
}

// List returns requests visible to the actor.
func (s *AccessRequestService) List(ctx context.Context, query dto.AccessRequestQuery, actor *models.JWTClaims) ([]models.AccessRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.AccessRequestFilter{
		States:     query.States,
		EmployeeID: query.EmployeeID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleHR, models.RoleIT:
		// full visibility
	default:
		filter.RequesterID = actor.UserID
	}
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list access requests")
	}
	return requests, nil
}

func (s *AccessRequestService) planRecord(ctx context.Context, requestID, systemID string, config models.ValidatorConfiguration) (models.ValidationRecord, bool) {
	switch config.Kind {
	case models.ValidatorKindSpecificUser:
		if config.UserID == nil {
			s.logger.Warn("specific_user configuration without user, skipping",
				zap.String("config_id", config.ID))
			return models.ValidationRecord{}, false
		}
		user, err := s.users.FindByID(ctx, *config.UserID)
		if err != nil || !user.Active {
			s.logger.Warn("validator user missing or inactive, skipping configuration",
				zap.String("request_id", requestID),
				zap.String("config_id", config.ID),
				zap.Error(err))
			return models.ValidationRecord{}, false
		}
		return models.ValidationRecord{
			RequestID:        requestID,
			SystemID:         systemID,
			ConfigID:         config.ID,
			Kind:             models.ValidationKindIndividual,
			RepresentativeID: user.ID,
		}, true
	case models.ValidatorKindDepartmentManagers:
		if config.DepartmentID == nil {
			s.logger.Warn("department_manager_group configuration without department, skipping",
				zap.String("config_id", config.ID))
			return models.ValidationRecord{}, false
		}
		managers, err := s.departments.ResolveManagers(ctx, *config.DepartmentID)
		if err != nil {
			s.logger.Warn("failed to resolve department managers, skipping configuration",
				zap.String("request_id", requestID),
				zap.String("config_id", config.ID),
				zap.Error(err))
			return models.ValidationRecord{}, false
		}
		if len(managers) == 0 {
			s.logger.Warn("department has no active managers, skipping configuration",
				zap.String("request_id", requestID),
				zap.String("department_id", *config.DepartmentID),
				zap.String("config_id", config.ID))
			return models.ValidationRecord{}, false
		}
		snapshot := make([]string, 0, len(managers))
		for _, m := range managers {
			snapshot = append(snapshot, m.UserID)
		}
		return models.ValidationRecord{
			RequestID:        requestID,
			SystemID:         systemID,
			ConfigID:         config.ID,
			Kind:             models.ValidationKindGroup,
			RepresentativeID: pickRepresentative(managers),
			GroupSnapshot:    snapshot,
		}, true
	default:
		s.logger.Warn("unknown validator kind, skipping configuration",
			zap.String("config_id", config.ID),
			zap.String("kind", string(config.Kind)))
		return models.ValidationRecord{}, false
	}
}

func (s *AccessRequestService) canView(request *models.AccessRequest, validations []models.ValidationRecord, actor *models.JWTClaims) bool {
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleHR, models.RoleIT:
		return true
	}
	if request.RequesterID == actor.UserID || request.EmployeeID == actor.UserID {
		return true
	}
	for i := range validations {
		if validations[i].RepresentativeID == actor.UserID {
			return true
		}
		for _, member := range validations[i].GroupSnapshot {
			if member == actor.UserID {
				return true
			}
		}
	}
	return false
}

func (s *AccessRequestService) newReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return fmt.Sprintf("%s-%s", s.refPrefix, suffix)
}

func (s *AccessRequestService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "access-request-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// pickRepresentative applies the principal-manager-first rule: the flagged
// principal when present in the resolved set, else the first active manager
// in resolution order.
func pickRepresentative(managers []models.Manager) string {
	for _, m := range managers {
		if m.Principal && m.Active {
			return m.UserID
		}
	}
	for _, m := range managers {
		if m.Active {
			return m.UserID
		}
	}
	return managers[0].UserID
}

// nextRequestState derives the aggregate state from the validation tally.
// Terminal states never regress; a single rejection wins over everything
// else regardless of remaining pending records.
func nextRequestState(prev models.AccessRequestState, tally models.ValidationTally) models.AccessRequestState {
	switch prev {
	case models.RequestStateRejected, models.RequestStateFinalized, models.RequestStateError:
		return prev
	}
	switch {
	case tally.Rejected > 0:
		return models.RequestStateRejected
	case tally.Total > 0 && tally.Approved == tally.Total:
		return models.RequestStateApproved
	case tally.Approved > 0 || prev != models.RequestStatePending:
		return models.RequestStateValidating
	default:
		return prev
	}
}

func snapshotJSON(value interface{}) []byte {
	payload, err := json.Marshal(value)
	if err != nil {
		return []byte("{}")
	}
	return payload
}

func stringPtr(value string) *string {
	return &value
}
