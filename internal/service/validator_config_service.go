package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type validatorConfigStore interface {
	ListBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error)
	GetByID(ctx context.Context, id string) (*models.ValidatorConfiguration, error)
	Create(ctx context.Context, config *models.ValidatorConfiguration) error
	Update(ctx context.Context, config *models.ValidatorConfiguration) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ValidatorConfigService administers per-system validator configurations.
// The shape rule is enforced here, at write time: a SPECIFIC_USER
// configuration carries a user and no department, a
// DEPARTMENT_MANAGER_GROUP configuration the inverse. Reads never need to
// re-check.
type ValidatorConfigService struct {
	configs   validatorConfigStore
	users     identityProvider
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewValidatorConfigService constructs the service.
func NewValidatorConfigService(configs validatorConfigStore, users identityProvider, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ValidatorConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidatorConfigService{configs: configs, users: users, audit: audit, validator: validate, logger: logger}
}

// ListBySystem returns every configuration for a system, disabled included.
func (s *ValidatorConfigService) ListBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error) {
	configs, err := s.configs.ListBySystem(ctx, systemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list configurations")
	}
	if configs == nil {
		configs = []models.ValidatorConfiguration{}
	}
	return configs, nil
}

// Create adds a configuration for a system.
func (s *ValidatorConfigService) Create(ctx context.Context, systemID string, req dto.WriteValidatorConfigRequest, actor *models.JWTClaims) (*models.ValidatorConfiguration, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid configuration payload")
	}
	if err := s.checkShape(ctx, req); err != nil {
		return nil, err
	}

	config := &models.ValidatorConfiguration{
		SystemID:     systemID,
		Kind:         req.Kind,
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
		Rank:         req.Rank,
		Required:     req.Required,
		Active:       true,
	}
	if err := s.configs.Create(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create configuration")
	}
	s.emitAudit(ctx, actor, config, nil)
	return config, nil
}

// Update rewrites a configuration; the shape rule applies to the new values.
func (s *ValidatorConfigService) Update(ctx context.Context, id string, req dto.WriteValidatorConfigRequest, actor *models.JWTClaims) (*models.ValidatorConfiguration, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid configuration payload")
	}
	if err := s.checkShape(ctx, req); err != nil {
		return nil, err
	}

	config, err := s.configs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load configuration")
	}

	old := *config
	config.Kind = req.Kind
	config.UserID = req.UserID
	config.DepartmentID = req.DepartmentID
	config.Rank = req.Rank
	config.Required = req.Required
	if err := s.configs.Update(ctx, config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update configuration")
	}
	s.emitAudit(ctx, actor, config, &old)
	return config, nil
}

// SetActive toggles the soft-disable flag. Already spawned validation
// records are untouched.
func (s *ValidatorConfigService) SetActive(ctx context.Context, id string, active bool, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	config, err := s.configs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load configuration")
	}
	if err := s.configs.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle configuration")
	}
	old := *config
	config.Active = active
	s.emitAudit(ctx, actor, config, &old)
	return nil
}

func (s *ValidatorConfigService) checkShape(ctx context.Context, req dto.WriteValidatorConfigRequest) error {
	switch req.Kind {
	case models.ValidatorKindSpecificUser:
		if req.UserID == nil || *req.UserID == "" {
			return appErrors.Clone(appErrors.ErrConfiguration, "specific_user configuration requires a user")
		}
		if req.DepartmentID != nil {
			return appErrors.Clone(appErrors.ErrConfiguration, "specific_user configuration must not carry a department")
		}
		if _, err := s.users.FindByID(ctx, *req.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrConfiguration, "configured validator user does not exist")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify validator user")
		}
	case models.ValidatorKindDepartmentManagers:
		if req.DepartmentID == nil || *req.DepartmentID == "" {
			return appErrors.Clone(appErrors.ErrConfiguration, "department_manager_group configuration requires a department")
		}
		if req.UserID != nil {
			return appErrors.Clone(appErrors.ErrConfiguration, "department_manager_group configuration must not carry a user")
		}
	default:
		return appErrors.Clone(appErrors.ErrConfiguration, "unknown validator kind")
	}
	return nil
}

func (s *ValidatorConfigService) emitAudit(ctx context.Context, actor *models.JWTClaims, config *models.ValidatorConfiguration, old *models.ValidatorConfiguration) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionConfigWrite,
		Resource:   "validator_configuration",
		ResourceID: &config.ID,
		NewValues:  snapshotJSON(config),
		IPAddress:  "system",
		UserAgent:  "validator-config-service",
	}
	if old != nil {
		log.OldValues = snapshotJSON(old)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
