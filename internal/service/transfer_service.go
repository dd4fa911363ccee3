package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type transferStore interface {
	Create(ctx context.Context, transfer *models.Transfer) error
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Transfer, error)
}

type requestOpener interface {
	Create(ctx context.Context, req dto.CreateAccessRequest, requesterID string) (*models.AccessRequest, error)
}

// decisionPrecedence ranks combined transfer verdicts: a REMOVE from either
// department beats everything, then MODIFY, then ADD, then KEEP.
var decisionPrecedence = map[models.TransferDecision]int{
	models.DecisionKeep:   0,
	models.DecisionAdd:    1,
	models.DecisionModify: 2,
	models.DecisionRemove: 3,
}

// CombineDecisions merges the old and new department verdicts for one item.
func CombineDecisions(oldDecision, newDecision models.TransferDecision) models.TransferDecision {
	if decisionPrecedence[newDecision] >= decisionPrecedence[oldDecision] {
		return newDecision
	}
	return oldDecision
}

// TransferService handles department mobility: both departments submit a
// per-item decision, the combined outcome is computed by precedence, and
// ADD/MODIFY items spawn a fresh access request through the normal
// validation pipeline.
type TransferService struct {
	transfers transferStore
	requests  requestOpener
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransferService constructs the service.
func NewTransferService(transfers transferStore, requests requestOpener, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{transfers: transfers, requests: requests, audit: audit, validator: validate, logger: logger}
}

// Preview computes the combined outcome per item without persisting
// anything.
func (s *TransferService) Preview(ctx context.Context, req dto.TransferRequest) (*dto.TransferPreview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	outcomes, err := s.combine(req.Items)
	if err != nil {
		return nil, err
	}
	return &dto.TransferPreview{Outcomes: outcomes}, nil
}

// Create records the transfer and, when any item combines to ADD or MODIFY,
// opens an access request for those items on behalf of the actor.
func (s *TransferService) Create(ctx context.Context, req dto.TransferRequest, actor *models.JWTClaims) (*dto.TransferResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	if req.FromDepartment == req.ToDepartment {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transfer must move between two distinct departments")
	}
	outcomes, err := s.combine(req.Items)
	if err != nil {
		return nil, err
	}

	transfer := &models.Transfer{
		EmployeeID:     req.EmployeeID,
		FromDepartment: req.FromDepartment,
		ToDepartment:   req.ToDepartment,
		CreatedBy:      actor.UserID,
	}

	var spawned *models.AccessRequest
	entries := make([]dto.RequestedAccessInput, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Final == models.DecisionAdd || outcome.Final == models.DecisionModify {
			entries = append(entries, dto.RequestedAccessInput{
				SystemID:      outcome.SystemID,
				AccessLevelID: outcome.AccessLevelID,
			})
		}
	}
	if len(entries) > 0 {
		spawned, err = s.requests.Create(ctx, dto.CreateAccessRequest{
			EmployeeID:    req.EmployeeID,
			Justification: fmt.Sprintf("Department transfer %s -> %s: %s", req.FromDepartment, req.ToDepartment, req.Justification),
			Entries:       entries,
		}, actor.UserID)
		if err != nil {
			return nil, err
		}
		transfer.AccessRequestID = &spawned.ID
	}

	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transfer")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionTransferCreate,
		Resource:   "transfer",
		ResourceID: &transfer.ID,
		NewValues:  snapshotJSON(transfer),
	})

	return &dto.TransferResult{Transfer: *transfer, Request: spawned, Outcomes: outcomes}, nil
}

// History returns an employee's transfers, newest first.
func (s *TransferService) History(ctx context.Context, employeeID string) ([]models.Transfer, error) {
	transfers, err := s.transfers.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfers")
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	return transfers, nil
}

func (s *TransferService) combine(items []models.TransferItem) ([]models.TransferOutcome, error) {
	outcomes := make([]models.TransferOutcome, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := decisionPrecedence[item.OldDecision]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown decision %q", item.OldDecision))
		}
		if _, ok := decisionPrecedence[item.NewDecision]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown decision %q", item.NewDecision))
		}
		key := item.SystemID + "/" + item.AccessLevelID
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate item in transfer")
		}
		seen[key] = struct{}{}
		outcomes = append(outcomes, models.TransferOutcome{
			SystemID:      item.SystemID,
			AccessLevelID: item.AccessLevelID,
			Final:         CombineDecisions(item.OldDecision, item.NewDecision),
		})
	}
	return outcomes, nil
}

func (s *TransferService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "transfer-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
