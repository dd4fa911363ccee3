package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	"github.com/peoplehub/hr-access-api/internal/repository"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

// Map-backed stand-ins mirroring the repository semantics: state guards,
// triple uniqueness on fan-out, tally-driven recompute.

type requestStoreStub struct {
	requests    map[string]*models.AccessRequest
	entries     map[string][]models.RequestedSystemAccess
	validations *validationStoreStub
	lastFilter  models.AccessRequestFilter
}

func newRequestStoreStub() *requestStoreStub {
	return &requestStoreStub{
		requests: make(map[string]*models.AccessRequest),
		entries:  make(map[string][]models.RequestedSystemAccess),
	}
}

func (s *requestStoreStub) Create(ctx context.Context, request *models.AccessRequest, entries []models.RequestedSystemAccess) error {
	if request.ID == "" {
		request.ID = fmt.Sprintf("req-%d", len(s.requests)+1)
	}
	if request.State == "" {
		request.State = models.RequestStatePending
	}
	stored := *request
	s.requests[request.ID] = &stored
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = fmt.Sprintf("%s-entry-%d", request.ID, i+1)
		}
		entries[i].RequestID = request.ID
	}
	s.entries[request.ID] = append([]models.RequestedSystemAccess(nil), entries...)
	return nil
}

func (s *requestStoreStub) GetByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *request
	return &clone, nil
}

func (s *requestStoreStub) ListEntries(ctx context.Context, requestID string) ([]models.RequestedSystemAccess, error) {
	return append([]models.RequestedSystemAccess(nil), s.entries[requestID]...), nil
}

func (s *requestStoreStub) List(ctx context.Context, filter models.AccessRequestFilter) ([]models.AccessRequest, error) {
	s.lastFilter = filter
	var result []models.AccessRequest
	for _, request := range s.requests {
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		result = append(result, *request)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *requestStoreStub) SetFailure(ctx context.Context, id, reason string) error {
	request, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.State = models.RequestStateError
	request.FailureReason = &reason
	return nil
}

func (s *requestStoreStub) TransitionState(ctx context.Context, id string, from, to models.AccessRequestState) (bool, error) {
	request, ok := s.requests[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if request.State != from {
		return false, nil
	}
	request.State = to
	if to == models.RequestStateFinalized {
		now := time.Now().UTC()
		request.CompletedAt = &now
	}
	return true, nil
}

func (s *requestStoreStub) Recompute(ctx context.Context, requestID string, next func(models.AccessRequestState, models.ValidationTally) models.AccessRequestState) (models.AccessRequestState, models.AccessRequestState, error) {
	request, ok := s.requests[requestID]
	if !ok {
		return "", "", sql.ErrNoRows
	}
	var tally models.ValidationTally
	for _, record := range s.validations.records {
		if record.RequestID != requestID {
			continue
		}
		tally.Total++
		switch record.State {
		case models.ValidationStateApproved:
			tally.Approved++
		case models.ValidationStateRejected:
			tally.Rejected++
		}
	}
	prev := request.State
	current := next(prev, tally)
	if current != prev {
		request.State = current
	}
	return prev, current, nil
}

func (s *requestStoreStub) MarkEntriesApproved(ctx context.Context, requestID string, ts time.Time) error {
	entries := s.entries[requestID]
	for i := range entries {
		entries[i].Approved = true
		entries[i].ApprovedAt = &ts
	}
	return nil
}

type validationStoreStub struct {
	records     map[string]*models.ValidationRecord
	requests    *requestStoreStub
	listCalls   int
	nextOrdinal int
}

func newValidationStoreStub() *validationStoreStub {
	return &validationStoreStub{records: make(map[string]*models.ValidationRecord)}
}

func (s *validationStoreStub) CreateFanOut(ctx context.Context, requestID string, records []models.ValidationRecord) (repository.FanOutResult, error) {
	var result repository.FanOutResult
	for i := range records {
		exists := false
		for _, existing := range s.records {
			if existing.RequestID == requestID && existing.SystemID == records[i].SystemID && existing.ConfigID == records[i].ConfigID {
				exists = true
				break
			}
		}
		if exists {
			result.Existing++
			continue
		}
		s.nextOrdinal++
		records[i].ID = fmt.Sprintf("val-%d", s.nextOrdinal)
		records[i].RequestID = requestID
		records[i].State = models.ValidationStatePending
		stored := records[i]
		s.records[stored.ID] = &stored
		result.Created = append(result.Created, stored)
	}
	if result.Total() > 0 {
		if request, ok := s.requests.requests[requestID]; ok && request.State == models.RequestStatePending {
			request.State = models.RequestStateValidating
		}
	}
	return result, nil
}

func (s *validationStoreStub) GetByID(ctx context.Context, id string) (*models.ValidationRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (s *validationStoreStub) ListByRequest(ctx context.Context, requestID string) ([]models.ValidationRecord, error) {
	var result []models.ValidationRecord
	for _, record := range s.records {
		if record.RequestID == requestID {
			result = append(result, *record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *validationStoreStub) Resolve(ctx context.Context, params repository.ResolveValidationParams) error {
	record, ok := s.records[params.ID]
	if !ok || record.State != models.ValidationStatePending {
		return sql.ErrNoRows
	}
	record.State = params.State
	record.ResolvedBy = &params.ResolvedBy
	record.ResolvedAt = &params.ResolvedAt
	record.ResolutionNote = params.Note
	return nil
}

func (s *validationStoreStub) ListPendingForUser(ctx context.Context, userID string) ([]dto.InboxItem, error) {
	s.listCalls++
	var items []dto.InboxItem
	for _, record := range s.records {
		if record.State != models.ValidationStatePending || !record.CanResolve(userID) {
			continue
		}
		item := dto.InboxItem{Validation: *record}
		if request, ok := s.requests.requests[record.RequestID]; ok {
			item.Reference = request.Reference
			item.EmployeeID = request.EmployeeID
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Validation.ID < items[j].Validation.ID })
	return items, nil
}

type configSourceStub struct {
	configs map[string][]models.ValidatorConfiguration
}

func (s *configSourceStub) ListActiveBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error) {
	return s.configs[systemID], nil
}

type userStoreStub struct {
	users map[string]*models.User
}

func (s *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (s *userStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := s.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

type departmentStub struct {
	managers map[string][]models.Manager
}

func (s *departmentStub) ResolveManagers(ctx context.Context, departmentID string) ([]models.Manager, error) {
	return s.managers[departmentID], nil
}

type notifierStub struct {
	sent []models.Notification
}

func (s *notifierStub) Dispatch(notification models.Notification) {
	s.sent = append(s.sent, notification)
}

func (s *notifierStub) DispatchAll(recipients []string, template models.Notification) {
	for _, recipient := range recipients {
		notification := template
		notification.RecipientID = recipient
		s.sent = append(s.sent, notification)
	}
}

func (s *notifierStub) recipients() []string {
	ids := make([]string, 0, len(s.sent))
	for _, n := range s.sent {
		ids = append(ids, n.RecipientID)
	}
	sort.Strings(ids)
	return ids
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type taskStoreStub struct {
	tasks map[string]*models.FulfillmentTask
}

func newTaskStoreStub() *taskStoreStub {
	return &taskStoreStub{tasks: make(map[string]*models.FulfillmentTask)}
}

func (s *taskStoreStub) CreateBatch(ctx context.Context, tasks []models.FulfillmentTask) error {
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = fmt.Sprintf("task-%d", len(s.tasks)+1)
		}
		if tasks[i].State == "" {
			tasks[i].State = models.FulfillmentTaskOpen
		}
		stored := tasks[i]
		s.tasks[stored.ID] = &stored
	}
	return nil
}

func (s *taskStoreStub) GetByID(ctx context.Context, id string) (*models.FulfillmentTask, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *task
	return &clone, nil
}

func (s *taskStoreStub) ListOpenByRole(ctx context.Context, role models.UserRole) ([]models.FulfillmentTask, error) {
	var result []models.FulfillmentTask
	for _, task := range s.tasks {
		if task.AssignedRole == role && task.State == models.FulfillmentTaskOpen {
			result = append(result, *task)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *taskStoreStub) Complete(ctx context.Context, id, userID string, ts time.Time) error {
	task, ok := s.tasks[id]
	if !ok || task.State != models.FulfillmentTaskOpen {
		return sql.ErrNoRows
	}
	task.State = models.FulfillmentTaskDone
	task.CompletedBy = &userID
	task.CompletedAt = &ts
	return nil
}

func (s *taskStoreStub) CountOpenByRequest(ctx context.Context, requestID string) (int, error) {
	count := 0
	for _, task := range s.tasks {
		if task.RequestID == requestID && task.State == models.FulfillmentTaskOpen {
			count++
		}
	}
	return count, nil
}

func (s *taskStoreStub) byRequest(requestID string) []models.FulfillmentTask {
	var result []models.FulfillmentTask
	for _, task := range s.tasks {
		if task.RequestID == requestID {
			result = append(result, *task)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

type cacheStub struct {
	values map[string][]byte
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *cacheStub) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

// engineFixture wires the whole validation pipeline against the stubs.
type engineFixture struct {
	requests    *requestStoreStub
	validations *validationStoreStub
	tasks       *taskStoreStub
	users       *userStoreStub
	departments *departmentStub
	configs     *configSourceStub
	notify      *notifierStub
	audit       *auditStub
	cache       *cacheStub

	requestSvc     *AccessRequestService
	validationSvc  *ValidationService
	fulfillmentSvc *FulfillmentService
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		requests:    newRequestStoreStub(),
		validations: newValidationStoreStub(),
		tasks:       newTaskStoreStub(),
		users:       &userStoreStub{users: make(map[string]*models.User)},
		departments: &departmentStub{managers: make(map[string][]models.Manager)},
		configs:     &configSourceStub{configs: make(map[string][]models.ValidatorConfiguration)},
		notify:      &notifierStub{},
		audit:       &auditStub{},
		cache:       newCacheStub(),
	}
	f.requests.validations = f.validations
	f.validations.requests = f.requests

	f.requestSvc = NewAccessRequestService(f.requests, f.validations, f.configs, f.users, f.departments, f.notify, f.audit, nil, nil, "AR")
	f.validationSvc = NewValidationService(f.validations, f.requests, f.tasks, f.cache, f.notify, f.audit, nil, time.Minute)
	f.fulfillmentSvc = NewFulfillmentService(f.tasks, f.requests, f.notify, f.audit, nil)
	return f
}

func (f *engineFixture) addUser(id string, role models.UserRole, active bool) {
	f.users.users[id] = &models.User{
		ID:       id,
		Email:    id + "@example.com",
		FullName: id,
		Role:     role,
		Active:   active,
	}
}

func strPtr(v string) *string { return &v }
