package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

func openCrmRequest(t *testing.T, f *engineFixture) *models.AccessRequest {
	t.Helper()
	seedCrmConfigs(f)
	request, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.NoError(t, err)
	return request
}

func pendingRecords(t *testing.T, f *engineFixture, requestID string) []models.ValidationRecord {
	t.Helper()
	records, err := f.validations.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	return records
}

func actorFor(f *engineFixture, userID string) *models.JWTClaims {
	user := f.users.users[userID]
	return &models.JWTClaims{UserID: userID, Role: user.Role}
}

func TestValidationAllApprovalsApproveRequest(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)
	f.notify.sent = nil

	for _, record := range pendingRecords(t, f, request.ID) {
		resolver := record.RepresentativeID
		resolved, err := f.validationSvc.Approve(context.Background(), record.ID, actorFor(f, resolver), nil)
		require.NoError(t, err)
		require.Equal(t, models.ValidationStateApproved, resolved.State)
		require.Equal(t, resolver, *resolved.ResolvedBy)
	}

	reloaded, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateApproved, reloaded.State)

	entries, err := f.requests.ListEntries(context.Background(), request.ID)
	require.NoError(t, err)
	for _, entry := range entries {
		require.True(t, entry.Approved)
	}

	tasks := f.tasks.byRequest(request.ID)
	require.Len(t, tasks, len(entries))
	for _, task := range tasks {
		require.Equal(t, models.RoleIT, task.AssignedRole)
		require.Equal(t, models.FulfillmentTaskOpen, task.State)
	}

	require.Contains(t, f.notify.recipients(), "requester-1")
}

func TestValidationRejectionShortCircuits(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)
	records := pendingRecords(t, f, request.ID)
	require.Len(t, records, 2)

	first, second := records[0], records[1]
	_, err := f.validationSvc.Reject(context.Background(), first.ID, actorFor(f, first.RepresentativeID), "not justified")
	require.NoError(t, err)

	reloaded, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateRejected, reloaded.State)

	// A later approval on the surviving record must not revive the request.
	_, err = f.validationSvc.Approve(context.Background(), second.ID, actorFor(f, second.RepresentativeID), nil)
	require.NoError(t, err)

	reloaded, err = f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateRejected, reloaded.State)

	require.Empty(t, f.tasks.byRequest(request.ID))
}

func TestValidationNonMemberForbidden(t *testing.T) {
	f := newEngineFixture()
	f.addUser("admin-1", models.RoleAdmin, true)
	request := openCrmRequest(t, f)
	records := pendingRecords(t, f, request.ID)

	for _, record := range records {
		_, err := f.validationSvc.Approve(context.Background(), record.ID, actorFor(f, "admin-1"), nil)
		require.Error(t, err)
		require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestValidationGroupMemberCanResolve(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)

	var group models.ValidationRecord
	for _, record := range pendingRecords(t, f, request.ID) {
		if record.Kind == models.ValidationKindGroup {
			group = record
		}
	}
	require.NotEmpty(t, group.ID)
	require.NotEqual(t, "manager-1", group.RepresentativeID)

	resolved, err := f.validationSvc.Approve(context.Background(), group.ID, actorFor(f, "manager-1"), nil)
	require.NoError(t, err)
	require.Equal(t, "manager-1", *resolved.ResolvedBy)
}

func TestValidationDoubleResolveConflicts(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)
	records := pendingRecords(t, f, request.ID)
	record := records[0]

	_, err := f.validationSvc.Approve(context.Background(), record.ID, actorFor(f, record.RepresentativeID), nil)
	require.NoError(t, err)

	_, err = f.validationSvc.Reject(context.Background(), record.ID, actorFor(f, record.RepresentativeID), "changed my mind")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
}

func TestValidationRejectRequiresNote(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)
	record := pendingRecords(t, f, request.ID)[0]

	_, err := f.validationSvc.Reject(context.Background(), record.ID, actorFor(f, record.RepresentativeID), "")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidationInboxCaching(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)

	items, err := f.validationSvc.Inbox(context.Background(), "validator-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, request.Reference, items[0].Reference)
	require.Equal(t, 1, f.validations.listCalls)

	// Second read is served from cache.
	items, err = f.validationSvc.Inbox(context.Background(), "validator-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, f.validations.listCalls)
}

func TestValidationResolveInvalidatesInbox(t *testing.T) {
	f := newEngineFixture()
	request := openCrmRequest(t, f)

	_, err := f.validationSvc.Inbox(context.Background(), "validator-1")
	require.NoError(t, err)
	require.Equal(t, 1, f.validations.listCalls)

	var individual models.ValidationRecord
	for _, record := range pendingRecords(t, f, request.ID) {
		if record.Kind == models.ValidationKindIndividual {
			individual = record
		}
	}
	_, err = f.validationSvc.Approve(context.Background(), individual.ID, actorFor(f, "validator-1"), nil)
	require.NoError(t, err)

	items, err := f.validationSvc.Inbox(context.Background(), "validator-1")
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 2, f.validations.listCalls)
}

func TestValidationInboxEmptyForOutsider(t *testing.T) {
	f := newEngineFixture()
	openCrmRequest(t, f)
	f.addUser("outsider-1", models.RoleEmployee, true)

	items, err := f.validationSvc.Inbox(context.Background(), "outsider-1")
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}
