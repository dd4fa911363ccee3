package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

func seedCrmConfigs(f *engineFixture) {
	f.addUser("requester-1", models.RoleHR, true)
	f.addUser("employee-1", models.RoleEmployee, true)
	f.addUser("validator-1", models.RoleManager, true)
	f.addUser("manager-1", models.RoleManager, true)
	f.addUser("manager-2", models.RoleManager, true)

	f.departments.managers["dept-sales"] = []models.Manager{
		{UserID: "manager-1", Principal: false, Active: true},
		{UserID: "manager-2", Principal: true, Active: true},
	}
	f.configs.configs["sys-crm"] = []models.ValidatorConfiguration{
		{ID: "cfg-1", SystemID: "sys-crm", Kind: models.ValidatorKindSpecificUser, UserID: strPtr("validator-1"), Rank: 1, Active: true},
		{ID: "cfg-2", SystemID: "sys-crm", Kind: models.ValidatorKindDepartmentManagers, DepartmentID: strPtr("dept-sales"), Rank: 2, Active: true},
	}
}

func TestAccessRequestCreateFansOutValidations(t *testing.T) {
	f := newEngineFixture()
	seedCrmConfigs(f)

	request, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "new hire needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStateValidating, request.State)
	require.Contains(t, request.Reference, "AR-")

	records, err := f.validations.ListByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	var individual, group *models.ValidationRecord
	for i := range records {
		switch records[i].Kind {
		case models.ValidationKindIndividual:
			individual = &records[i]
		case models.ValidationKindGroup:
			group = &records[i]
		}
	}
	require.NotNil(t, individual)
	require.NotNil(t, group)
	require.Equal(t, "validator-1", individual.RepresentativeID)
	require.Equal(t, "manager-2", group.RepresentativeID)
	require.ElementsMatch(t, []string{"manager-1", "manager-2"}, []string(group.GroupSnapshot))

	require.ElementsMatch(t, []string{"validator-1", "manager-1", "manager-2"}, f.notify.recipients())
}

func TestAccessRequestFanOutIsIdempotent(t *testing.T) {
	f := newEngineFixture()
	seedCrmConfigs(f)

	request, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.NoError(t, err)

	notified := len(f.notify.sent)
	require.NoError(t, f.requestSvc.CreateValidations(context.Background(), request.ID))

	records, err := f.validations.ListByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, f.notify.sent, notified)
}

func TestAccessRequestReFanOutAfterDirectoryChurn(t *testing.T) {
	f := newEngineFixture()
	seedCrmConfigs(f)

	request, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStateValidating, request.State)

	f.users.users["validator-1"].Active = false
	f.departments.managers["dept-sales"] = nil

	require.NoError(t, f.requestSvc.CreateValidations(context.Background(), request.ID))

	reloaded, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateValidating, reloaded.State)
	require.Nil(t, reloaded.FailureReason)

	records, err := f.validations.ListByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestAccessRequestNoValidatorsMarksError(t *testing.T) {
	f := newEngineFixture()
	f.addUser("requester-1", models.RoleHR, true)
	f.addUser("employee-1", models.RoleEmployee, true)
	f.addUser("validator-1", models.RoleManager, false)

	f.configs.configs["sys-crm"] = []models.ValidatorConfiguration{
		{ID: "cfg-1", SystemID: "sys-crm", Kind: models.ValidatorKindSpecificUser, UserID: strPtr("validator-1"), Active: true},
		{ID: "cfg-2", SystemID: "sys-crm", Kind: models.ValidatorKindDepartmentManagers, DepartmentID: strPtr("dept-empty"), Active: true},
	}

	_, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNoValidatorsResolvable.Code, appErrors.FromError(err).Code)

	var created *models.AccessRequest
	for _, request := range f.requests.requests {
		created = request
	}
	require.NotNil(t, created)
	require.Equal(t, models.RequestStateError, created.State)
	require.NotNil(t, created.FailureReason)
}

func TestAccessRequestSkipsUnresolvableConfigs(t *testing.T) {
	f := newEngineFixture()
	seedCrmConfigs(f)
	f.users.users["validator-1"].Active = false

	request, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.NoError(t, err)

	records, err := f.validations.ListByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.ValidationKindGroup, records[0].Kind)
}

func TestAccessRequestCreateRejectsInactiveEmployee(t *testing.T) {
	f := newEngineFixture()
	f.addUser("requester-1", models.RoleHR, true)
	f.addUser("employee-1", models.RoleEmployee, false)

	_, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM",
		Entries:       []dto.RequestedAccessInput{{SystemID: "sys-crm", AccessLevelID: "lvl-read"}},
	}, "requester-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccessRequestCreateRejectsDuplicateSystems(t *testing.T) {
	f := newEngineFixture()
	seedCrmConfigs(f)

	_, err := f.requestSvc.Create(context.Background(), dto.CreateAccessRequest{
		EmployeeID:    "employee-1",
		Justification: "needs CRM twice",
		Entries: []dto.RequestedAccessInput{
			{SystemID: "sys-crm", AccessLevelID: "lvl-read"},
			{SystemID: "sys-crm", AccessLevelID: "lvl-write"},
		},
	}, "requester-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccessRequestListScopesEmployees(t *testing.T) {
	f := newEngineFixture()
	seedCrmConfigs(f)

	claims := &models.JWTClaims{UserID: "employee-1", Role: models.RoleEmployee}
	_, err := f.requestSvc.List(context.Background(), dto.AccessRequestQuery{}, claims)
	require.NoError(t, err)
	require.Equal(t, "employee-1", f.requests.lastFilter.RequesterID)

	claims = &models.JWTClaims{UserID: "hr-1", Role: models.RoleHR}
	_, err = f.requestSvc.List(context.Background(), dto.AccessRequestQuery{}, claims)
	require.NoError(t, err)
	require.Empty(t, f.requests.lastFilter.RequesterID)
}

func TestNextRequestState(t *testing.T) {
	cases := []struct {
		name  string
		prev  models.AccessRequestState
		tally models.ValidationTally
		want  models.AccessRequestState
	}{
		{"all approved", models.RequestStateValidating, models.ValidationTally{Total: 3, Approved: 3}, models.RequestStateApproved},
		{"one rejection wins", models.RequestStateValidating, models.ValidationTally{Total: 3, Approved: 2, Rejected: 1}, models.RequestStateRejected},
		{"partial stays validating", models.RequestStateValidating, models.ValidationTally{Total: 3, Approved: 1}, models.RequestStateValidating},
		{"no records pending", models.RequestStatePending, models.ValidationTally{}, models.RequestStatePending},
		{"rejected is terminal", models.RequestStateRejected, models.ValidationTally{Total: 3, Approved: 3}, models.RequestStateRejected},
		{"finalized is terminal", models.RequestStateFinalized, models.ValidationTally{Total: 1, Rejected: 1}, models.RequestStateFinalized},
		{"error is terminal", models.RequestStateError, models.ValidationTally{Total: 1, Approved: 1}, models.RequestStateError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, nextRequestState(tc.prev, tc.tally))
		})
	}
}

func TestPickRepresentative(t *testing.T) {
	managers := []models.Manager{
		{UserID: "m1", Principal: false, Active: true},
		{UserID: "m2", Principal: true, Active: true},
	}
	require.Equal(t, "m2", pickRepresentative(managers))

	managers[1].Active = false
	require.Equal(t, "m1", pickRepresentative(managers))

	managers[0].Active = false
	require.Equal(t, "m1", pickRepresentative(managers))
}
