package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

// approvedCrmRequest drives a request through the full approval path so
// fulfillment tasks exist.
func approvedCrmRequest(t *testing.T, f *engineFixture) *models.AccessRequest {
	t.Helper()
	request := openCrmRequest(t, f)
	for _, record := range pendingRecords(t, f, request.ID) {
		_, err := f.validationSvc.Approve(context.Background(), record.ID, actorFor(f, record.RepresentativeID), nil)
		require.NoError(t, err)
	}
	reloaded, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateApproved, reloaded.State)
	return reloaded
}

func itActor(f *engineFixture) *models.JWTClaims {
	f.addUser("it-1", models.RoleIT, true)
	return &models.JWTClaims{UserID: "it-1", Role: models.RoleIT}
}

func TestFulfillmentLastTaskFinalizesRequest(t *testing.T) {
	f := newEngineFixture()
	request := approvedCrmRequest(t, f)
	actor := itActor(f)
	f.notify.sent = nil

	tasks := f.tasks.byRequest(request.ID)
	require.NotEmpty(t, tasks)

	for _, task := range tasks {
		completed, err := f.fulfillmentSvc.Complete(context.Background(), task.ID, actor)
		require.NoError(t, err)
		require.Equal(t, models.FulfillmentTaskDone, completed.State)
		require.Equal(t, "it-1", *completed.CompletedBy)
	}

	reloaded, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateFinalized, reloaded.State)
	require.NotNil(t, reloaded.CompletedAt)

	require.Contains(t, f.notify.recipients(), "requester-1")
	require.Contains(t, f.notify.recipients(), "employee-1")
}

func TestFulfillmentWrongRoleForbidden(t *testing.T) {
	f := newEngineFixture()
	request := approvedCrmRequest(t, f)
	task := f.tasks.byRequest(request.ID)[0]

	_, err := f.fulfillmentSvc.Complete(context.Background(), task.ID, actorFor(f, "employee-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFulfillmentDoubleCompleteConflicts(t *testing.T) {
	f := newEngineFixture()
	request := approvedCrmRequest(t, f)
	actor := itActor(f)
	task := f.tasks.byRequest(request.ID)[0]

	_, err := f.fulfillmentSvc.Complete(context.Background(), task.ID, actor)
	require.NoError(t, err)

	_, err = f.fulfillmentSvc.Complete(context.Background(), task.ID, actor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestFulfillmentListPool(t *testing.T) {
	f := newEngineFixture()
	request := approvedCrmRequest(t, f)
	actor := itActor(f)

	tasks, err := f.fulfillmentSvc.ListPool(context.Background(), actor, "")
	require.NoError(t, err)
	require.Len(t, tasks, len(f.tasks.byRequest(request.ID)))

	// Only admin roles may inspect another role's pool.
	_, err = f.fulfillmentSvc.ListPool(context.Background(), actor, models.RoleHR)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	f.addUser("admin-1", models.RoleAdmin, true)
	tasks, err = f.fulfillmentSvc.ListPool(context.Background(), actorFor(f, "admin-1"), models.RoleIT)
	require.NoError(t, err)
	require.NotEmpty(t, tasks)
}

func TestFulfillmentOnlyOpenTasksListed(t *testing.T) {
	f := newEngineFixture()
	request := approvedCrmRequest(t, f)
	actor := itActor(f)

	task := f.tasks.byRequest(request.ID)[0]
	_, err := f.fulfillmentSvc.Complete(context.Background(), task.ID, actor)
	require.NoError(t, err)

	tasks, err := f.fulfillmentSvc.ListPool(context.Background(), actor, "")
	require.NoError(t, err)
	for _, open := range tasks {
		require.NotEqual(t, task.ID, open.ID)
	}
}
