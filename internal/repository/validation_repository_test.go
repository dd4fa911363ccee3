package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hr-access-api/internal/models"
)

func TestValidationRepositoryFanOutSkipsExistingTriples(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewValidationRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT state FROM access_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("PENDING"))

	// First triple already spawned, second is new.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM validation_records")).
		WithArgs("req-1", "sys-crm", "cfg-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM validation_records")).
		WithArgs("req-1", "sys-crm", "cfg-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO validation_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE access_requests SET state = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	records := []models.ValidationRecord{
		{SystemID: "sys-crm", ConfigID: "cfg-1", Kind: models.ValidationKindIndividual, RepresentativeID: "validator-1"},
		{SystemID: "sys-crm", ConfigID: "cfg-2", Kind: models.ValidationKindGroup, RepresentativeID: "manager-2", GroupSnapshot: pq.StringArray{"manager-1", "manager-2"}},
	}
	result, err := repo.CreateFanOut(context.Background(), "req-1", records)
	require.NoError(t, err)
	require.Equal(t, 1, result.Existing)
	require.Len(t, result.Created, 1)
	require.Equal(t, "cfg-2", result.Created[0].ConfigID)
	require.NotEmpty(t, result.Created[0].ID)
	require.Equal(t, models.ValidationStatePending, result.Created[0].State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRepositoryFanOutAllExistingSkipsStateFlip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewValidationRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT state FROM access_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("VALIDATING"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM validation_records")).
		WithArgs("req-1", "sys-crm", "cfg-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	result, err := repo.CreateFanOut(context.Background(), "req-1", []models.ValidationRecord{
		{SystemID: "sys-crm", ConfigID: "cfg-1", Kind: models.ValidationKindIndividual, RepresentativeID: "validator-1"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Existing)
	require.Empty(t, result.Created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRepositoryResolveGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewValidationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE validation_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), ResolveValidationParams{
		ID:         "val-1",
		State:      models.ValidationStateApproved,
		ResolvedBy: "validator-1",
		ResolvedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRepositoryListPendingForUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewValidationRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "system_id", "config_id", "kind", "state", "representative_id", "group_snapshot",
		"resolved_by", "resolved_at", "resolution_note", "created_at", "reference", "employee_id",
	}).AddRow("val-1", "req-1", "sys-crm", "cfg-1", "GROUP", "PENDING", "manager-2", "{manager-1,manager-2}",
		nil, nil, nil, time.Now(), "AR-ABCDEF1234", "employee-1")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN access_requests a ON a.id = v.request_id")).
		WithArgs("manager-1").
		WillReturnRows(rows)

	items, err := repo.ListPendingForUser(context.Background(), "manager-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "AR-ABCDEF1234", items[0].Reference)
	require.True(t, items[0].Validation.CanResolve("manager-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
