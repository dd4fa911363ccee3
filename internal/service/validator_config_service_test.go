package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
	appErrors "github.com/peoplehub/hr-access-api/pkg/errors"
)

type configStoreStub struct {
	configs map[string]*models.ValidatorConfiguration
}

func newConfigStoreStub() *configStoreStub {
	return &configStoreStub{configs: make(map[string]*models.ValidatorConfiguration)}
}

func (s *configStoreStub) ListBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error) {
	var result []models.ValidatorConfiguration
	for _, config := range s.configs {
		if config.SystemID == systemID {
			result = append(result, *config)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *configStoreStub) GetByID(ctx context.Context, id string) (*models.ValidatorConfiguration, error) {
	config, ok := s.configs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *config
	return &clone, nil
}

func (s *configStoreStub) Create(ctx context.Context, config *models.ValidatorConfiguration) error {
	if config.ID == "" {
		config.ID = fmt.Sprintf("cfg-%d", len(s.configs)+1)
	}
	stored := *config
	s.configs[config.ID] = &stored
	return nil
}

func (s *configStoreStub) Update(ctx context.Context, config *models.ValidatorConfiguration) error {
	if _, ok := s.configs[config.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *config
	s.configs[config.ID] = &stored
	return nil
}

func (s *configStoreStub) SetActive(ctx context.Context, id string, active bool) error {
	config, ok := s.configs[id]
	if !ok {
		return sql.ErrNoRows
	}
	config.Active = active
	return nil
}

func newConfigFixture() (*configStoreStub, *userStoreStub, *ValidatorConfigService) {
	store := newConfigStoreStub()
	users := &userStoreStub{users: make(map[string]*models.User)}
	users.users["validator-1"] = &models.User{ID: "validator-1", Role: models.RoleManager, Active: true}
	svc := NewValidatorConfigService(store, users, &auditStub{}, nil, nil)
	return store, users, svc
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestConfigCreateSpecificUser(t *testing.T) {
	_, _, svc := newConfigFixture()

	config, err := svc.Create(context.Background(), "sys-crm", dto.WriteValidatorConfigRequest{
		Kind:   models.ValidatorKindSpecificUser,
		UserID: strPtr("validator-1"),
		Rank:   1,
	}, adminActor())
	require.NoError(t, err)
	require.True(t, config.Active)
	require.Equal(t, "sys-crm", config.SystemID)
}

func TestConfigShapeRules(t *testing.T) {
	_, _, svc := newConfigFixture()

	cases := []struct {
		name string
		req  dto.WriteValidatorConfigRequest
	}{
		{"specific user without user", dto.WriteValidatorConfigRequest{Kind: models.ValidatorKindSpecificUser}},
		{"specific user with department", dto.WriteValidatorConfigRequest{Kind: models.ValidatorKindSpecificUser, UserID: strPtr("validator-1"), DepartmentID: strPtr("dept-1")}},
		{"specific user unknown user", dto.WriteValidatorConfigRequest{Kind: models.ValidatorKindSpecificUser, UserID: strPtr("ghost")}},
		{"group without department", dto.WriteValidatorConfigRequest{Kind: models.ValidatorKindDepartmentManagers}},
		{"group with user", dto.WriteValidatorConfigRequest{Kind: models.ValidatorKindDepartmentManagers, DepartmentID: strPtr("dept-1"), UserID: strPtr("validator-1")}},
		{"unknown kind", dto.WriteValidatorConfigRequest{Kind: "ORACLE"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "sys-crm", tc.req, adminActor())
			require.Error(t, err)
			require.Equal(t, appErrors.ErrConfiguration.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestConfigUpdateRewritesShape(t *testing.T) {
	store, _, svc := newConfigFixture()

	config, err := svc.Create(context.Background(), "sys-crm", dto.WriteValidatorConfigRequest{
		Kind:   models.ValidatorKindSpecificUser,
		UserID: strPtr("validator-1"),
	}, adminActor())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), config.ID, dto.WriteValidatorConfigRequest{
		Kind:         models.ValidatorKindDepartmentManagers,
		DepartmentID: strPtr("dept-sales"),
		Rank:         5,
	}, adminActor())
	require.NoError(t, err)
	require.Equal(t, models.ValidatorKindDepartmentManagers, updated.Kind)
	require.Nil(t, updated.UserID)
	require.Equal(t, 5, updated.Rank)
	require.Equal(t, "dept-sales", *store.configs[config.ID].DepartmentID)
}

func TestConfigDisableKeepsRecord(t *testing.T) {
	store, _, svc := newConfigFixture()

	config, err := svc.Create(context.Background(), "sys-crm", dto.WriteValidatorConfigRequest{
		Kind:   models.ValidatorKindSpecificUser,
		UserID: strPtr("validator-1"),
	}, adminActor())
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(context.Background(), config.ID, false, adminActor()))
	require.False(t, store.configs[config.ID].Active)

	listed, err := svc.ListBySystem(context.Background(), "sys-crm")
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestConfigUpdateMissingNotFound(t *testing.T) {
	_, _, svc := newConfigFixture()

	_, err := svc.Update(context.Background(), "cfg-missing", dto.WriteValidatorConfigRequest{
		Kind:   models.ValidatorKindSpecificUser,
		UserID: strPtr("validator-1"),
	}, adminActor())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
