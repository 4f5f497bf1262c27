package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/workflow"
)

func TestAdminUserServiceOnlyRegistrarManages(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAdminUserService(repository.NewAdminUserRepository(db), nil, validation.New(), testLogger())

	req := dto.AdminUserCreateRequest{Name: "Dean Arts", Email: "dean@arts.pdn.ac.lk", Role: models.RoleDean, Faculty: "Faculty of Arts"}
	for _, actor := range []policy.Actor{engineeringDean, chancellor, studentService} {
		_, err := svc.Add(context.Background(), actor, req)
		var authErr *policy.AuthorizationError
		require.ErrorAs(t, err, &authErr)
	}
}

func TestAdminUserServiceLifecycle(t *testing.T) {
	db := newServiceDB(t)
	activity := &memoryActivityRepo{}
	svc := NewAdminUserService(repository.NewAdminUserRepository(db), NewActivityService(activity, testLogger()), validation.New(), testLogger())
	ctx := context.Background()

	_, err := svc.Add(ctx, registrar, dto.AdminUserCreateRequest{Name: "Dean Arts", Email: "dean@arts.pdn.ac.lk", Role: models.RoleDean})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors, "dean requires a faculty")

	created, err := svc.Add(ctx, registrar, dto.AdminUserCreateRequest{Name: "Dean Arts", Email: "Dean@Arts.pdn.ac.lk", Role: models.RoleDean, Faculty: "Faculty of Arts"})
	require.NoError(t, err)
	require.Equal(t, "dean@arts.pdn.ac.lk", created.Email)
	require.True(t, created.Active)

	_, err = svc.Add(ctx, registrar, dto.AdminUserCreateRequest{Name: "Other", Email: "dean@arts.pdn.ac.lk", Role: models.RoleViceChancellor})
	require.ErrorIs(t, err, ErrAdminEmailTaken)

	resolved, err := svc.Resolve(ctx, "dean@arts.pdn.ac.lk")
	require.NoError(t, err)
	require.Equal(t, "Faculty of Arts", resolved.Faculty)

	removed, err := svc.Remove(ctx, registrar, dto.AdminUserRemoveRequest{Email: "dean@arts.pdn.ac.lk"})
	require.NoError(t, err)
	require.False(t, removed.Active)

	_, err = svc.Resolve(ctx, "dean@arts.pdn.ac.lk")
	require.ErrorIs(t, err, ErrAdminNotFound)

	_, err = svc.Remove(ctx, registrar, dto.AdminUserRemoveRequest{Email: "dean@arts.pdn.ac.lk"})
	require.ErrorIs(t, err, ErrAdminNotFound)

	readded, err := svc.Add(ctx, registrar, dto.AdminUserCreateRequest{Name: "Dean Arts", Email: "dean@arts.pdn.ac.lk", Role: models.RoleDean, Faculty: "Faculty of Arts"})
	require.NoError(t, err)
	require.Equal(t, created.ID, readded.ID)

	list, err := svc.List(ctx, registrar)
	require.NoError(t, err)
	require.Len(t, list, 1)

	actions := make([]string, 0, len(activity.entries))
	for _, entry := range activity.entries {
		actions = append(actions, entry.Action)
	}
	require.Equal(t, []string{"admin added", "admin removed", "admin added"}, actions)
}

func TestAdminUserServiceCannotRemoveSelf(t *testing.T) {
	db := newServiceDB(t)
	repo := repository.NewAdminUserRepository(db)
	svc := NewAdminUserService(repo, nil, validation.New(), testLogger())

	self := models.AdminUser{Name: "AR Silva", Email: "ar@pdn.ac.lk", Role: models.RoleAssistantRegistrar, Active: true}
	require.NoError(t, repo.Create(context.Background(), &self))

	actor := registrar
	actor.ID = self.ID
	_, err := svc.Remove(context.Background(), actor, dto.AdminUserRemoveRequest{Email: "ar@pdn.ac.lk"})
	var fieldErr *workflow.ValidationError
	require.ErrorAs(t, err, &fieldErr)
}
