package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type familyFixture struct {
	store    *memory.Store
	svc      IFamilyService
	parentId uuid.UUID
	code     string
}

func newFamilyFixture(t *testing.T) *familyFixture {
	t.Helper()
	store := memory.MustNewStore()
	svc := NewFamilyService(memory.NewRepositoryFactory(store), "server-key")
	parentId := uuid.New()

	_, err := svc.Register(context.Background(), parentId, "mum@example.com", &dto.RegisterProfileRequest{
		Role: "parent", FullName: "Maria",
	})
	require.NoError(t, err)
	family, err := svc.GetFamily(context.Background(), parentId)
	require.NoError(t, err)

	return &familyFixture{store: store, svc: svc, parentId: parentId, code: family.FamilyCode}
}

func (f *familyFixture) addChild(t *testing.T, age int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := f.svc.Register(context.Background(), id, "", &dto.RegisterProfileRequest{
		Role: "child", FullName: "Kid", FamilyCode: f.code, Age: intPtr(age),
	})
	require.NoError(t, err)
	return id
}

func TestRegister_ParentCreatesFamily(t *testing.T) {
	f := newFamilyFixture(t)

	family, err := f.svc.GetFamily(context.Background(), f.parentId)
	require.NoError(t, err)
	assert.Equal(t, "Maria's Family", family.Name)
	assert.Len(t, family.FamilyCode, 6)
	assert.NotContains(t, family.FamilyCode, "O")
	assert.NotContains(t, family.FamilyCode, "1")
	assert.False(t, family.HasAPIKey)
	require.Len(t, family.Members, 1)
	assert.Equal(t, "parent", family.Members[0].Role)
}

func TestRegister_ChildJoinsByCode(t *testing.T) {
	f := newFamilyFixture(t)
	childId := f.addChild(t, 9)

	profile, err := f.svc.GetProfile(context.Background(), childId)
	require.NoError(t, err)
	assert.Equal(t, "child", profile.Role)
	require.NotNil(t, profile.Age)
	assert.Equal(t, 9, *profile.Age)

	family, err := f.svc.GetFamily(context.Background(), f.parentId)
	require.NoError(t, err)
	assert.Len(t, family.Members, 2)
}

func TestRegister_CoParentJoinsExistingFamily(t *testing.T) {
	f := newFamilyFixture(t)
	ctx := context.Background()
	coParent := uuid.New()

	_, err := f.svc.Register(ctx, coParent, "", &dto.RegisterProfileRequest{Role: "parent", FamilyCode: strings.ToLower(f.code)})
	require.NoError(t, err)

	mine, err := f.svc.GetFamily(ctx, f.parentId)
	require.NoError(t, err)
	theirs, err := f.svc.GetFamily(ctx, coParent)
	require.NoError(t, err)
	assert.Equal(t, mine.Id, theirs.Id)
	assert.Len(t, theirs.Members, 2)

	_, err = f.svc.Register(ctx, uuid.New(), "", &dto.RegisterProfileRequest{Role: "parent", FamilyCode: "ZZZZZZ"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestRegister_Validation(t *testing.T) {
	f := newFamilyFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.RegisterProfileRequest
		want error
	}{
		{"child without age", dto.RegisterProfileRequest{Role: "child", FamilyCode: f.code}, apperr.ErrBadRequest},
		{"child too young", dto.RegisterProfileRequest{Role: "child", FamilyCode: f.code, Age: intPtr(2)}, apperr.ErrBadRequest},
		{"child without code", dto.RegisterProfileRequest{Role: "child", Age: intPtr(8)}, apperr.ErrBadRequest},
		{"unknown code", dto.RegisterProfileRequest{Role: "child", FamilyCode: "ZZZZZZ", Age: intPtr(8)}, apperr.ErrBadRequest},
		{"unknown role", dto.RegisterProfileRequest{Role: "admin"}, apperr.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, uuid.New(), "", &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.Register(ctx, f.parentId, "", &dto.RegisterProfileRequest{Role: "parent"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_RollsBackOnMemberFailure(t *testing.T) {
	f := newFamilyFixture(t)
	f.store.FailOn("family_members.create", errors.New("constraint violation"))

	childId := uuid.New()
	_, err := f.svc.Register(context.Background(), childId, "", &dto.RegisterProfileRequest{
		Role: "child", FamilyCode: f.code, Age: intPtr(7),
	})
	require.Error(t, err)

	_, err = f.svc.GetProfile(context.Background(), childId)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateChildAge(t *testing.T) {
	f := newFamilyFixture(t)
	ctx := context.Background()
	childId := f.addChild(t, 9)

	require.NoError(t, f.svc.UpdateChildAge(ctx, f.parentId, childId, 10))
	profile, err := f.svc.GetProfile(ctx, childId)
	require.NoError(t, err)
	assert.Equal(t, 10, *profile.Age)

	assert.ErrorIs(t, f.svc.UpdateChildAge(ctx, f.parentId, childId, 19), apperr.ErrBadRequest)
	assert.ErrorIs(t, f.svc.UpdateChildAge(ctx, childId, childId, 12), apperr.ErrForbidden)

	strangerId := uuid.New()
	_, err = f.svc.Register(ctx, strangerId, "", &dto.RegisterProfileRequest{Role: "parent"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.UpdateChildAge(ctx, strangerId, childId, 12), apperr.ErrForbidden)
}

func TestResolveAPIKey_Precedence(t *testing.T) {
	f := newFamilyFixture(t)
	ctx := context.Background()
	childId := f.addChild(t, 11)

	key, err := f.svc.ResolveAPIKey(ctx, childId, "")
	require.NoError(t, err)
	assert.Equal(t, "server-key", key)

	key, err = f.svc.ResolveAPIKey(ctx, childId, "personal-key")
	require.NoError(t, err)
	assert.Equal(t, "personal-key", key)

	require.NoError(t, f.svc.SetFamilyAPIKey(ctx, f.parentId, "family-key"))
	key, err = f.svc.ResolveAPIKey(ctx, childId, "personal-key")
	require.NoError(t, err)
	assert.Equal(t, "family-key", key)

	family, err := f.svc.GetFamily(ctx, childId)
	require.NoError(t, err)
	assert.True(t, family.HasAPIKey)

	assert.ErrorIs(t, f.svc.SetFamilyAPIKey(ctx, childId, "child-key"), apperr.ErrForbidden)

	require.NoError(t, f.svc.SetFamilyAPIKey(ctx, f.parentId, ""))
	key, err = f.svc.ResolveAPIKey(ctx, childId, "")
	require.NoError(t, err)
	assert.Equal(t, "server-key", key)
}

func TestParentPIN(t *testing.T) {
	f := newFamilyFixture(t)
	ctx := context.Background()

	ok, err := f.svc.VerifyParentPIN(ctx, f.parentId, "")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, f.svc.SetParentPIN(ctx, f.parentId, "12"), apperr.ErrBadRequest)
	assert.ErrorIs(t, f.svc.SetParentPIN(ctx, f.parentId, "12ab"), apperr.ErrBadRequest)
	require.NoError(t, f.svc.SetParentPIN(ctx, f.parentId, "4321"))

	ok, err = f.svc.VerifyParentPIN(ctx, f.parentId, "4321")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.VerifyParentPIN(ctx, f.parentId, "0000")
	require.NoError(t, err)
	assert.False(t, ok)

	profile, err := f.svc.GetProfile(ctx, f.parentId)
	require.NoError(t, err)
	assert.True(t, profile.HasParentPin)
}

func TestFamilyParents(t *testing.T) {
	f := newFamilyFixture(t)
	ctx := context.Background()
	childId := f.addChild(t, 8)

	secondParent := uuid.New()
	uow := memory.NewRepositoryFactory(f.store).NewUnitOfWork(ctx)
	parent, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: f.parentId})
	require.NoError(t, err)
	require.NoError(t, uow.ProfileRepository().Create(ctx, &entity.Profile{
		Id: secondParent, Role: entity.ProfileRoleParent, FamilyId: parent.FamilyId,
	}))

	parents, err := f.svc.FamilyParents(ctx, childId)
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, p := range parents {
		ids = append(ids, p.Id)
	}
	assert.ElementsMatch(t, []uuid.UUID{f.parentId, secondParent}, ids)
}
