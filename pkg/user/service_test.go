package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/service"
)

func strPtr(s string) *string { return &s }

// newFixture seeds two parents (p1 older than p2) and three learners, two of
// them belonging to p1.
func newFixture(t *testing.T) *Service {
	t.Helper()
	store := NewStore()
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []*User{
		{BaseModel: repository.BaseModel{ID: "p1", CreatedAt: created}, Email: "haris@yopmail.com", Username: "haris_parent", UserType: TypeParent, Plan: DefaultPlan, Active: true},
		{BaseModel: repository.BaseModel{ID: "p2", CreatedAt: created.Add(24 * time.Hour)}, Email: "hamza@yopmail.com", Username: "hamza_parent", UserType: TypeParent, Plan: DefaultPlan, Active: true, Paid: true},
		{BaseModel: repository.BaseModel{ID: "l1", CreatedAt: created.Add(time.Hour)}, Email: "ali@yopmail.com", Username: "ali_learner", UserType: TypeLearner, Level: strPtr("Grade 3"), ParentID: strPtr("p1"), Plan: DefaultPlan, Active: true},
		{BaseModel: repository.BaseModel{ID: "l2", CreatedAt: created.Add(2 * time.Hour)}, Email: "sara@yopmail.com", Username: "sara_learner", UserType: TypeLearner, Level: strPtr("Grade 5"), ParentID: strPtr("p1"), Plan: DefaultPlan},
		{BaseModel: repository.BaseModel{ID: "l3", CreatedAt: created.Add(25 * time.Hour)}, Email: "omar@yopmail.com", Username: "omar_learner", UserType: TypeLearner, Level: strPtr("Grade 1"), ParentID: strPtr("p2"), Plan: DefaultPlan, Active: true},
	}
	for _, u := range seed {
		_, err := store.Add(ctx, u)
		require.NoError(t, err)
	}
	return NewService(store, service.Deps{})
}

func TestService_ListParentsWithChildren(t *testing.T) {
	svc := newFixture(t)

	page, err := svc.List(context.Background(), ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "p2", page.Data[0].ID, "newest parent first")
	assert.Equal(t, "p1", page.Data[1].ID)
	require.Len(t, page.Data[1].Children, 2)
	assert.Equal(t, "l1", page.Data[1].Children[0].ID)
	assert.Equal(t, "l2", page.Data[1].Children[1].ID)
	assert.Len(t, page.Data[0].Children, 1)
}

func TestService_ListSearchMatchesParentsOnly(t *testing.T) {
	svc := newFixture(t)

	page, err := svc.List(context.Background(), ListParams{Page: 1, PageSize: 10, Search: "HARIS"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "p1", page.Data[0].ID)
	assert.Empty(t, page.Data[0].Children, "children must match the search too")
	assert.NotNil(t, page.Data[0].Children)

	page, err = svc.List(context.Background(), ListParams{Page: 1, PageSize: 10, Search: "learner"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total, "learners are never listed at top level")
}

func TestService_Children(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	kids, err := svc.Children(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, kids, 2)

	_, err = svc.Children(ctx, "l1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_CreateParentAndLearner(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateInput{Email: "new@yopmail.com", Username: "new_parent", UserType: TypeParent})
	require.NoError(t, err)
	assert.NotEmpty(t, parent.ID)
	assert.Nil(t, parent.Level)
	assert.Nil(t, parent.ParentID)
	assert.True(t, parent.Active)
	assert.Equal(t, DefaultPlan, parent.Plan)

	learner, err := svc.Create(ctx, CreateInput{Email: "kid@yopmail.com", Username: "kid", UserType: TypeLearner, ParentID: parent.ID})
	require.NoError(t, err)
	require.NotNil(t, learner.Level)
	assert.Equal(t, DefaultLearnerLevel, *learner.Level)
	require.NotNil(t, learner.ParentID)
	assert.Equal(t, parent.ID, *learner.ParentID)
	assert.False(t, learner.Paid)
}

func TestService_CreateRejections(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     CreateInput
		target error
	}{
		{"duplicate email ignores case", CreateInput{Email: "HARIS@yopmail.com", Username: "another", UserType: TypeParent}, repository.ErrConflict},
		{"learner without parent", CreateInput{Email: "a@yopmail.com", Username: "abc", UserType: TypeLearner}, query.ErrInvalidArgument},
		{"learner with learner parent", CreateInput{Email: "b@yopmail.com", Username: "abc", UserType: TypeLearner, ParentID: "l1"}, query.ErrInvalidArgument},
		{"parent with parent", CreateInput{Email: "c@yopmail.com", Username: "abc", UserType: TypeParent, ParentID: "p1"}, query.ErrInvalidArgument},
		{"short username", CreateInput{Email: "d@yopmail.com", Username: "ab", UserType: TypeParent}, query.ErrInvalidArgument},
		{"unknown type", CreateInput{Email: "e@yopmail.com", Username: "abc", UserType: "admin"}, query.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.target)
		})
	}
	assert.Equal(t, 5, svc.Store().Len())
}

func TestService_UpdateEmailConflict(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "p2", UpdateInput{Email: strPtr("haris@yopmail.com")})
	var conflict *repository.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	u, err := svc.Update(ctx, "p1", UpdateInput{Email: strPtr("haris@yopmail.com"), Plan: strPtr("Premium")})
	require.NoError(t, err, "keeping your own email is not a conflict")
	assert.Equal(t, "Premium", u.Plan)
}

func TestService_UpdateLevel(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	u, err := svc.Update(ctx, "l1", UpdateInput{Level: strPtr("Grade 4")})
	require.NoError(t, err)
	assert.Equal(t, "Grade 4", *u.Level)

	_, err = svc.Update(ctx, "p1", UpdateInput{Level: strPtr("Grade 4")})
	assert.ErrorIs(t, err, query.ErrInvalidArgument)

	_, err = svc.Update(ctx, "missing", UpdateInput{Paid: new(bool)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_ToggleStatus(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	u, err := svc.ToggleStatus(ctx, "l2")
	require.NoError(t, err)
	assert.True(t, u.Active)

	u, err = svc.ToggleStatus(ctx, "l2")
	require.NoError(t, err)
	assert.False(t, u.Active)
}

func TestService_DeleteParentCascades(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	removed, err := svc.Delete(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, removed, 3)
	assert.Equal(t, "p1", removed[0].ID)
	assert.Equal(t, 2, svc.Store().Len())
	assert.False(t, svc.Store().Exists(ctx, "l1"))
	assert.True(t, svc.Store().Exists(ctx, "l3"))
}

func TestService_DeleteLearnerOnly(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	removed, err := svc.Delete(ctx, "l3")
	require.NoError(t, err)
	assert.Len(t, removed, 1)
	assert.True(t, svc.Store().Exists(ctx, "p2"))

	_, err = svc.Delete(ctx, "l3")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_Counts(t *testing.T) {
	svc := newFixture(t)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 5, Parents: 2, Learners: 3, ActiveLearners: 2, Paid: 1}, counts)
}
