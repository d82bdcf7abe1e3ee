package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/validation"
)

func newUserFixture(t *testing.T, users ...model.User) (*UserService, *fakeUserStore, *fakeTokenStore, *fakeAllocationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	store := newFakeUserStore(users...)
	tokens := &fakeTokenStore{}
	allocations := newFakeAllocationStore()
	svc := NewUserService(db, store, tokens, allocations, staticValidator{res: validation.Result{Accepted: true}}, 4)
	return svc, store, tokens, allocations, mock
}

func TestDeleteUserBlockedByAllocationHistory(t *testing.T) {
	svc, store, tokens, allocations, mock := newUserFixture(t, model.User{ID: 7, Name: "Ana", Role: model.RoleMechanic})
	allocations.mechCounts[7] = 2
	allocations.finCounts[7] = 1
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.DeleteUser(context.Background(), 7)
	var depErr *UserDependenciesError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, int64(2), depErr.MechanicCount)
	assert.Equal(t, int64(1), depErr.FinalizerCount)
	assert.Contains(t, store.users, uint64(7))
	assert.Zero(t, store.deletes)
	assert.Empty(t, tokens.purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForceDependenciesThenDeleteUser(t *testing.T) {
	svc, store, tokens, allocations, mock := newUserFixture(t, model.User{ID: 7, Name: "Ana", Role: model.RoleMechanic})
	allocations.mechCounts[7] = 2
	allocations.finCounts[7] = 1
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	removed, err := svc.ForceDeleteUserDependencies(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Contains(t, store.users, uint64(7))

	require.NoError(t, svc.DeleteUser(context.Background(), 7))
	assert.NotContains(t, store.users, uint64(7))
	assert.Equal(t, []uint64{7}, tokens.purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckUserDeletableReportsCounts(t *testing.T) {
	svc, _, _, allocations, mock := newUserFixture(t, model.User{ID: 7, Name: "Ana", Role: model.RoleMechanic})
	allocations.finCounts[7] = 4
	mock.ExpectBegin()
	mock.ExpectCommit()

	deps, err := svc.CheckUserDeletable(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deps.MechanicCount)
	assert.Equal(t, int64(4), deps.FinalizerCount)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	svc, store, _, _, _ := newUserFixture(t, model.User{ID: 1, Name: "root", Email: "admin@localhost", Role: model.RoleAdmin})

	require.NoError(t, svc.SeedAdmin(context.Background(), "root", "admin@localhost", "s3cret"))
	assert.Zero(t, store.creates)
}

func TestSeedAdminCreatesWhenMissing(t *testing.T) {
	svc, store, _, _, _ := newUserFixture(t)

	require.NoError(t, svc.SeedAdmin(context.Background(), "root", "admin@localhost", "s3cret"))
	assert.Equal(t, 1, store.creates)
	u, err := store.FirstByRole(context.Background(), model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin@localhost", u.Email)
}
