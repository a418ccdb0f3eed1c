package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
)

type fakeRecorder struct{ actions []audit.Action }

func (f *fakeRecorder) Record(_ context.Context, action audit.Action, _ audit.Actor, _, _, _, _, _ string) {
	f.actions = append(f.actions, action)
}

type fakeRepo struct{ users map[string]*User }

func newFakeRepo() *fakeRepo { return &fakeRepo{users: make(map[string]*User)} }

func (r *fakeRepo) Create(_ context.Context, u *User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.E(apperr.KindConflict, "user with email %s already exists", u.Email)
		}
	}
	r.users[u.ID.String()] = u
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "user not found with id %s", id)
	}
	return u, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.E(apperr.KindNotFound, "user not found with email %s", email)
}

func (r *fakeRepo) List(context.Context) ([]*User, error) { return nil, nil }

func (r *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return apperr.E(apperr.KindNotFound, "user not found with id %s", id)
	}
	u.Active = active
	return nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	actor := audit.Actor{ID: uuid.New()}

	t.Run("hashes password and defaults role", func(t *testing.T) {
		recorder := &fakeRecorder{}
		svc := NewService(newFakeRepo(), recorder)
		u, err := svc.Register(ctx, RegisterRequest{
			Email:    "Asha@Medstore.In",
			Password: "correct-horse",
			FullName: "Asha Verma",
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, "asha@medstore.in", u.Email)
		assert.Equal(t, RoleCashier, u.Role)
		assert.True(t, u.Active)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))
		assert.Contains(t, recorder.actions, audit.ActionUserCreated)
	})

	t.Run("short password rejected", func(t *testing.T) {
		svc := NewService(newFakeRepo(), &fakeRecorder{})
		_, err := svc.Register(ctx, RegisterRequest{
			Email: "a@b.c", Password: "short", FullName: "A",
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		svc := NewService(newFakeRepo(), &fakeRecorder{})
		_, err := svc.Register(ctx, RegisterRequest{
			Email: "a@b.c", Password: "long-enough", FullName: "A", Role: "OWNER",
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		svc := NewService(newFakeRepo(), &fakeRecorder{})
		req := RegisterRequest{Email: "a@b.c", Password: "long-enough", FullName: "A"}
		_, err := svc.Register(ctx, req, actor)
		require.NoError(t, err)
		_, err = svc.Register(ctx, req, actor)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestOperatorByEmailMapsStoredUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), &fakeRecorder{})

	u, err := svc.Register(ctx, RegisterRequest{
		Email: "admin@medstore.in", Password: "long-enough", FullName: "A", Role: RoleAdmin,
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	op, err := svc.OperatorByEmail(ctx, "admin@medstore.in")
	require.NoError(t, err)
	assert.Equal(t, u.ID, op.ID)
	assert.Equal(t, u.PasswordHash, op.PasswordHash)
	assert.Equal(t, "ADMIN", op.Role)
	assert.True(t, op.Active)

	_, err = svc.OperatorByEmail(ctx, "ghost@medstore.in")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	actor := audit.Actor{ID: uuid.New()}
	repo := newFakeRepo()
	svc := NewService(repo, &fakeRecorder{})

	u, err := svc.Register(ctx, RegisterRequest{
		Email: "cashier@medstore.in", Password: "long-enough", FullName: "C",
	}, actor)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, u.ID.String(), actor))
	assert.False(t, repo.users[u.ID.String()].Active)

	err = svc.Deactivate(ctx, u.ID.String(), actor)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
