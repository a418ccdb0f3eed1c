package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
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

type fakeOperators struct{ ops map[string]*Operator }

func (f *fakeOperators) OperatorByEmail(_ context.Context, email string) (*Operator, error) {
	op, ok := f.ops[email]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "user not found with email %s", email)
	}
	return op, nil
}

func operatorFixture(t *testing.T, password string) *Operator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &Operator{
		ID:           uuid.New(),
		Email:        "cashier@medstore.in",
		PasswordHash: string(hash),
		FullName:     "Asha Verma",
		Role:         "CASHIER",
		Active:       true,
	}
}

func TestLoginIssuesTokenForValidCredentials(t *testing.T) {
	op := operatorFixture(t, "correct-horse")
	recorder := &fakeRecorder{}
	svc := NewService(&fakeOperators{ops: map[string]*Operator{op.Email: op}}, recorder)

	token, got, err := svc.Login(context.Background(), op.Email, "correct-horse", "10.0.0.7:53211")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Contains(t, recorder.actions, audit.ActionUserLogin)

	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return jwtKey, nil })
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, op.ID.String(), claims.Subject)
	assert.InDelta(t, time.Now().Add(24*time.Hour).Unix(), claims.ExpiresAt, 5)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	op := operatorFixture(t, "correct-horse")
	svc := NewService(&fakeOperators{ops: map[string]*Operator{op.Email: op}}, &fakeRecorder{})

	_, _, err := svc.Login(context.Background(), op.Email, "wrong-horse", "")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestLoginHidesUnknownAccounts(t *testing.T) {
	svc := NewService(&fakeOperators{ops: map[string]*Operator{}}, &fakeRecorder{})

	// same error as a wrong password, so probing for registered emails
	// learns nothing
	_, _, err := svc.Login(context.Background(), "nobody@medstore.in", "whatever-pass", "")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	op := operatorFixture(t, "correct-horse")
	op.Active = false
	svc := NewService(&fakeOperators{ops: map[string]*Operator{op.Email: op}}, &fakeRecorder{})

	_, _, err := svc.Login(context.Background(), op.Email, "correct-horse", "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
