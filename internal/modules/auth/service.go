package auth

import (
	"context"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
)

var jwtKey = signingKey()

func signingKey() []byte {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return []byte(key)
	}
	return []byte("your-secret-key")
}

// Service defines authentication business logic.
type Service interface {
	// Login checks credentials and issues a signed token valid for 24h.
	Login(ctx context.Context, email, password, sourceAddr string) (string, *Operator, error)
	// Logout only records the event; the token stays valid until expiry.
	Logout(ctx context.Context, actor audit.Actor)
}

type service struct {
	operators OperatorSource
	recorder  audit.Recorder
}

// NewService creates a new auth service.
func NewService(operators OperatorSource, recorder audit.Recorder) Service {
	return &service{operators: operators, recorder: recorder}
}

func (s *service) Login(ctx context.Context, email, password, sourceAddr string) (string, *Operator, error) {
	op, err := s.operators.OperatorByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", nil, apperr.E(apperr.KindInvalidInput, "invalid credentials")
		}
		return "", nil, err
	}
	if !op.Active {
		return "", nil, apperr.E(apperr.KindConflict, "account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.E(apperr.KindInvalidInput, "invalid credentials")
	}

	claims := &jwt.StandardClaims{
		Subject:   op.ID.String(),
		ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
	if err != nil {
		return "", nil, err
	}

	s.recorder.Record(ctx, audit.ActionUserLogin, audit.Actor{ID: op.ID, Addr: sourceAddr},
		"User", op.ID.String(), "User logged in: "+op.Email, "", "")
	return token, op, nil
}

func (s *service) Logout(ctx context.Context, actor audit.Actor) {
	// Recorder suppresses its own write failures, so a broken audit store
	// never blocks a logout.
	s.recorder.Record(ctx, audit.ActionUserLogout, actor, "User", actor.ID.String(),
		"User logged out", "", "")
}
