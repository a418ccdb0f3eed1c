package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
	"github.com/medstore/pos-backend/internal/modules/auth"
)

// Service defines user business logic.
type Service interface {
	Register(ctx context.Context, req RegisterRequest, actor audit.Actor) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	Deactivate(ctx context.Context, id string, actor audit.Actor) error
	// OperatorByEmail satisfies auth.OperatorSource for login.
	OperatorByEmail(ctx context.Context, email string) (*auth.Operator, error)
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

// NewService creates a new user service.
func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, recorder: recorder}
}

func (s *service) Register(ctx context.Context, req RegisterRequest, actor audit.Actor) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.E(apperr.KindInvalidInput, "password must be at least 8 characters")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "full_name is required")
	}
	role := req.Role
	if role == "" {
		role = RoleCashier
	}
	if role != RoleAdmin && role != RoleCashier {
		return nil, apperr.E(apperr.KindInvalidInput, "role must be ADMIN or CASHIER")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.ActionUserCreated, actor, "User", u.ID.String(),
		"User registered: "+u.Email, "", string(u.Role))
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) OperatorByEmail(ctx context.Context, email string) (*auth.Operator, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &auth.Operator{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         string(u.Role),
		Active:       u.Active,
	}, nil
}

func (s *service) Deactivate(ctx context.Context, id string, actor audit.Actor) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.Active {
		return apperr.E(apperr.KindConflict, "user %s is already deactivated", u.Email)
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.ActionUserUpdated, actor, "User", id,
		"User deactivated: "+u.Email, "active", "inactive")
	return nil
}
