package auth

import (
	"context"

	"github.com/google/uuid"
)

// Operator is the account view authentication works with. The password hash
// stays out of responses.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
}

// OperatorSource looks up operator accounts for login. The user service
// implements it.
type OperatorSource interface {
	OperatorByEmail(ctx context.Context, email string) (*Operator, error)
}
