package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/medstore/pos-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const userColumns = `id, email, password_hash, full_name, role, active, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.Active)
	if isUniqueViolation(err) {
		return apperr.E(apperr.KindConflict, "user with email %s already exists", u.Email)
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "user not found with id %s", id)
	}
	return u, err
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "user not found with email %s", email)
	}
	return u, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindNotFound, "user not found with id %s", id)
	}
	return nil
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
