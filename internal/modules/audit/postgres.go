package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL audit repository.
// Writes run directly on the pool (auto-commit), never inside a caller's
// transaction, so a rolled-back business operation leaves no entry and a
// committed one cannot lose its entry to a later rollback.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Insert(ctx context.Context, e *Entry) error {
	var actorID interface{}
	if e.ActorID != uuid.Nil {
		actorID = e.ActorID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs
		  (id, action, actor_id, entity_type, entity_id, description, old_value, new_value, ip_address, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.Action, actorID, e.EntityType, e.EntityID,
		e.Description, e.OldValue, e.NewValue, e.IPAddress, e.LoggedAt)
	return err
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]*Entry, error) {
	query := `SELECT id, action, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'),
	                 entity_type, entity_id,
	                 COALESCE(description,''), COALESCE(old_value,''), COALESCE(new_value,''),
	                 COALESCE(ip_address,''), logged_at
	          FROM audit_logs WHERE 1=1`
	var args []interface{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		query += fmt.Sprintf(" AND %s=$%d", clause, n)
		args = append(args, v)
	}
	if f.Action != "" {
		add("action", string(f.Action))
	}
	if f.EntityType != "" {
		add("entity_type", f.EntityType)
	}
	if f.EntityID != "" {
		add("entity_id", f.EntityID)
	}
	if f.ActorID != "" {
		add("actor_id", f.ActorID)
	}
	if !f.From.IsZero() {
		n++
		query += fmt.Sprintf(" AND logged_at >= $%d", n)
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		n++
		query += fmt.Sprintf(" AND logged_at <= $%d", n)
		args = append(args, f.To)
	}
	query += " ORDER BY logged_at DESC"
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.EntityType, &e.EntityID,
			&e.Description, &e.OldValue, &e.NewValue, &e.IPAddress, &e.LoggedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
