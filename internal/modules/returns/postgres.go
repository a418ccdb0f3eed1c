package returns

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/inventory"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL returns repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, ret *Return) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO returns
		  (id, return_number, bill_id, processed_by, return_date, refund_amount, reason, return_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ret.ID, ret.ReturnNumber, ret.BillID, ret.ProcessedBy, ret.ReturnDate,
		ret.RefundAmount, nullableText(ret.Reason), ret.Type)
	if err != nil {
		return fmt.Errorf("insert return: %w", err)
	}

	for _, item := range ret.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO return_items
			  (id, return_id, bill_item_id, medicine_id, batch_id, batch_number, quantity, refund_amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			item.ID, ret.ID, item.BillItemID, item.MedicineID, item.BatchID,
			item.BatchNumber, item.Quantity, item.RefundAmount); err != nil {
			return fmt.Errorf("insert return item: %w", err)
		}
	}

	for _, item := range ret.Items {
		if err := inventory.RestoreInTx(ctx, tx, item.BatchID, item.Quantity); err != nil {
			return err
		}
	}

	if ret.Type == TypeFull {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bills SET payment_status='REFUNDED', updated_at=NOW()
			WHERE id=$1`, ret.BillID); err != nil {
			return fmt.Errorf("mark bill refunded: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Return, error) {
	ret, err := scanReturn(r.db.QueryRowContext(ctx, `
		SELECT id, return_number, bill_id, processed_by, return_date,
		       refund_amount, reason, return_type, created_at
		FROM returns WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "return not found with id %s", id)
	}
	if err != nil {
		return nil, err
	}
	return ret, r.loadItems(ctx, ret)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]*Return, error) {
	return r.query(ctx, `
		SELECT id, return_number, bill_id, processed_by, return_date,
		       refund_amount, reason, return_type, created_at
		FROM returns ORDER BY return_date DESC`)
}

func (r *postgresRepo) ListByBill(ctx context.Context, billID string) ([]*Return, error) {
	return r.query(ctx, `
		SELECT id, return_number, bill_id, processed_by, return_date,
		       refund_amount, reason, return_type, created_at
		FROM returns WHERE bill_id=$1 ORDER BY return_date DESC`, billID)
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanReturn(row rowScanner) (*Return, error) {
	ret := &Return{}
	var reason sql.NullString
	err := row.Scan(&ret.ID, &ret.ReturnNumber, &ret.BillID, &ret.ProcessedBy,
		&ret.ReturnDate, &ret.RefundAmount, &reason, &ret.Type, &ret.CreatedAt)
	if err != nil {
		return nil, err
	}
	ret.Reason = reason.String
	return ret, nil
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) ([]*Return, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, ret := range out {
		if err := r.loadItems(ctx, ret); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, ret *Return) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, return_id, bill_item_id, medicine_id, batch_id, batch_number, quantity, refund_amount
		FROM return_items WHERE return_id=$1 ORDER BY created_at ASC`, ret.ID)
	if err != nil {
		return fmt.Errorf("load return items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item := &ReturnItem{}
		if err := rows.Scan(&item.ID, &item.ReturnID, &item.BillItemID, &item.MedicineID,
			&item.BatchID, &item.BatchNumber, &item.Quantity, &item.RefundAmount); err != nil {
			return err
		}
		ret.Items = append(ret.Items, item)
	}
	return rows.Err()
}

func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
