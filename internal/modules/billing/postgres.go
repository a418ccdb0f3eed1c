package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/inventory"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL billing repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const billColumns = `b.id, b.bill_number, b.bill_date, b.cashier_id, u.full_name,
	b.customer_name, b.customer_phone, b.subtotal, b.total_gst, b.total_amount,
	b.payment_status, b.cancelled, b.cancellation_reason, b.created_at, b.updated_at`

const billFrom = ` FROM bills b JOIN users u ON u.id = b.cashier_id `

// CreateBill runs the whole sale as one REPEATABLE READ transaction: the bill
// row, its items and payments go in first, then stock is deducted per line
// under the batch row lock. A recheck failure on any line rolls everything
// back, so a bill never persists with stock it could not claim.
func (r *postgresRepo) CreateBill(ctx context.Context, b *Bill) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bills
		  (id, bill_number, bill_date, cashier_id, customer_name, customer_phone,
		   subtotal, total_gst, total_amount, payment_status, cancelled)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,FALSE)`,
		b.ID, b.BillNumber, b.BillDate, b.CashierID,
		nullableText(b.CustomerName), nullableText(b.CustomerPhone),
		b.Subtotal, b.TotalGST, b.TotalAmount, b.PaymentStatus)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	for _, item := range b.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bill_items
			  (id, bill_id, medicine_id, batch_id, batch_number, quantity,
			   unit_price, gst_percentage, gst_amount, total_amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			item.ID, b.ID, item.MedicineID, item.BatchID, item.BatchNumber,
			item.Quantity, item.UnitPrice, item.GSTPercentage,
			item.GSTAmount, item.TotalAmount); err != nil {
			return fmt.Errorf("insert bill item: %w", err)
		}
	}

	for _, p := range b.Payments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments
			  (id, bill_id, payment_reference, mode, amount, status, payment_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, b.ID, p.Reference, p.Mode, p.Amount, p.Status, p.PaymentDate); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	for _, item := range b.Items {
		if err := inventory.DeductInTx(ctx, tx, item.BatchID, item.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+billFrom+`WHERE b.id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "bill not found with id %s", id)
	}
	if err != nil {
		return nil, err
	}
	return b, r.loadChildren(ctx, b)
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+billFrom+`WHERE b.bill_number=$1`, number))
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "bill not found with number %s", number)
	}
	if err != nil {
		return nil, err
	}
	return b, r.loadChildren(ctx, b)
}

func (r *postgresRepo) List(ctx context.Context) ([]*Bill, error) {
	return r.query(ctx, `SELECT `+billColumns+billFrom+`ORDER BY b.bill_date DESC`)
}

func (r *postgresRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*Bill, error) {
	return r.query(ctx, `
		SELECT `+billColumns+billFrom+`
		WHERE b.bill_date >= $1 AND b.bill_date < $2
		ORDER BY b.bill_date DESC`, from, to)
}

func (r *postgresRepo) MaxBillSequence(ctx context.Context, prefix string) (int64, error) {
	var max int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(bill_number FROM LENGTH($1)+1) AS BIGINT)), 0)
		FROM bills WHERE bill_number LIKE $1 || '%'`, prefix).Scan(&max)
	return max, err
}

func (r *postgresRepo) Cancel(ctx context.Context, b *Bill) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bills
		SET cancelled=TRUE, cancellation_reason=$1, updated_at=NOW()
		WHERE id=$2 AND cancelled=FALSE`, b.CancellationReason, b.ID)
	if err != nil {
		return fmt.Errorf("cancel bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.E(apperr.KindConflict, "bill %s is already cancelled", b.BillNumber)
	}

	for _, item := range b.Items {
		if err := inventory.RestoreInTx(ctx, tx, item.BatchID, item.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanBill(row rowScanner) (*Bill, error) {
	b := &Bill{}
	var customerName, customerPhone, reason sql.NullString
	err := row.Scan(&b.ID, &b.BillNumber, &b.BillDate, &b.CashierID, &b.CashierName,
		&customerName, &customerPhone, &b.Subtotal, &b.TotalGST, &b.TotalAmount,
		&b.PaymentStatus, &b.Cancelled, &reason, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.CustomerName = customerName.String
	b.CustomerPhone = customerPhone.String
	b.CancellationReason = reason.String
	return b, nil
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) ([]*Bill, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range bills {
		if err := r.loadChildren(ctx, b); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

func (r *postgresRepo) loadChildren(ctx context.Context, b *Bill) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.bill_id, i.medicine_id, m.name, i.batch_id, i.batch_number,
		       i.quantity, i.unit_price, i.gst_percentage, i.gst_amount, i.total_amount
		FROM bill_items i JOIN medicines m ON m.id = i.medicine_id
		WHERE i.bill_id=$1 ORDER BY i.created_at ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("load bill items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item := &BillItem{}
		if err := rows.Scan(&item.ID, &item.BillID, &item.MedicineID, &item.MedicineName,
			&item.BatchID, &item.BatchNumber, &item.Quantity, &item.UnitPrice,
			&item.GSTPercentage, &item.GSTAmount, &item.TotalAmount); err != nil {
			return err
		}
		b.Items = append(b.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	payRows, err := r.db.QueryContext(ctx, `
		SELECT id, bill_id, payment_reference, mode, amount, status, payment_date
		FROM payments WHERE bill_id=$1 ORDER BY payment_date ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	defer payRows.Close()
	for payRows.Next() {
		p := &Payment{}
		if err := payRows.Scan(&p.ID, &p.BillID, &p.Reference, &p.Mode,
			&p.Amount, &p.Status, &p.PaymentDate); err != nil {
			return err
		}
		b.Payments = append(b.Payments, p)
	}
	return payRows.Err()
}

func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
