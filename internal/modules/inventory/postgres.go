package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medstore/pos-backend/internal/apperr"
)

// Execer is the subset of *sql.DB / *sql.Tx the ledger mutations run on.
// Billing and returns compose DeductInTx / RestoreInTx into their own
// transactions so a bill's inserts and its stock movements share one commit
// boundary; the ledger stays the only writer of the quantity counter.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DeductInTx locks the batch row, re-checks availability under the lock and
// decrements. The re-check is the authoritative guard against overselling:
// whatever the allocator read earlier may be stale by the time the lock is
// granted.
func DeductInTx(ctx context.Context, q Execer, batchID uuid.UUID, quantity int) error {
	var batchNumber string
	var available int
	err := q.QueryRowContext(ctx,
		`SELECT batch_number, quantity_available FROM batches WHERE id=$1 FOR UPDATE`,
		batchID).Scan(&batchNumber, &available)
	if err == sql.ErrNoRows {
		return apperr.E(apperr.KindNotFound, "batch not found with id %s", batchID)
	}
	if err != nil {
		return fmt.Errorf("lock batch: %w", err)
	}
	if available < quantity {
		return apperr.E(apperr.KindInsufficientStock,
			"insufficient stock in batch %s: available %d, required %d", batchNumber, available, quantity)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE batches
		SET quantity_available = quantity_available - $1, version = version + 1, updated_at = NOW()
		WHERE id = $2`, quantity, batchID)
	return err
}

// RestoreInTx increments availability in a single statement. There is no
// upper bound to violate, and the atomic increment cannot lose a concurrent
// update, so no row lock is taken.
func RestoreInTx(ctx context.Context, q Execer, batchID uuid.UUID, quantity int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE batches
		SET quantity_available = quantity_available + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2`, quantity, batchID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindNotFound, "batch not found with id %s", batchID)
	}
	return nil
}

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL inventory repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const batchColumns = `b.id, b.medicine_id, m.name, b.batch_number, b.expiry_date,
	b.purchase_price, b.selling_price, b.quantity_available, b.version, b.created_at, b.updated_at`

const batchFrom = ` FROM batches b JOIN medicines m ON m.id = b.medicine_id `

func (r *postgresRepo) CreateBatch(ctx context.Context, b *Batch, barcodes []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches
		  (id, medicine_id, batch_number, expiry_date, purchase_price, selling_price, quantity_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.MedicineID, b.BatchNumber, b.ExpiryDate,
		b.PurchasePrice, b.SellingPrice, b.QuantityAvailable)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, code := range barcodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stock_barcodes (id, batch_id, barcode) VALUES ($1,$2,$3)`,
			uuid.New(), b.ID, code); err != nil {
			if isUniqueViolation(err) {
				return apperr.E(apperr.KindConflict, "barcode %s already exists", code)
			}
			return fmt.Errorf("insert stock barcode: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetBatchByID(ctx context.Context, id string) (*Batch, error) {
	b, err := scanBatch(r.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+batchFrom+`WHERE b.id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "batch not found with id %s", id)
	}
	return b, err
}

func (r *postgresRepo) ListByMedicine(ctx context.Context, medicineID string) ([]*Batch, error) {
	return r.query(ctx,
		`SELECT `+batchColumns+batchFrom+`WHERE b.medicine_id=$1 ORDER BY b.expiry_date ASC`, medicineID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]*Batch, error) {
	return r.query(ctx, `SELECT `+batchColumns+batchFrom+`ORDER BY b.created_at DESC`)
}

func (r *postgresRepo) ListSellable(ctx context.Context, medicineID string) ([]*Batch, error) {
	return r.query(ctx, `
		SELECT `+batchColumns+batchFrom+`
		WHERE b.medicine_id=$1 AND b.expiry_date > CURRENT_DATE AND b.quantity_available > 0
		ORDER BY b.expiry_date ASC`, medicineID)
}

func (r *postgresRepo) TotalAvailable(ctx context.Context, medicineID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity_available), 0) FROM batches
		WHERE medicine_id=$1 AND expiry_date > CURRENT_DATE`, medicineID).Scan(&total)
	return total, err
}

func (r *postgresRepo) ListExpired(ctx context.Context) ([]*Batch, error) {
	return r.query(ctx, `
		SELECT `+batchColumns+batchFrom+`
		WHERE b.expiry_date < CURRENT_DATE AND b.quantity_available > 0
		ORDER BY b.expiry_date ASC`)
}

func (r *postgresRepo) ListLowStock(ctx context.Context, threshold int) ([]*Batch, error) {
	return r.query(ctx, `
		SELECT `+batchColumns+batchFrom+`
		WHERE b.quantity_available > 0 AND b.quantity_available <= $1
		ORDER BY b.quantity_available ASC`, threshold)
}

func (r *postgresRepo) DeductStock(ctx context.Context, batchID uuid.UUID, quantity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := DeductInTx(ctx, tx, batchID, quantity); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) RestoreStock(ctx context.Context, batchID uuid.UUID, quantity int) error {
	return RestoreInTx(ctx, r.db, batchID, quantity)
}

func (r *postgresRepo) UpdateBatch(ctx context.Context, b *Batch) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE batches
		SET batch_number=$1, expiry_date=$2, purchase_price=$3, selling_price=$4,
		    quantity_available=$5, version=version+1, updated_at=$6
		WHERE id=$7 AND version=$8`,
		b.BatchNumber, b.ExpiryDate, b.PurchasePrice, b.SellingPrice,
		b.QuantityAvailable, time.Now(), b.ID, b.Version)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindConflict, "batch %s was modified concurrently", b.ID)
	}
	return nil
}

func (r *postgresRepo) DeleteBatch(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM batches WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindNotFound, "batch not found with id %s", id)
	}
	return nil
}

func (r *postgresRepo) MedicineExists(ctx context.Context, medicineID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM medicines WHERE id=$1)`, medicineID).Scan(&exists)
	return exists, err
}

// ── stock barcodes ───────────────────────────────────────────────────────────

func (r *postgresRepo) AddBarcodes(ctx context.Context, batchID uuid.UUID, codes []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, code := range codes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stock_barcodes (id, batch_id, barcode) VALUES ($1,$2,$3)`,
			uuid.New(), batchID, code); err != nil {
			if isUniqueViolation(err) {
				return apperr.E(apperr.KindConflict, "barcode %s already exists", code)
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) ListBarcodes(ctx context.Context, batchID string) ([]*StockBarcode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, barcode, sold, created_at
		FROM stock_barcodes WHERE batch_id=$1 ORDER BY created_at ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var barcodes []*StockBarcode
	for rows.Next() {
		sb := &StockBarcode{}
		if err := rows.Scan(&sb.ID, &sb.BatchID, &sb.Barcode, &sb.Sold, &sb.CreatedAt); err != nil {
			return nil, err
		}
		barcodes = append(barcodes, sb)
	}
	return barcodes, rows.Err()
}

func (r *postgresRepo) GetBarcode(ctx context.Context, code string) (*StockBarcode, error) {
	sb := &StockBarcode{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, batch_id, barcode, sold, created_at
		FROM stock_barcodes WHERE barcode=$1`, code).
		Scan(&sb.ID, &sb.BatchID, &sb.Barcode, &sb.Sold, &sb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "stock barcode %s not found", code)
	}
	if err != nil {
		return nil, err
	}
	return sb, nil
}

func (r *postgresRepo) SetBarcodeSold(ctx context.Context, code string, sold bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stock_barcodes SET sold=$1 WHERE barcode=$2`, sold, code)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindNotFound, "stock barcode %s not found", code)
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanBatch(row rowScanner) (*Batch, error) {
	b := &Batch{}
	err := row.Scan(&b.ID, &b.MedicineID, &b.MedicineName, &b.BatchNumber, &b.ExpiryDate,
		&b.PurchasePrice, &b.SellingPrice, &b.QuantityAvailable, &b.Version,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) ([]*Batch, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var batches []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
