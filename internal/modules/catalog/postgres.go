package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/medstore/pos-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL catalog repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const medicineColumns = `m.id, m.name, m.manufacturer, COALESCE(m.category,''), COALESCE(m.barcode,''),
	m.hsn_code, m.gst_percentage, m.prescription_required, m.status,
	COALESCE((SELECT SUM(b.quantity_available) FROM batches b WHERE b.medicine_id = m.id), 0),
	m.version, m.created_at, m.updated_at`

func (r *postgresRepo) Create(ctx context.Context, m *Medicine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines
		  (id, name, manufacturer, category, barcode, hsn_code, gst_percentage, prescription_required, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.Name, m.Manufacturer, nullableText(m.Category), nullableText(m.Barcode),
		m.HSNCode, m.GSTPercentage, m.PrescriptionRequired, m.Status)
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "medicine with the same barcode or HSN code already exists")
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Medicine, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+medicineColumns+` FROM medicines m WHERE m.id=$1`, id), "id "+id)
}

func (r *postgresRepo) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+medicineColumns+` FROM medicines m WHERE m.barcode=$1`, barcode), "barcode "+barcode)
}

func (r *postgresRepo) GetByHSNCode(ctx context.Context, hsnCode string) (*Medicine, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+medicineColumns+` FROM medicines m WHERE m.hsn_code=$1`, hsnCode), "hsn code "+hsnCode)
}

func (r *postgresRepo) Search(ctx context.Context, term string) ([]*Medicine, error) {
	return r.query(ctx,
		`SELECT `+medicineColumns+` FROM medicines m WHERE m.name ILIKE $1 ORDER BY m.name ASC`,
		"%"+term+"%")
}

func (r *postgresRepo) List(ctx context.Context) ([]*Medicine, error) {
	return r.query(ctx, `SELECT `+medicineColumns+` FROM medicines m ORDER BY m.name ASC`)
}

func (r *postgresRepo) Update(ctx context.Context, m *Medicine) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medicines
		SET name=$1, manufacturer=$2, category=$3, barcode=$4, hsn_code=$5,
		    gst_percentage=$6, prescription_required=$7, status=$8,
		    version=version+1, updated_at=$9
		WHERE id=$10 AND version=$11`,
		m.Name, m.Manufacturer, nullableText(m.Category), nullableText(m.Barcode), m.HSNCode,
		m.GSTPercentage, m.PrescriptionRequired, m.Status, time.Now(), m.ID, m.Version)
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "medicine with the same barcode or HSN code already exists")
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindConflict, "medicine %s was modified concurrently", m.ID)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.E(apperr.KindNotFound, "medicine not found with id %s", id)
	}
	return nil
}

func (r *postgresRepo) CountBatches(ctx context.Context, medicineID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM batches WHERE medicine_id=$1`, medicineID).Scan(&n)
	return n, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner, ref string) (*Medicine, error) {
	m := &Medicine{}
	err := row.Scan(&m.ID, &m.Name, &m.Manufacturer, &m.Category, &m.Barcode,
		&m.HSNCode, &m.GSTPercentage, &m.PrescriptionRequired, &m.Status,
		&m.TotalStock, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "medicine not found with %s", ref)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) ([]*Medicine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var medicines []*Medicine
	for rows.Next() {
		m := &Medicine{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Manufacturer, &m.Category, &m.Barcode,
			&m.HSNCode, &m.GSTPercentage, &m.PrescriptionRequired, &m.Status,
			&m.TotalStock, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	return medicines, rows.Err()
}

func nullableText(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
