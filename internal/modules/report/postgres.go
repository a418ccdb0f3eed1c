package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/medstore/pos-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL report repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) DailySales(ctx context.Context, from, to time.Time) ([]*DailySalesRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_TRUNC('day', bill_date) AS day, COUNT(*),
		       COALESCE(SUM(subtotal), 0), COALESCE(SUM(total_gst), 0), COALESCE(SUM(total_amount), 0)
		FROM bills
		WHERE cancelled = FALSE AND bill_date >= $1 AND bill_date < $2
		GROUP BY day ORDER BY day ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*DailySalesRow
	for rows.Next() {
		row := &DailySalesRow{}
		if err := rows.Scan(&row.Day, &row.BillCount, &row.Net, &row.GST, &row.Gross); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *postgresRepo) GSTReport(ctx context.Context, from, to time.Time) ([]*GSTRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.hsn_code, i.gst_percentage,
		       COALESCE(SUM(i.unit_price * i.quantity), 0), COALESCE(SUM(i.gst_amount), 0)
		FROM bill_items i
		JOIN bills b ON b.id = i.bill_id
		JOIN medicines m ON m.id = i.medicine_id
		WHERE b.cancelled = FALSE AND b.bill_date >= $1 AND b.bill_date < $2
		GROUP BY m.hsn_code, i.gst_percentage
		ORDER BY i.gst_percentage ASC, m.hsn_code ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*GSTRow
	for rows.Next() {
		row := &GSTRow{}
		if err := rows.Scan(&row.HSNCode, &row.GSTPercentage, &row.TaxableValue, &row.GSTAmount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CashierSales(ctx context.Context, cashierID string, from, to time.Time) (*CashierSales, error) {
	row := &CashierSales{}
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.full_name, COUNT(b.id),
		       COALESCE(SUM(b.subtotal), 0), COALESCE(SUM(b.total_gst), 0), COALESCE(SUM(b.total_amount), 0)
		FROM users u
		LEFT JOIN bills b
		  ON b.cashier_id = u.id AND b.cancelled = FALSE
		 AND b.bill_date >= $2 AND b.bill_date < $3
		WHERE u.id = $1
		GROUP BY u.id, u.full_name`, cashierID, from, to).
		Scan(&row.CashierID, &row.CashierName, &row.BillCount, &row.Net, &row.GST, &row.Gross)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.KindNotFound, "user not found with id %s", cashierID)
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *postgresRepo) MedicineStock(ctx context.Context) ([]*MedicineStockRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.name,
		       COALESCE(SUM(b.quantity_available), 0),
		       COALESCE(SUM(b.quantity_available * b.purchase_price), 0)
		FROM medicines m
		LEFT JOIN batches b ON b.medicine_id = m.id
		GROUP BY m.id, m.name
		ORDER BY m.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MedicineStockRow
	for rows.Next() {
		row := &MedicineStockRow{}
		if err := rows.Scan(&row.MedicineID, &row.Name, &row.TotalAvailable, &row.Valuation); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *postgresRepo) LowStockBatches(ctx context.Context, threshold int) ([]*StockBatchRow, error) {
	return r.batchRows(ctx, `
		SELECT b.id, m.name, b.batch_number, b.expiry_date, b.quantity_available, b.purchase_price
		FROM batches b JOIN medicines m ON m.id = b.medicine_id
		WHERE b.quantity_available > 0 AND b.quantity_available <= $1
		ORDER BY b.quantity_available ASC`, threshold)
}

func (r *postgresRepo) ExpiredBatches(ctx context.Context) ([]*StockBatchRow, error) {
	return r.batchRows(ctx, `
		SELECT b.id, m.name, b.batch_number, b.expiry_date, b.quantity_available, b.purchase_price
		FROM batches b JOIN medicines m ON m.id = b.medicine_id
		WHERE b.expiry_date < CURRENT_DATE AND b.quantity_available > 0
		ORDER BY b.expiry_date ASC`)
}

func (r *postgresRepo) batchRows(ctx context.Context, query string, args ...interface{}) ([]*StockBatchRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*StockBatchRow
	for rows.Next() {
		row := &StockBatchRow{}
		if err := rows.Scan(&row.BatchID, &row.MedicineName, &row.BatchNumber,
			&row.ExpiryDate, &row.QuantityAvailable, &row.PurchasePrice); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
