package report

import (
	"context"
	"time"
)

// Repository defines the read-only aggregation queries behind reports.
type Repository interface {
	DailySales(ctx context.Context, from, to time.Time) ([]*DailySalesRow, error)
	GSTReport(ctx context.Context, from, to time.Time) ([]*GSTRow, error)
	CashierSales(ctx context.Context, cashierID string, from, to time.Time) (*CashierSales, error)
	MedicineStock(ctx context.Context) ([]*MedicineStockRow, error)
	LowStockBatches(ctx context.Context, threshold int) ([]*StockBatchRow, error)
	ExpiredBatches(ctx context.Context) ([]*StockBatchRow, error)
}
