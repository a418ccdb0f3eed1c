package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medstore/pos-backend/internal/apperr"
)

// Service defines reporting queries. Everything here is read-only.
type Service interface {
	DailySales(ctx context.Context, from, to string) ([]*DailySalesRow, error)
	GSTReport(ctx context.Context, from, to string) ([]*GSTRow, error)
	CashierSales(ctx context.Context, cashierID, from, to string) (*CashierSales, error)
	StockReport(ctx context.Context, lowStockThreshold int) (*StockReport, error)
}

type service struct{ repo Repository }

// NewService creates a new report service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) DailySales(ctx context.Context, from, to string) ([]*DailySalesRow, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.DailySales(ctx, start, end)
}

func (s *service) GSTReport(ctx context.Context, from, to string) ([]*GSTRow, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.GSTReport(ctx, start, end)
}

func (s *service) CashierSales(ctx context.Context, cashierID, from, to string) (*CashierSales, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.CashierSales(ctx, cashierID, start, end)
}

func (s *service) StockReport(ctx context.Context, lowStockThreshold int) (*StockReport, error) {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	medicines, err := s.repo.MedicineStock(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.LowStockBatches(ctx, lowStockThreshold)
	if err != nil {
		return nil, err
	}
	expired, err := s.repo.ExpiredBatches(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, m := range medicines {
		total = total.Add(m.Valuation)
	}
	return &StockReport{
		Medicines:      medicines,
		LowStock:       lowStock,
		Expired:        expired,
		TotalValuation: total,
	}, nil
}

// parseRange turns inclusive YYYY-MM-DD bounds into a half-open interval.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.E(apperr.KindInvalidInput, "from must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.E(apperr.KindInvalidInput, "to must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperr.E(apperr.KindInvalidInput, "to must not precede from")
	}
	return start, end.AddDate(0, 0, 1), nil
}
