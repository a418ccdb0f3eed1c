package billing

import (
	"context"
	"time"
)

// Repository defines data access for bills.
type Repository interface {
	// CreateBill persists the bill, its items and its payments and deducts
	// stock for every line, all inside one transaction. Any failure leaves
	// no bill and no stock movement behind.
	CreateBill(ctx context.Context, b *Bill) error

	GetByID(ctx context.Context, id string) (*Bill, error)
	GetByNumber(ctx context.Context, number string) (*Bill, error)
	List(ctx context.Context) ([]*Bill, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*Bill, error)

	// MaxBillSequence returns the highest numeric suffix among today's bill
	// numbers for the given prefix, 0 when none exist yet.
	MaxBillSequence(ctx context.Context, prefix string) (int64, error)

	// Cancel marks the bill cancelled and restores stock for every line in
	// one transaction.
	Cancel(ctx context.Context, b *Bill) error
}
