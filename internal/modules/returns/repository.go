package returns

import "context"

// Repository defines data access for returns.
type Repository interface {
	// Create persists the return with its items, restores stock to each
	// line's original batch and, for a full return, marks the bill
	// REFUNDED — all inside one transaction.
	Create(ctx context.Context, ret *Return) error

	GetByID(ctx context.Context, id string) (*Return, error)
	ListAll(ctx context.Context) ([]*Return, error)
	ListByBill(ctx context.Context, billID string) ([]*Return, error)
}
