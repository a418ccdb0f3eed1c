package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for batches and per-unit stock barcodes.
type Repository interface {
	// CreateBatch inserts the batch and any per-unit barcodes atomically.
	CreateBatch(ctx context.Context, b *Batch, barcodes []string) error
	GetBatchByID(ctx context.Context, id string) (*Batch, error)
	ListByMedicine(ctx context.Context, medicineID string) ([]*Batch, error)
	ListAll(ctx context.Context) ([]*Batch, error)
	// ListSellable returns non-expired batches with stock, earliest expiry
	// first. This is the allocator's candidate set.
	ListSellable(ctx context.Context, medicineID string) ([]*Batch, error)
	// TotalAvailable sums quantity across the medicine's non-expired batches.
	TotalAvailable(ctx context.Context, medicineID string) (int, error)
	ListExpired(ctx context.Context) ([]*Batch, error)
	ListLowStock(ctx context.Context, threshold int) ([]*Batch, error)

	// DeductStock takes the batch row lock, re-checks availability and
	// decrements, all in its own transaction.
	DeductStock(ctx context.Context, batchID uuid.UUID, quantity int) error
	// RestoreStock increments availability with a single atomic statement.
	RestoreStock(ctx context.Context, batchID uuid.UUID, quantity int) error

	// UpdateBatch persists admin edits and fails with a Conflict error when
	// the stored version no longer matches b.Version.
	UpdateBatch(ctx context.Context, b *Batch) error
	DeleteBatch(ctx context.Context, id string) error

	MedicineExists(ctx context.Context, medicineID string) (bool, error)

	AddBarcodes(ctx context.Context, batchID uuid.UUID, codes []string) error
	ListBarcodes(ctx context.Context, batchID string) ([]*StockBarcode, error)
	GetBarcode(ctx context.Context, code string) (*StockBarcode, error)
	SetBarcodeSold(ctx context.Context, code string, sold bool) error
}
