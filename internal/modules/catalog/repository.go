package catalog

import "context"

// Repository defines data access for the medicine master catalog.
type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id string) (*Medicine, error)
	GetByBarcode(ctx context.Context, barcode string) (*Medicine, error)
	GetByHSNCode(ctx context.Context, hsnCode string) (*Medicine, error)
	Search(ctx context.Context, term string) ([]*Medicine, error)
	List(ctx context.Context) ([]*Medicine, error)
	// Update persists non-identity fields and fails with a Conflict error
	// when the stored version no longer matches m.Version.
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id string) error
	CountBatches(ctx context.Context, medicineID string) (int, error)
}
