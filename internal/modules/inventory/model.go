package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is a dated, priced lot of a medicine with its own stock counter.
// QuantityAvailable is mutated only through the ledger operations (Deduct,
// Restore) or an admin stock reset; it never goes below zero.
type Batch struct {
	ID                uuid.UUID       `json:"id"`
	MedicineID        uuid.UUID       `json:"medicine_id"`
	MedicineName      string          `json:"medicine_name,omitempty"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	QuantityAvailable int             `json:"quantity_available"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Expired reports whether the batch's expiry date is strictly before today.
// A batch expiring today is not yet expired, but is no longer eligible for
// sale either; eligibility requires expiry strictly after today.
func (b *Batch) Expired() bool {
	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return b.ExpiryDate.Before(today)
}

// HasStock reports whether the batch can supply the requested quantity.
func (b *Batch) HasStock(quantity int) bool { return b.QuantityAvailable >= quantity }

// StockBarcode is an individual serialized unit inside a batch, used when
// per-unit tracking is enabled. For any batch the number of sold units always
// equals the units issued minus the batch's available quantity.
type StockBarcode struct {
	ID        uuid.UUID `json:"id"`
	BatchID   uuid.UUID `json:"batch_id"`
	Barcode   string    `json:"barcode"`
	Sold      bool      `json:"sold"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBatchRequest is the payload for receiving a new stock lot.
type CreateBatchRequest struct {
	MedicineID    string          `json:"medicine_id"`
	BatchNumber   string          `json:"batch_number"`
	ExpiryDate    string          `json:"expiry_date"` // YYYY-MM-DD
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Quantity      int             `json:"quantity"`
	Barcodes      []string        `json:"barcodes,omitempty"` // per-unit codes, count must equal Quantity
}

// UpdateBatchRequest is the payload for administrative corrections. Version
// carries the caller's last-seen version for optimistic conflict detection.
type UpdateBatchRequest struct {
	BatchNumber   string          `json:"batch_number"`
	ExpiryDate    string          `json:"expiry_date"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Version       int64           `json:"version"`
}

// ResetStockRequest is the payload for an administrative stock correction.
type ResetStockRequest struct {
	Quantity int   `json:"quantity"`
	Version  int64 `json:"version"`
}

// AddBarcodesRequest attaches per-unit codes to an existing batch.
type AddBarcodesRequest struct {
	Barcodes []string `json:"barcodes"`
}
