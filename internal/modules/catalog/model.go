package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a medicine.
type Status string

const (
	StatusActive       Status = "ACTIVE"
	StatusDiscontinued Status = "DISCONTINUED"
)

// Medicine is an entry in the pharmacy's master catalog. The barcode is the
// product GTIN/EAN — it identifies the product, never an individual unit.
type Medicine struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Manufacturer         string          `json:"manufacturer"`
	Category             string          `json:"category,omitempty"`
	Barcode              string          `json:"barcode,omitempty"`
	HSNCode              string          `json:"hsn_code"`
	GSTPercentage        decimal.Decimal `json:"gst_percentage"`
	PrescriptionRequired bool            `json:"prescription_required"`
	Status               Status          `json:"status"`
	TotalStock           int             `json:"total_stock"`
	Version              int64           `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Active reports whether the medicine may appear on new bills.
func (m *Medicine) Active() bool { return m.Status == StatusActive }

// CreateMedicineRequest is the payload for adding a medicine to the catalog.
// The initial stock fields are optional; when InitialStock > 0 a first batch
// is created alongside the medicine.
type CreateMedicineRequest struct {
	Name                 string          `json:"name"`
	Manufacturer         string          `json:"manufacturer"`
	Category             string          `json:"category,omitempty"`
	Barcode              string          `json:"barcode,omitempty"`
	HSNCode              string          `json:"hsn_code"`
	GSTPercentage        decimal.Decimal `json:"gst_percentage"`
	PrescriptionRequired bool            `json:"prescription_required"`

	InitialStock  int             `json:"initial_stock,omitempty"`
	BatchNumber   string          `json:"batch_number,omitempty"`
	ExpiryDate    string          `json:"expiry_date,omitempty"` // YYYY-MM-DD
	PurchasePrice decimal.Decimal `json:"purchase_price,omitempty"`
	SellingPrice  decimal.Decimal `json:"selling_price,omitempty"`
	Barcodes      []string        `json:"barcodes,omitempty"`
}

// UpdateMedicineRequest is the payload for editing non-identity fields.
type UpdateMedicineRequest struct {
	Name                 string          `json:"name"`
	Manufacturer         string          `json:"manufacturer"`
	Category             string          `json:"category,omitempty"`
	Barcode              string          `json:"barcode,omitempty"`
	HSNCode              string          `json:"hsn_code"`
	GSTPercentage        decimal.Decimal `json:"gst_percentage"`
	PrescriptionRequired bool            `json:"prescription_required"`
}

// UpdateStatusRequest is the payload for switching ACTIVE/DISCONTINUED.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
