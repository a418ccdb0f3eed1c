package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a bill.
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "PENDING"
	StatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	StatusPaid          PaymentStatus = "PAID"
	StatusRefunded      PaymentStatus = "REFUNDED"
)

// PaymentMode is how a payment was tendered.
type PaymentMode string

const (
	ModeCash PaymentMode = "CASH"
	ModeUPI  PaymentMode = "UPI"
	ModeCard PaymentMode = "CARD"
)

// PaymentCompleted is the only payment state this core writes; the enum
// leaves room for gateway-driven states.
const PaymentCompleted = "COMPLETED"

// Bill is a finalized sale with its line items and payments.
type Bill struct {
	ID                 uuid.UUID       `json:"id"`
	BillNumber         string          `json:"bill_number"`
	BillDate           time.Time       `json:"bill_date"`
	CashierID          uuid.UUID       `json:"cashier_id"`
	CashierName        string          `json:"cashier_name,omitempty"`
	CustomerName       string          `json:"customer_name,omitempty"`
	CustomerPhone      string          `json:"customer_phone,omitempty"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalGST           decimal.Decimal `json:"total_gst"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	Cancelled          bool            `json:"cancelled"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	Items              []*BillItem     `json:"items"`
	Payments           []*Payment      `json:"payments"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TotalPaid sums the bill's completed payments.
func (b *Bill) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.Payments {
		if p.Status == PaymentCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// DerivedStatus recomputes the payment status from completed payments. For a
// cancelled bill the stored status is kept as-is; for everything else the
// stored field is advisory and the derived value wins on every read.
func (b *Bill) DerivedStatus() PaymentStatus {
	if b.Cancelled {
		return b.PaymentStatus
	}
	if b.TotalPaid().LessThan(b.TotalAmount) {
		return StatusPartiallyPaid
	}
	return StatusPaid
}

// BillItem is one sale line: a priced, taxed snapshot of the medicine and
// batch at the time of sale. The snapshot is frozen; later price or tax
// changes do not touch persisted lines.
type BillItem struct {
	ID            uuid.UUID       `json:"id"`
	BillID        uuid.UUID       `json:"bill_id"`
	MedicineID    uuid.UUID       `json:"medicine_id"`
	MedicineName  string          `json:"medicine_name,omitempty"`
	BatchID       uuid.UUID       `json:"batch_id"`
	BatchNumber   string          `json:"batch_number"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// Payment is one tender against a bill.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	BillID      uuid.UUID       `json:"bill_id"`
	Reference   string          `json:"payment_reference"`
	Mode        PaymentMode     `json:"mode"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	PaymentDate time.Time       `json:"payment_date"`
}

// CreateBillRequest is the sale payload. Each item resolves its medicine by
// id or by product barcode.
type CreateBillRequest struct {
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	Items         []BillItemRequest `json:"items"`
	Payments      []PaymentRequest  `json:"payments"`
}

type BillItemRequest struct {
	MedicineID string `json:"medicine_id,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
	Quantity   int    `json:"quantity"`
}

type PaymentRequest struct {
	Mode      PaymentMode     `json:"mode"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// CancelBillRequest carries the cancellation reason.
type CancelBillRequest struct {
	Reason string `json:"reason"`
}
