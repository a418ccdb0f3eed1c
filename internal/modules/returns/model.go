package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies a return against its original bill.
type Type string

const (
	TypeFull    Type = "FULL"
	TypePartial Type = "PARTIAL"
)

// Return is one reversal event against exactly one bill. Immutable once
// created.
type Return struct {
	ID           uuid.UUID       `json:"id"`
	ReturnNumber string          `json:"return_number"`
	BillID       uuid.UUID       `json:"bill_id"`
	ProcessedBy  uuid.UUID       `json:"processed_by"`
	ReturnDate   time.Time       `json:"return_date"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Reason       string          `json:"reason,omitempty"`
	Type         Type            `json:"return_type"`
	Items        []*ReturnItem   `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ReturnItem reverses part or all of one bill line. Stock goes back to the
// exact batch the line was fulfilled from.
type ReturnItem struct {
	ID           uuid.UUID       `json:"id"`
	ReturnID     uuid.UUID       `json:"return_id"`
	BillItemID   uuid.UUID       `json:"bill_item_id"`
	MedicineID   uuid.UUID       `json:"medicine_id"`
	BatchID      uuid.UUID       `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	Quantity     int             `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// ProcessReturnRequest is the payload for reversing bill lines.
type ProcessReturnRequest struct {
	BillID string              `json:"bill_id"`
	Reason string              `json:"reason"`
	Items  []ReturnLineRequest `json:"items"`
}

type ReturnLineRequest struct {
	BillItemID string `json:"bill_item_id"`
	Quantity   int    `json:"quantity"`
}
