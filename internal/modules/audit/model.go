package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of state change being recorded.
type Action string

const (
	ActionMedicineAdded   Action = "MEDICINE_ADDED"
	ActionMedicineUpdated Action = "MEDICINE_UPDATED"
	ActionMedicineDeleted Action = "MEDICINE_DELETED"
	ActionBatchAdded      Action = "BATCH_ADDED"
	ActionBatchUpdated    Action = "BATCH_UPDATED"
	ActionBatchDeleted    Action = "BATCH_DELETED"
	ActionStockUpdated    Action = "STOCK_UPDATED"
	ActionBillCreated     Action = "BILL_CREATED"
	ActionBillCancelled   Action = "BILL_CANCELLED"
	ActionRefundProcessed Action = "REFUND_PROCESSED"
	ActionUserLogin       Action = "USER_LOGIN"
	ActionUserLogout      Action = "USER_LOGOUT"
	ActionUserCreated     Action = "USER_CREATED"
	ActionUserUpdated     Action = "USER_UPDATED"
)

// Entry is one durable audit record.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Action      Action    `json:"action"`
	ActorID     uuid.UUID `json:"actor_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Description string    `json:"description,omitempty"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	LoggedAt    time.Time `json:"logged_at"`
}

// Actor identifies who performed an action and from where.
type Actor struct {
	ID   uuid.UUID
	Addr string
}

// Filter narrows an audit query.
type Filter struct {
	Action     Action
	EntityType string
	EntityID   string
	ActorID    string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
