package audit

import "context"

// Repository defines data access for audit log entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter) ([]*Entry, error)
}
