package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Recorder is the write side other modules depend on. Record is called after
// the business operation's outcome is known; it must never fail the caller.
type Recorder interface {
	Record(ctx context.Context, action Action, actor Actor, entityType, entityID, description, oldValue, newValue string)
}

// Service defines audit business logic.
type Service interface {
	Recorder
	Query(ctx context.Context, f Filter) ([]*Entry, error)
}

type service struct{ repo Repository }

// NewService creates a new audit service.
func NewService(repo Repository) Service { return &service{repo: repo} }

// Record persists an audit entry in its own commit scope. A write failure is
// logged but not propagated, so a failed audit write never blocks the
// business operation whose outcome it describes.
func (s *service) Record(ctx context.Context, action Action, actor Actor, entityType, entityID, description, oldValue, newValue string) {
	e := &Entry{
		ID:          uuid.New(),
		Action:      action,
		ActorID:     actor.ID,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		OldValue:    oldValue,
		NewValue:    newValue,
		IPAddress:   actor.Addr,
		LoggedAt:    time.Now(),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		log.Printf("audit: failed to record %s for %s/%s: %v", action, entityType, entityID, err)
	}
}

func (s *service) Query(ctx context.Context, f Filter) ([]*Entry, error) {
	return s.repo.List(ctx, f)
}
