package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	entries   []*Entry
	insertErr error
}

func (r *fakeRepo) Insert(_ context.Context, e *Entry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ Filter) ([]*Entry, error) {
	return r.entries, nil
}

func TestRecordPopulatesEntry(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	actor := Actor{ID: uuid.New(), Addr: "10.0.0.7:53211"}

	svc.Record(context.Background(), ActionBillCreated, actor,
		"Bill", "bill-1", "Bill BILL202608310001 created", "", "560.00")

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, ActionBillCreated, e.Action)
	assert.Equal(t, actor.ID, e.ActorID)
	assert.Equal(t, "Bill", e.EntityType)
	assert.Equal(t, "bill-1", e.EntityID)
	assert.Equal(t, "10.0.0.7:53211", e.IPAddress)
	assert.False(t, e.LoggedAt.IsZero())
}

func TestRecordSuppressesWriteFailure(t *testing.T) {
	repo := &fakeRepo{insertErr: errors.New("audit store down")}
	svc := NewService(repo)

	// must not panic and must not surface the failure to the caller
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), ActionUserLogout, Actor{ID: uuid.New()},
			"User", "u-1", "User logged out", "", "")
	})
	assert.Empty(t, repo.entries)
}

func TestQueryDelegatesToRepository(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	svc.Record(context.Background(), ActionStockUpdated, Actor{ID: uuid.New()},
		"Batch", "b-1", "Stock reset", "5", "20")

	out, err := svc.Query(context.Background(), Filter{EntityType: "Batch"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
