package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
)

type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.Action
}

func (f *fakeRecorder) Record(_ context.Context, action audit.Action, _ audit.Actor, _, _, _, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, action)
}

// fakeRepo keeps batches in memory behind a mutex so the deduct path can be
// raced from multiple goroutines the way concurrent sales race on a row lock.
type fakeRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*Batch
}

func newFakeRepo(batches ...*Batch) *fakeRepo {
	r := &fakeRepo{batches: make(map[uuid.UUID]*Batch)}
	for _, b := range batches {
		r.batches[b.ID] = b
	}
	return r
}

func (r *fakeRepo) CreateBatch(_ context.Context, b *Batch, _ []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
	return nil
}

func (r *fakeRepo) GetBatchByID(_ context.Context, id string) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.ID.String() == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, apperr.E(apperr.KindNotFound, "batch not found with id %s", id)
}

func (r *fakeRepo) ListByMedicine(_ context.Context, medicineID string) ([]*Batch, error) {
	return r.sellable(medicineID, false), nil
}

func (r *fakeRepo) ListAll(context.Context) ([]*Batch, error) { return r.sellable("", false), nil }

func (r *fakeRepo) ListSellable(_ context.Context, medicineID string) ([]*Batch, error) {
	return r.sellable(medicineID, true), nil
}

func (r *fakeRepo) sellable(medicineID string, onlySellable bool) []*Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Batch
	for _, b := range r.batches {
		if medicineID != "" && b.MedicineID.String() != medicineID {
			continue
		}
		if onlySellable && (b.QuantityAvailable <= 0 || !b.ExpiryDate.After(endOfToday())) {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	// insertion sort by expiry, earliest first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ExpiryDate.Before(out[j-1].ExpiryDate); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func endOfToday() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func (r *fakeRepo) TotalAvailable(_ context.Context, medicineID string) (int, error) {
	total := 0
	for _, b := range r.sellable(medicineID, true) {
		total += b.QuantityAvailable
	}
	return total, nil
}

func (r *fakeRepo) ListExpired(context.Context) ([]*Batch, error) { return nil, nil }

func (r *fakeRepo) ListLowStock(context.Context, int) ([]*Batch, error) { return nil, nil }

func (r *fakeRepo) DeductStock(_ context.Context, batchID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return apperr.E(apperr.KindNotFound, "batch not found with id %s", batchID)
	}
	if b.QuantityAvailable < quantity {
		return apperr.E(apperr.KindInsufficientStock,
			"insufficient stock in batch %s: available %d, required %d",
			b.BatchNumber, b.QuantityAvailable, quantity)
	}
	b.QuantityAvailable -= quantity
	b.Version++
	return nil
}

func (r *fakeRepo) RestoreStock(_ context.Context, batchID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return apperr.E(apperr.KindNotFound, "batch not found with id %s", batchID)
	}
	b.QuantityAvailable += quantity
	b.Version++
	return nil
}

func (r *fakeRepo) UpdateBatch(_ context.Context, b *Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[b.ID]
	if !ok || stored.Version != b.Version {
		return apperr.E(apperr.KindConflict, "batch %s was modified concurrently", b.ID)
	}
	copied := *b
	copied.Version++
	r.batches[b.ID] = &copied
	return nil
}

func (r *fakeRepo) DeleteBatch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, b := range r.batches {
		if b.ID.String() == id {
			delete(r.batches, k)
			return nil
		}
	}
	return apperr.E(apperr.KindNotFound, "batch not found with id %s", id)
}

func (r *fakeRepo) MedicineExists(context.Context, string) (bool, error) { return true, nil }

func (r *fakeRepo) AddBarcodes(context.Context, uuid.UUID, []string) error { return nil }
func (r *fakeRepo) ListBarcodes(context.Context, string) ([]*StockBarcode, error) {
	return nil, nil
}
func (r *fakeRepo) GetBarcode(context.Context, string) (*StockBarcode, error) { return nil, nil }
func (r *fakeRepo) SetBarcodeSold(context.Context, string, bool) error        { return nil }

func testBatch(medicineID uuid.UUID, number string, daysToExpiry, quantity int) *Batch {
	return &Batch{
		ID:                uuid.New(),
		MedicineID:        medicineID,
		BatchNumber:       number,
		ExpiryDate:        time.Now().AddDate(0, 0, daysToExpiry),
		PurchasePrice:     decimal.NewFromInt(40),
		SellingPrice:      decimal.NewFromInt(55),
		QuantityAvailable: quantity,
	}
}

func TestSelectBatchEarliestExpiryFirst(t *testing.T) {
	medicineID := uuid.New()
	early := testBatch(medicineID, "B-EARLY", 30, 5)
	late := testBatch(medicineID, "B-LATE", 365, 100)
	svc := NewService(newFakeRepo(late, early), &fakeRecorder{})

	b, err := svc.SelectBatch(context.Background(), medicineID.String(), 3)
	require.NoError(t, err)
	assert.Equal(t, "B-EARLY", b.BatchNumber)
}

func TestSelectBatchSkipsBatchesThatCannotCoverLine(t *testing.T) {
	medicineID := uuid.New()
	small := testBatch(medicineID, "B-SMALL", 30, 2)
	big := testBatch(medicineID, "B-BIG", 365, 50)
	svc := NewService(newFakeRepo(small, big), &fakeRecorder{})

	// earliest batch has only 2 units; a line of 10 falls through to the
	// later batch instead of splitting
	b, err := svc.SelectBatch(context.Background(), medicineID.String(), 10)
	require.NoError(t, err)
	assert.Equal(t, "B-BIG", b.BatchNumber)
}

func TestSelectBatchSkipsExpiredAndEmpty(t *testing.T) {
	medicineID := uuid.New()
	expired := testBatch(medicineID, "B-EXPIRED", -1, 50)
	empty := testBatch(medicineID, "B-EMPTY", 30, 0)
	good := testBatch(medicineID, "B-GOOD", 60, 10)
	svc := NewService(newFakeRepo(expired, empty, good), &fakeRecorder{})

	b, err := svc.SelectBatch(context.Background(), medicineID.String(), 5)
	require.NoError(t, err)
	assert.Equal(t, "B-GOOD", b.BatchNumber)
}

func TestSelectBatchNoSingleBatchHoldsQuantity(t *testing.T) {
	medicineID := uuid.New()
	a := testBatch(medicineID, "B-A", 30, 6)
	b := testBatch(medicineID, "B-B", 60, 6)
	svc := NewService(newFakeRepo(a, b), &fakeRecorder{})

	// total 12 covers the request but no single batch does
	_, err := svc.SelectBatch(context.Background(), medicineID.String(), 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "no single batch")
}

func TestSelectBatchTotalBelowRequired(t *testing.T) {
	medicineID := uuid.New()
	a := testBatch(medicineID, "B-A", 30, 3)
	svc := NewService(newFakeRepo(a), &fakeRecorder{})

	_, err := svc.SelectBatch(context.Background(), medicineID.String(), 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "available 3, required 10")
}

func TestSelectBatchNoEligibleBatches(t *testing.T) {
	medicineID := uuid.New()
	expired := testBatch(medicineID, "B-EXPIRED", -10, 50)
	svc := NewService(newFakeRepo(expired), &fakeRecorder{})

	_, err := svc.SelectBatch(context.Background(), medicineID.String(), 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSelectBatchRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRecorder{})
	_, err := svc.SelectBatch(context.Background(), uuid.NewString(), 0)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestConcurrentDeductNeverOversells(t *testing.T) {
	medicineID := uuid.New()
	b := testBatch(medicineID, "B-RACE", 90, 10)
	repo := newFakeRepo(b)
	svc := NewService(repo, &fakeRecorder{})

	const workers = 25
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Deduct(context.Background(), b.ID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 10, succeeded)

	stored, err := repo.GetBatchByID(context.Background(), b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.QuantityAvailable)
}

func TestDeductThenRestoreRoundTrip(t *testing.T) {
	medicineID := uuid.New()
	b := testBatch(medicineID, "B-RT", 90, 10)
	repo := newFakeRepo(b)
	svc := NewService(repo, &fakeRecorder{})
	ctx := context.Background()

	require.NoError(t, svc.Deduct(ctx, b.ID, 4))
	require.NoError(t, svc.Restore(ctx, b.ID, 4))

	stored, err := repo.GetBatchByID(ctx, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 10, stored.QuantityAvailable)
}

func TestCreateBatchValidation(t *testing.T) {
	medicineID := uuid.New()
	recorder := &fakeRecorder{}
	svc := NewService(newFakeRepo(), recorder)
	ctx := context.Background()

	base := CreateBatchRequest{
		MedicineID:    medicineID.String(),
		BatchNumber:   "BN-1",
		ExpiryDate:    time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
		PurchasePrice: decimal.NewFromInt(40),
		SellingPrice:  decimal.NewFromInt(55),
		Quantity:      10,
	}

	t.Run("expiry in past", func(t *testing.T) {
		req := base
		req.ExpiryDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
		_, err := svc.CreateBatch(ctx, req, audit.Actor{})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("zero quantity", func(t *testing.T) {
		req := base
		req.Quantity = 0
		_, err := svc.CreateBatch(ctx, req, audit.Actor{})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("barcode count mismatch", func(t *testing.T) {
		req := base
		req.Barcodes = []string{"U1", "U2"}
		_, err := svc.CreateBatch(ctx, req, audit.Actor{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match quantity")
	})

	t.Run("valid batch is created and audited", func(t *testing.T) {
		b, err := svc.CreateBatch(ctx, base, audit.Actor{})
		require.NoError(t, err)
		assert.Equal(t, 10, b.QuantityAvailable)
		assert.Contains(t, recorder.entries, audit.ActionBatchAdded)
	})
}

func TestDeleteBatchBlockedWhileStockRemains(t *testing.T) {
	medicineID := uuid.New()
	b := testBatch(medicineID, "B-DEL", 90, 3)
	repo := newFakeRepo(b)
	svc := NewService(repo, &fakeRecorder{})
	ctx := context.Background()

	err := svc.DeleteBatch(ctx, b.ID.String(), audit.Actor{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, svc.Deduct(ctx, b.ID, 3))
	assert.NoError(t, svc.DeleteBatch(ctx, b.ID.String(), audit.Actor{}))
}

func TestResetStockConflictsOnStaleVersion(t *testing.T) {
	medicineID := uuid.New()
	b := testBatch(medicineID, "B-VER", 90, 5)
	b.Version = 3
	repo := newFakeRepo(b)
	svc := NewService(repo, &fakeRecorder{})
	ctx := context.Background()

	_, err := svc.ResetStock(ctx, b.ID.String(), ResetStockRequest{Quantity: 20, Version: 2}, audit.Actor{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	updated, err := svc.ResetStock(ctx, b.ID.String(), ResetStockRequest{Quantity: 20, Version: 3}, audit.Actor{})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.QuantityAvailable)
}
