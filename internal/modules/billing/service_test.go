package billing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
	"github.com/medstore/pos-backend/internal/modules/catalog"
	"github.com/medstore/pos-backend/internal/modules/inventory"
)

type fakeRecorder struct{ actions []audit.Action }

func (f *fakeRecorder) Record(_ context.Context, action audit.Action, _ audit.Actor, _, _, _, _, _ string) {
	f.actions = append(f.actions, action)
}

type fakeBillRepo struct {
	bills       map[string]*Bill
	maxSequence int64
	sequenceErr error
	restored    map[uuid.UUID]int
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{bills: make(map[string]*Bill), restored: make(map[uuid.UUID]int)}
}

func (r *fakeBillRepo) CreateBill(_ context.Context, b *Bill) error {
	r.bills[b.ID.String()] = b
	return nil
}

func (r *fakeBillRepo) GetByID(_ context.Context, id string) (*Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "bill not found with id %s", id)
	}
	return b, nil
}

func (r *fakeBillRepo) GetByNumber(_ context.Context, number string) (*Bill, error) {
	for _, b := range r.bills {
		if b.BillNumber == number {
			return b, nil
		}
	}
	return nil, apperr.E(apperr.KindNotFound, "bill not found with number %s", number)
}

func (r *fakeBillRepo) List(context.Context) ([]*Bill, error) { return nil, nil }

func (r *fakeBillRepo) ListByDateRange(context.Context, time.Time, time.Time) ([]*Bill, error) {
	return nil, nil
}

func (r *fakeBillRepo) MaxBillSequence(context.Context, string) (int64, error) {
	return r.maxSequence, r.sequenceErr
}

func (r *fakeBillRepo) Cancel(_ context.Context, b *Bill) error {
	for _, item := range b.Items {
		r.restored[item.BatchID] += item.Quantity
	}
	r.bills[b.ID.String()] = b
	return nil
}

type fakeCatalog struct{ medicines map[string]*catalog.Medicine }

func (f *fakeCatalog) GetMedicine(_ context.Context, id string) (*catalog.Medicine, error) {
	m, ok := f.medicines[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "medicine not found with id %s", id)
	}
	return m, nil
}

func (f *fakeCatalog) GetMedicineByBarcode(_ context.Context, barcode string) (*catalog.Medicine, error) {
	for _, m := range f.medicines {
		if m.Barcode == barcode {
			return m, nil
		}
	}
	return nil, apperr.E(apperr.KindNotFound, "medicine not found with barcode %s", barcode)
}

type fakeSelector struct{ batches map[string]*inventory.Batch }

func (f *fakeSelector) SelectBatch(_ context.Context, medicineID string, quantity int) (*inventory.Batch, error) {
	b, ok := f.batches[medicineID]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "no sellable stock found for medicine %s", medicineID)
	}
	if b.QuantityAvailable < quantity {
		return nil, apperr.E(apperr.KindInsufficientStock,
			"insufficient stock for medicine %s: available %d, required %d",
			medicineID, b.QuantityAvailable, quantity)
	}
	return b, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixture() (*fakeBillRepo, *fakeCatalog, *fakeSelector, *catalog.Medicine, *inventory.Batch) {
	m := &catalog.Medicine{
		ID:            uuid.New(),
		Name:          "Paracetamol 500mg",
		Status:        catalog.StatusActive,
		GSTPercentage: dec("12"),
	}
	b := &inventory.Batch{
		ID:                uuid.New(),
		MedicineID:        m.ID,
		BatchNumber:       "PCM-01",
		ExpiryDate:        time.Now().AddDate(1, 0, 0),
		SellingPrice:      dec("50.00"),
		QuantityAvailable: 100,
	}
	repo := newFakeBillRepo()
	medicines := &fakeCatalog{medicines: map[string]*catalog.Medicine{m.ID.String(): m}}
	batches := &fakeSelector{batches: map[string]*inventory.Batch{m.ID.String(): b}}
	return repo, medicines, batches, m, b
}

func TestCreateBillComputesTotalsAndGST(t *testing.T) {
	repo, medicines, batches, m, _ := fixture()
	svc := NewService(repo, medicines, batches, &fakeRecorder{})

	// 10 x 50.00 = 500.00 subtotal; 12% GST = 60.00; total 560.00
	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 10}},
		Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("560.00")}},
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	assert.True(t, bill.Subtotal.Equal(dec("500.00")), "subtotal %s", bill.Subtotal)
	assert.True(t, bill.TotalGST.Equal(dec("60.00")), "gst %s", bill.TotalGST)
	assert.True(t, bill.TotalAmount.Equal(dec("560.00")), "total %s", bill.TotalAmount)
	assert.Equal(t, StatusPaid, bill.PaymentStatus)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, "PCM-01", bill.Items[0].BatchNumber)
}

func TestCreateBillGSTRoundsHalfUp(t *testing.T) {
	repo, medicines, batches, m, b := fixture()
	b.SellingPrice = dec("33.33")
	m.GSTPercentage = dec("5")
	svc := NewService(repo, medicines, batches, &fakeRecorder{})

	// 3 x 33.33 = 99.99; 5% = 4.9995 -> 5.00 (half up)
	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 3}},
		Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("104.99")}},
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	assert.True(t, bill.TotalGST.Equal(dec("5.00")), "gst %s", bill.TotalGST)
	assert.True(t, bill.TotalAmount.Equal(dec("104.99")), "total %s", bill.TotalAmount)
}

func TestCreateBillPaymentStatusBoundaries(t *testing.T) {
	cases := []struct {
		name string
		paid string
		want PaymentStatus
	}{
		{"underpaid", "499.99", StatusPartiallyPaid},
		{"exact", "560.00", StatusPaid},
		{"overpaid", "600.00", StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, medicines, batches, m, _ := fixture()
			svc := NewService(repo, medicines, batches, &fakeRecorder{})
			bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
				Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 10}},
				Payments: []PaymentRequest{{Mode: ModeUPI, Amount: dec(tc.paid)}},
			}, audit.Actor{ID: uuid.New()})
			require.NoError(t, err)
			assert.Equal(t, tc.want, bill.PaymentStatus)
		})
	}
}

func TestCreateBillValidation(t *testing.T) {
	repo, medicines, batches, m, _ := fixture()
	svc := NewService(repo, medicines, batches, &fakeRecorder{})
	ctx := context.Background()
	actor := audit.Actor{ID: uuid.New()}

	t.Run("no items", func(t *testing.T) {
		_, err := svc.CreateBill(ctx, CreateBillRequest{
			Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("10")}},
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("item without medicine reference", func(t *testing.T) {
		_, err := svc.CreateBill(ctx, CreateBillRequest{
			Items:    []BillItemRequest{{Quantity: 1}},
			Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("10")}},
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("discontinued medicine", func(t *testing.T) {
		m.Status = catalog.StatusDiscontinued
		defer func() { m.Status = catalog.StatusActive }()
		_, err := svc.CreateBill(ctx, CreateBillRequest{
			Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
			Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("10")}},
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("no payments", func(t *testing.T) {
		_, err := svc.CreateBill(ctx, CreateBillRequest{
			Items: []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("bad payment mode", func(t *testing.T) {
		_, err := svc.CreateBill(ctx, CreateBillRequest{
			Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
			Payments: []PaymentRequest{{Mode: "CHEQUE", Amount: dec("10")}},
		}, actor)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("insufficient stock surfaces from selector", func(t *testing.T) {
		_, err := svc.CreateBill(ctx, CreateBillRequest{
			Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 500}},
			Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("10")}},
		}, actor)
		assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	})
}

func TestBillNumberFormatAndSequence(t *testing.T) {
	repo, medicines, batches, m, _ := fixture()
	repo.maxSequence = 41
	svc := NewService(repo, medicines, batches, &fakeRecorder{})

	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
		Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("56.00")}},
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	want := fmt.Sprintf("BILL%s0042", time.Now().Format("20060102"))
	assert.Equal(t, want, bill.BillNumber)
}

func TestBillNumberFallsBackWhenSequenceUnavailable(t *testing.T) {
	repo, medicines, batches, m, _ := fixture()
	repo.sequenceErr = errors.New("connection reset")
	svc := NewService(repo, medicines, batches, &fakeRecorder{})

	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
		Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("56.00")}},
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	pattern := fmt.Sprintf(`^BILL%s\d{4}$`, time.Now().Format("20060102"))
	assert.Regexp(t, regexp.MustCompile(pattern), bill.BillNumber)
}

func TestSynthesizedPaymentReference(t *testing.T) {
	repo, medicines, batches, m, _ := fixture()
	svc := NewService(repo, medicines, batches, &fakeRecorder{})

	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
		Payments: []PaymentRequest{{Mode: ModeCard, Amount: dec("56.00")}},
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	require.Len(t, bill.Payments, 1)
	assert.Regexp(t, regexp.MustCompile(`^C-[0-9A-F]{8}$`), bill.Payments[0].Reference)
	assert.Equal(t, PaymentCompleted, bill.Payments[0].Status)
}

func TestDerivedStatusRecomputedOnRead(t *testing.T) {
	repo, medicines, batches, m, _ := fixture()
	recorder := &fakeRecorder{}
	svc := NewService(repo, medicines, batches, recorder)
	ctx := context.Background()

	bill, err := svc.CreateBill(ctx, CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 10}},
		Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("300.00")}},
	}, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, bill.PaymentStatus)

	// a stale stored value survives the record read but is overridden by
	// the view read
	repo.bills[bill.ID.String()].PaymentStatus = StatusPaid
	stored, err := svc.BillRecord(ctx, bill.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, stored.PaymentStatus)

	got, err := svc.GetBill(ctx, bill.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, got.PaymentStatus)
}

func TestCancelBillRules(t *testing.T) {
	repo, medicines, batches, m, b := fixture()
	recorder := &fakeRecorder{}
	svc := NewService(repo, medicines, batches, recorder)
	ctx := context.Background()
	actor := audit.Actor{ID: uuid.New()}

	bill, err := svc.CreateBill(ctx, CreateBillRequest{
		Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 4}},
		Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("100.00")}},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, bill.PaymentStatus)

	t.Run("paid bill cannot be cancelled", func(t *testing.T) {
		paid, err := svc.CreateBill(ctx, CreateBillRequest{
			Items:    []BillItemRequest{{MedicineID: m.ID.String(), Quantity: 1}},
			Payments: []PaymentRequest{{Mode: ModeCash, Amount: dec("56.00")}},
		}, actor)
		require.NoError(t, err)
		_, err = svc.CancelBill(ctx, paid.ID.String(), "typo", actor)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("cancellation restores stock and keeps stored status", func(t *testing.T) {
		got, err := svc.CancelBill(ctx, bill.ID.String(), "customer walked out", actor)
		require.NoError(t, err)
		assert.True(t, got.Cancelled)
		assert.Equal(t, StatusPartiallyPaid, got.PaymentStatus)
		assert.Equal(t, 4, repo.restored[b.ID])
		assert.Contains(t, recorder.actions, audit.ActionBillCancelled)
	})

	t.Run("double cancel conflicts", func(t *testing.T) {
		_, err := svc.CancelBill(ctx, bill.ID.String(), "again", actor)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}
