package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
	"github.com/medstore/pos-backend/internal/modules/catalog"
	"github.com/medstore/pos-backend/internal/modules/inventory"
)

// Service defines billing business logic.
type Service interface {
	CreateBill(ctx context.Context, req CreateBillRequest, actor audit.Actor) (*Bill, error)
	GetBill(ctx context.Context, id string) (*Bill, error)
	// BillRecord returns the bill as stored, without the derived payment
	// status view. Settlement transitions (refunds) gate on this committed
	// status, not on the view.
	BillRecord(ctx context.Context, id string) (*Bill, error)
	GetBillByNumber(ctx context.Context, number string) (*Bill, error)
	ListBills(ctx context.Context) ([]*Bill, error)
	ListBillsByDateRange(ctx context.Context, from, to string) ([]*Bill, error)
	CancelBill(ctx context.Context, id, reason string, actor audit.Actor) (*Bill, error)
}

// MedicineCatalog resolves sale lines to priced, taxed medicines.
type MedicineCatalog interface {
	GetMedicine(ctx context.Context, id string) (*catalog.Medicine, error)
	GetMedicineByBarcode(ctx context.Context, barcode string) (*catalog.Medicine, error)
}

// BatchSelector picks the batch a sale line draws from.
type BatchSelector interface {
	SelectBatch(ctx context.Context, medicineID string, quantity int) (*inventory.Batch, error)
}

type service struct {
	repo      Repository
	medicines MedicineCatalog
	batches   BatchSelector
	recorder  audit.Recorder
}

// NewService creates a new billing service.
func NewService(repo Repository, medicines MedicineCatalog, batches BatchSelector, recorder audit.Recorder) Service {
	return &service{repo: repo, medicines: medicines, batches: batches, recorder: recorder}
}

var hundred = decimal.NewFromInt(100)

func (s *service) CreateBill(ctx context.Context, req CreateBillRequest, actor audit.Actor) (*Bill, error) {
	if len(req.Items) == 0 {
		return nil, apperr.E(apperr.KindInvalidInput, "bill must have at least one item")
	}

	b := &Bill{
		ID:            uuid.New(),
		BillDate:      time.Now(),
		CashierID:     actor.ID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Subtotal:      decimal.Zero,
		TotalGST:      decimal.Zero,
		TotalAmount:   decimal.Zero,
	}

	for _, line := range req.Items {
		item, err := s.buildItem(ctx, b.ID, line)
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
		lineSubtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		b.Subtotal = b.Subtotal.Add(lineSubtotal)
		b.TotalGST = b.TotalGST.Add(item.GSTAmount)
	}
	b.TotalAmount = b.Subtotal.Add(b.TotalGST)

	totalPaid := decimal.Zero
	for _, pay := range req.Payments {
		p, err := buildPayment(b.ID, pay)
		if err != nil {
			return nil, err
		}
		b.Payments = append(b.Payments, p)
		totalPaid = totalPaid.Add(p.Amount)
	}
	if !totalPaid.IsPositive() {
		return nil, apperr.E(apperr.KindInvalidInput, "total payment must be positive")
	}
	// Overpayment is accepted and resolves to PAID; no change is issued.
	if totalPaid.LessThan(b.TotalAmount) {
		b.PaymentStatus = StatusPartiallyPaid
	} else {
		b.PaymentStatus = StatusPaid
	}

	b.BillNumber = s.nextBillNumber(ctx)

	if err := s.repo.CreateBill(ctx, b); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.ActionBillCreated, actor, "Bill", b.ID.String(),
		fmt.Sprintf("Bill %s created: %d item(s), total %s", b.BillNumber, len(b.Items), b.TotalAmount),
		"", b.TotalAmount.String())
	return b, nil
}

func (s *service) buildItem(ctx context.Context, billID uuid.UUID, line BillItemRequest) (*BillItem, error) {
	if line.Quantity <= 0 {
		return nil, apperr.E(apperr.KindInvalidInput, "item quantity must be positive")
	}

	var (
		m   *catalog.Medicine
		err error
	)
	switch {
	case line.MedicineID != "":
		m, err = s.medicines.GetMedicine(ctx, line.MedicineID)
	case line.Barcode != "":
		m, err = s.medicines.GetMedicineByBarcode(ctx, line.Barcode)
	default:
		return nil, apperr.E(apperr.KindInvalidInput, "each item needs a medicine_id or a barcode")
	}
	if err != nil {
		return nil, err
	}
	if m.Status == catalog.StatusDiscontinued {
		return nil, apperr.E(apperr.KindInvalidInput, "medicine %s is discontinued", m.Name)
	}

	batch, err := s.batches.SelectBatch(ctx, m.ID.String(), line.Quantity)
	if err != nil {
		return nil, err
	}

	lineSubtotal := batch.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	gstAmount := lineSubtotal.Mul(m.GSTPercentage).Div(hundred).Round(2)

	return &BillItem{
		ID:            uuid.New(),
		BillID:        billID,
		MedicineID:    m.ID,
		MedicineName:  m.Name,
		BatchID:       batch.ID,
		BatchNumber:   batch.BatchNumber,
		Quantity:      line.Quantity,
		UnitPrice:     batch.SellingPrice,
		GSTPercentage: m.GSTPercentage,
		GSTAmount:     gstAmount,
		TotalAmount:   lineSubtotal.Add(gstAmount),
	}, nil
}

func buildPayment(billID uuid.UUID, req PaymentRequest) (*Payment, error) {
	switch req.Mode {
	case ModeCash, ModeUPI, ModeCard:
	default:
		return nil, apperr.E(apperr.KindInvalidInput, "payment mode must be CASH, UPI or CARD")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.E(apperr.KindInvalidInput, "payment amount must be positive")
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = synthesizeReference(req.Mode)
	}
	return &Payment{
		ID:          uuid.New(),
		BillID:      billID,
		Reference:   reference,
		Mode:        req.Mode,
		Amount:      req.Amount,
		Status:      PaymentCompleted,
		PaymentDate: time.Now(),
	}, nil
}

// synthesizeReference builds a reference like C-1A2B3C4D for payments that
// arrive without one (typically cash).
func synthesizeReference(mode PaymentMode) string {
	return fmt.Sprintf("%c-%s", mode[0], strings.ToUpper(uuid.NewString()[:8]))
}

// nextBillNumber issues BILLyyyyMMddNNNN, continuing today's sequence. When
// the sequence query fails it falls back to a time-derived suffix, which is
// not unique under concurrency; the unique index on bill_number is the
// backstop.
func (s *service) nextBillNumber(ctx context.Context) string {
	now := time.Now()
	prefix := "BILL" + now.Format("20060102")
	max, err := s.repo.MaxBillSequence(ctx, prefix)
	if err != nil {
		return fmt.Sprintf("%s%04d", prefix, now.UnixMilli()%10000)
	}
	return fmt.Sprintf("%s%04d", prefix, max+1)
}

func (s *service) GetBill(ctx context.Context, id string) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(b), nil
}

func (s *service) BillRecord(ctx context.Context, id string) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBillByNumber(ctx context.Context, number string) (*Bill, error) {
	b, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return view(b), nil
}

func (s *service) ListBills(ctx context.Context) ([]*Bill, error) {
	bills, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, b := range bills {
		bills[i] = view(b)
	}
	return bills, nil
}

func (s *service) ListBillsByDateRange(ctx context.Context, from, to string) ([]*Bill, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, apperr.E(apperr.KindInvalidInput, "from must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, apperr.E(apperr.KindInvalidInput, "to must be YYYY-MM-DD")
	}
	bills, err := s.repo.ListByDateRange(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for i, b := range bills {
		bills[i] = view(b)
	}
	return bills, nil
}

func (s *service) CancelBill(ctx context.Context, id, reason string, actor audit.Actor) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Cancelled {
		return nil, apperr.E(apperr.KindConflict, "bill %s is already cancelled", b.BillNumber)
	}
	if b.PaymentStatus == StatusPaid {
		return nil, apperr.E(apperr.KindConflict,
			"bill %s is paid; process a return instead of cancelling", b.BillNumber)
	}

	b.Cancelled = true
	b.CancellationReason = strings.TrimSpace(reason)
	if err := s.repo.Cancel(ctx, b); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.ActionBillCancelled, actor, "Bill", b.ID.String(),
		fmt.Sprintf("Bill %s cancelled: %s", b.BillNumber, b.CancellationReason),
		string(b.PaymentStatus), "CANCELLED")
	return view(b), nil
}

// view applies the derived-on-read payment status.
func view(b *Bill) *Bill {
	b.PaymentStatus = b.DerivedStatus()
	return b
}
