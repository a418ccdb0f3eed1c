package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
	"github.com/medstore/pos-backend/internal/modules/billing"
)

// Service defines return processing logic.
type Service interface {
	// ProcessReturn reverses the requested lines and yields both the return
	// record and the updated bill view.
	ProcessReturn(ctx context.Context, req ProcessReturnRequest, actor audit.Actor) (*Return, *billing.Bill, error)
	GetReturn(ctx context.Context, id string) (*Return, error)
	ListReturns(ctx context.Context) ([]*Return, error)
	ListReturnsByBill(ctx context.Context, billID string) ([]*Return, error)
}

// BillReader supplies bills both as stored and through the derived-on-read
// payment status view. Preconditions check the stored record: a fully
// returned bill stores REFUNDED while its derived view still reads PAID.
type BillReader interface {
	BillRecord(ctx context.Context, id string) (*billing.Bill, error)
	GetBill(ctx context.Context, id string) (*billing.Bill, error)
}

type service struct {
	repo     Repository
	bills    BillReader
	recorder audit.Recorder
}

// NewService creates a new returns service.
func NewService(repo Repository, bills BillReader, recorder audit.Recorder) Service {
	return &service{repo: repo, bills: bills, recorder: recorder}
}

func (s *service) ProcessReturn(ctx context.Context, req ProcessReturnRequest, actor audit.Actor) (*Return, *billing.Bill, error) {
	bill, err := s.bills.BillRecord(ctx, req.BillID)
	if err != nil {
		return nil, nil, err
	}
	if bill.Cancelled {
		return nil, nil, apperr.E(apperr.KindConflict, "bill %s is cancelled and cannot be returned", bill.BillNumber)
	}
	if bill.PaymentStatus != billing.StatusPaid {
		return nil, nil, apperr.E(apperr.KindConflict, "only paid bills can be returned; bill %s is %s",
			bill.BillNumber, bill.PaymentStatus)
	}
	if len(req.Items) == 0 {
		return nil, nil, apperr.E(apperr.KindInvalidInput, "return must have at least one item")
	}

	lines := make(map[string]*billing.BillItem, len(bill.Items))
	for _, item := range bill.Items {
		lines[item.ID.String()] = item
	}

	// All lines validate before any stock moves; a bad line aborts the
	// whole return.
	ret := &Return{
		ID:           uuid.New(),
		ReturnNumber: newReturnNumber(),
		BillID:       bill.ID,
		ProcessedBy:  actor.ID,
		ReturnDate:   time.Now(),
		RefundAmount: decimal.Zero,
		Reason:       strings.TrimSpace(req.Reason),
	}
	returnedByLine := make(map[string]int, len(req.Items))
	for _, line := range req.Items {
		original, ok := lines[line.BillItemID]
		if !ok {
			return nil, nil, apperr.E(apperr.KindNotFound,
				"bill item %s does not belong to bill %s", line.BillItemID, bill.BillNumber)
		}
		if line.Quantity < 1 {
			return nil, nil, apperr.E(apperr.KindInvalidInput, "return quantity must be at least 1")
		}
		returnedByLine[line.BillItemID] += line.Quantity
		if returnedByLine[line.BillItemID] > original.Quantity {
			return nil, nil, apperr.E(apperr.KindConflict,
				"cannot return %d of bill item %s: only %d sold",
				returnedByLine[line.BillItemID], line.BillItemID, original.Quantity)
		}

		refund := refundFor(original, line.Quantity)
		ret.Items = append(ret.Items, &ReturnItem{
			ID:           uuid.New(),
			ReturnID:     ret.ID,
			BillItemID:   original.ID,
			MedicineID:   original.MedicineID,
			BatchID:      original.BatchID,
			BatchNumber:  original.BatchNumber,
			Quantity:     line.Quantity,
			RefundAmount: refund,
		})
		ret.RefundAmount = ret.RefundAmount.Add(refund)
	}

	ret.Type = classify(bill, returnedByLine)

	if err := s.repo.Create(ctx, ret); err != nil {
		return nil, nil, err
	}

	s.recorder.Record(ctx, audit.ActionRefundProcessed, actor, "Return", ret.ID.String(),
		fmt.Sprintf("Return %s processed against bill %s: refund %s",
			ret.ReturnNumber, bill.BillNumber, ret.RefundAmount),
		"", ret.RefundAmount.String())

	updated, err := s.bills.GetBill(ctx, req.BillID)
	if err != nil {
		return nil, nil, err
	}
	return ret, updated, nil
}

// refundFor computes the proportional refund: the per-unit amount is rounded
// to 2dp first, then multiplied. Rounding after multiplying would give a
// different cent on uneven divisions, so the order is fixed.
func refundFor(item *billing.BillItem, quantity int) decimal.Decimal {
	perUnit := item.TotalAmount.Div(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	return perUnit.Mul(decimal.NewFromInt(int64(quantity)))
}

// classify reports FULL only when every line of the bill is returned in its
// entirety by this request; any line short of that, or untouched, makes the
// return PARTIAL.
func classify(bill *billing.Bill, returnedByLine map[string]int) Type {
	for _, item := range bill.Items {
		if returnedByLine[item.ID.String()] != item.Quantity {
			return TypePartial
		}
	}
	return TypeFull
}

func newReturnNumber() string {
	token := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("RET%s-%s", time.Now().Format("20060102"), token)
}

func (s *service) GetReturn(ctx context.Context, id string) (*Return, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListReturns(ctx context.Context) ([]*Return, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) ListReturnsByBill(ctx context.Context, billID string) ([]*Return, error) {
	return s.repo.ListByBill(ctx, billID)
}
