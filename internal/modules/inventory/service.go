package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
	"github.com/medstore/pos-backend/internal/modules/catalog"
)

// Service defines inventory business logic: batch lifecycle, the
// earliest-expiry-first allocator and the stock ledger entry points.
type Service interface {
	CreateBatch(ctx context.Context, req CreateBatchRequest, actor audit.Actor) (*Batch, error)
	GetBatch(ctx context.Context, id string) (*Batch, error)
	ListBatches(ctx context.Context) ([]*Batch, error)
	ListByMedicine(ctx context.Context, medicineID string) ([]*Batch, error)

	// SelectBatch picks the batch a sale line should draw from: among the
	// medicine's unexpired batches with stock, earliest expiry first, the
	// first one that can cover the whole quantity. A line never splits
	// across batches. Read-only; the deduct recheck is the real guard.
	SelectBatch(ctx context.Context, medicineID string, quantity int) (*Batch, error)

	Deduct(ctx context.Context, batchID uuid.UUID, quantity int) error
	Restore(ctx context.Context, batchID uuid.UUID, quantity int) error

	UpdateBatch(ctx context.Context, id string, req UpdateBatchRequest, actor audit.Actor) (*Batch, error)
	ResetStock(ctx context.Context, id string, req ResetStockRequest, actor audit.Actor) (*Batch, error)
	DeleteBatch(ctx context.Context, id string, actor audit.Actor) error

	ListExpired(ctx context.Context) ([]*Batch, error)
	ListLowStock(ctx context.Context, threshold int) ([]*Batch, error)

	AddBarcodes(ctx context.Context, batchID string, req AddBarcodesRequest, actor audit.Actor) error
	ListBarcodes(ctx context.Context, batchID string) ([]*StockBarcode, error)
	MarkBarcodeSold(ctx context.Context, code string, sold bool) error

	// CreateInitialBatch seeds the first batch while a medicine is being
	// created; it satisfies catalog.BatchCreator.
	CreateInitialBatch(ctx context.Context, stock catalog.InitialStock, actor audit.Actor) error
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

// NewService creates a new inventory service.
func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, recorder: recorder}
}

func (s *service) CreateBatch(ctx context.Context, req CreateBatchRequest, actor audit.Actor) (*Batch, error) {
	medicineID, err := uuid.Parse(req.MedicineID)
	if err != nil {
		return nil, apperr.E(apperr.KindInvalidInput, "medicine_id must be a valid UUID")
	}
	if strings.TrimSpace(req.BatchNumber) == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "batch_number is required")
	}
	if req.Quantity <= 0 {
		return nil, apperr.E(apperr.KindInvalidInput, "quantity must be positive")
	}
	if req.PurchasePrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, apperr.E(apperr.KindInvalidInput, "prices cannot be negative")
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, apperr.E(apperr.KindInvalidInput, "expiry_date must be YYYY-MM-DD")
	}
	if len(req.Barcodes) > 0 && len(req.Barcodes) != req.Quantity {
		return nil, apperr.E(apperr.KindInvalidInput,
			"barcode count %d does not match quantity %d", len(req.Barcodes), req.Quantity)
	}

	b := &Batch{
		ID:                uuid.New(),
		MedicineID:        medicineID,
		BatchNumber:       strings.TrimSpace(req.BatchNumber),
		ExpiryDate:        expiry,
		PurchasePrice:     req.PurchasePrice,
		SellingPrice:      req.SellingPrice,
		QuantityAvailable: req.Quantity,
	}
	if b.Expired() {
		return nil, apperr.E(apperr.KindInvalidInput, "expiry date %s is in the past", req.ExpiryDate)
	}

	exists, err := s.repo.MedicineExists(ctx, req.MedicineID)
	if err != nil {
		return nil, fmt.Errorf("check medicine: %w", err)
	}
	if !exists {
		return nil, apperr.E(apperr.KindNotFound, "medicine not found with id %s", req.MedicineID)
	}

	if err := s.repo.CreateBatch(ctx, b, req.Barcodes); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.ActionBatchAdded, actor, "Batch", b.ID.String(),
		fmt.Sprintf("Batch %s added: %d units", b.BatchNumber, b.QuantityAvailable),
		"", fmt.Sprintf("%d", b.QuantityAvailable))
	return b, nil
}

func (s *service) CreateInitialBatch(ctx context.Context, stock catalog.InitialStock, actor audit.Actor) error {
	b := &Batch{
		ID:                uuid.New(),
		MedicineID:        stock.MedicineID,
		BatchNumber:       stock.BatchNumber,
		ExpiryDate:        stock.ExpiryDate,
		PurchasePrice:     stock.PurchasePrice,
		SellingPrice:      stock.SellingPrice,
		QuantityAvailable: stock.Quantity,
	}
	if b.Expired() {
		return apperr.E(apperr.KindInvalidInput, "expiry date %s is in the past",
			stock.ExpiryDate.Format("2006-01-02"))
	}
	if len(stock.Barcodes) > 0 && len(stock.Barcodes) != stock.Quantity {
		return apperr.E(apperr.KindInvalidInput,
			"barcode count %d does not match quantity %d", len(stock.Barcodes), stock.Quantity)
	}
	if err := s.repo.CreateBatch(ctx, b, stock.Barcodes); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.ActionBatchAdded, actor, "Batch", b.ID.String(),
		fmt.Sprintf("Initial batch %s added: %d units", b.BatchNumber, b.QuantityAvailable),
		"", fmt.Sprintf("%d", b.QuantityAvailable))
	return nil
}

func (s *service) GetBatch(ctx context.Context, id string) (*Batch, error) {
	return s.repo.GetBatchByID(ctx, id)
}

func (s *service) ListBatches(ctx context.Context) ([]*Batch, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) ListByMedicine(ctx context.Context, medicineID string) ([]*Batch, error) {
	return s.repo.ListByMedicine(ctx, medicineID)
}

func (s *service) SelectBatch(ctx context.Context, medicineID string, quantity int) (*Batch, error) {
	if quantity <= 0 {
		return nil, apperr.E(apperr.KindInvalidInput, "quantity must be positive")
	}
	candidates, err := s.repo.ListSellable(ctx, medicineID)
	if err != nil {
		return nil, fmt.Errorf("list sellable batches: %w", err)
	}
	if len(candidates) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "no sellable stock found for medicine %s", medicineID)
	}

	total := 0
	for _, b := range candidates {
		if b.HasStock(quantity) {
			return b, nil
		}
		total += b.QuantityAvailable
	}
	if total >= quantity {
		// A line draws from exactly one batch; spreading a line across
		// batches is not supported.
		return nil, apperr.E(apperr.KindInsufficientStock,
			"no single batch holds %d units of medicine %s (total available %d)",
			quantity, medicineID, total)
	}
	return nil, apperr.E(apperr.KindInsufficientStock,
		"insufficient stock for medicine %s: available %d, required %d", medicineID, total, quantity)
}

func (s *service) Deduct(ctx context.Context, batchID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.E(apperr.KindInvalidInput, "quantity must be positive")
	}
	return s.repo.DeductStock(ctx, batchID, quantity)
}

func (s *service) Restore(ctx context.Context, batchID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.E(apperr.KindInvalidInput, "quantity must be positive")
	}
	return s.repo.RestoreStock(ctx, batchID, quantity)
}

func (s *service) UpdateBatch(ctx context.Context, id string, req UpdateBatchRequest, actor audit.Actor) (*Batch, error) {
	b, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, apperr.E(apperr.KindInvalidInput, "expiry_date must be YYYY-MM-DD")
	}
	if req.PurchasePrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, apperr.E(apperr.KindInvalidInput, "prices cannot be negative")
	}

	oldValue := fmt.Sprintf("%s exp=%s sell=%s", b.BatchNumber,
		b.ExpiryDate.Format("2006-01-02"), b.SellingPrice)
	b.BatchNumber = strings.TrimSpace(req.BatchNumber)
	b.ExpiryDate = expiry
	b.PurchasePrice = req.PurchasePrice
	b.SellingPrice = req.SellingPrice
	b.Version = req.Version

	if err := s.repo.UpdateBatch(ctx, b); err != nil {
		return nil, err
	}
	b.Version++

	s.recorder.Record(ctx, audit.ActionBatchUpdated, actor, "Batch", b.ID.String(),
		"Batch updated: "+b.BatchNumber, oldValue,
		fmt.Sprintf("%s exp=%s sell=%s", b.BatchNumber, b.ExpiryDate.Format("2006-01-02"), b.SellingPrice))
	return b, nil
}

func (s *service) ResetStock(ctx context.Context, id string, req ResetStockRequest, actor audit.Actor) (*Batch, error) {
	if req.Quantity < 0 {
		return nil, apperr.E(apperr.KindInvalidInput, "quantity cannot be negative")
	}
	b, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	old := b.QuantityAvailable
	b.QuantityAvailable = req.Quantity
	b.Version = req.Version
	if err := s.repo.UpdateBatch(ctx, b); err != nil {
		return nil, err
	}
	b.Version++

	s.recorder.Record(ctx, audit.ActionStockUpdated, actor, "Batch", b.ID.String(),
		"Stock reset for batch "+b.BatchNumber,
		fmt.Sprintf("%d", old), fmt.Sprintf("%d", req.Quantity))
	return b, nil
}

func (s *service) DeleteBatch(ctx context.Context, id string, actor audit.Actor) error {
	b, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return err
	}
	if b.QuantityAvailable > 0 {
		return apperr.E(apperr.KindConflict,
			"cannot delete batch %s: %d units still in stock", b.BatchNumber, b.QuantityAvailable)
	}
	if err := s.repo.DeleteBatch(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.ActionBatchDeleted, actor, "Batch", id,
		"Batch deleted: "+b.BatchNumber, b.BatchNumber, "")
	return nil
}

func (s *service) ListExpired(ctx context.Context) ([]*Batch, error) {
	return s.repo.ListExpired(ctx)
}

func (s *service) ListLowStock(ctx context.Context, threshold int) ([]*Batch, error) {
	if threshold <= 0 {
		threshold = 10
	}
	return s.repo.ListLowStock(ctx, threshold)
}

func (s *service) AddBarcodes(ctx context.Context, batchID string, req AddBarcodesRequest, actor audit.Actor) error {
	if len(req.Barcodes) == 0 {
		return apperr.E(apperr.KindInvalidInput, "barcodes are required")
	}
	b, err := s.repo.GetBatchByID(ctx, batchID)
	if err != nil {
		return err
	}
	if err := s.repo.AddBarcodes(ctx, b.ID, req.Barcodes); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.ActionBatchUpdated, actor, "Batch", batchID,
		fmt.Sprintf("%d barcode(s) added to batch %s", len(req.Barcodes), b.BatchNumber), "", "")
	return nil
}

func (s *service) ListBarcodes(ctx context.Context, batchID string) ([]*StockBarcode, error) {
	return s.repo.ListBarcodes(ctx, batchID)
}

func (s *service) MarkBarcodeSold(ctx context.Context, code string, sold bool) error {
	return s.repo.SetBarcodeSold(ctx, code, sold)
}
