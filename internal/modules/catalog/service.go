package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medstore/pos-backend/internal/apperr"
	"github.com/medstore/pos-backend/internal/modules/audit"
)

// Service defines catalog business logic.
type Service interface {
	CreateMedicine(ctx context.Context, req CreateMedicineRequest, actor audit.Actor) (*Medicine, error)
	GetMedicine(ctx context.Context, id string) (*Medicine, error)
	GetMedicineByBarcode(ctx context.Context, barcode string) (*Medicine, error)
	SearchMedicines(ctx context.Context, term string) ([]*Medicine, error)
	ListMedicines(ctx context.Context) ([]*Medicine, error)
	UpdateMedicine(ctx context.Context, id string, req UpdateMedicineRequest, actor audit.Actor) (*Medicine, error)
	UpdateStatus(ctx context.Context, id string, status Status, actor audit.Actor) (*Medicine, error)
	DeleteMedicine(ctx context.Context, id string, actor audit.Actor) error
}

// InitialStock describes the first batch created together with a medicine.
type InitialStock struct {
	MedicineID    uuid.UUID
	BatchNumber   string
	ExpiryDate    time.Time
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	Quantity      int
	Barcodes      []string
}

// BatchCreator is implemented by the inventory module; it lets medicine
// creation seed the first batch without the catalog owning stock writes.
type BatchCreator interface {
	CreateInitialBatch(ctx context.Context, stock InitialStock, actor audit.Actor) error
}

type service struct {
	repo     Repository
	batches  BatchCreator
	recorder audit.Recorder
}

// NewService creates a new catalog service.
func NewService(repo Repository, batches BatchCreator, recorder audit.Recorder) Service {
	return &service{repo: repo, batches: batches, recorder: recorder}
}

func (s *service) CreateMedicine(ctx context.Context, req CreateMedicineRequest, actor audit.Actor) (*Medicine, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "medicine name is required")
	}
	if strings.TrimSpace(req.Manufacturer) == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "manufacturer is required")
	}
	if strings.TrimSpace(req.HSNCode) == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "hsn_code is required")
	}
	if req.GSTPercentage.IsNegative() {
		return nil, apperr.E(apperr.KindInvalidInput, "gst_percentage cannot be negative")
	}

	if existing, err := s.repo.GetByHSNCode(ctx, strings.TrimSpace(req.HSNCode)); err == nil && existing != nil {
		return nil, apperr.E(apperr.KindConflict, "medicine with HSN code %s already exists", req.HSNCode)
	} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, fmt.Errorf("check hsn code: %w", err)
	}

	m := &Medicine{
		ID:                   uuid.New(),
		Name:                 strings.TrimSpace(req.Name),
		Manufacturer:         strings.TrimSpace(req.Manufacturer),
		Category:             strings.TrimSpace(req.Category),
		Barcode:              strings.TrimSpace(req.Barcode),
		HSNCode:              strings.TrimSpace(req.HSNCode),
		GSTPercentage:        req.GSTPercentage,
		PrescriptionRequired: req.PrescriptionRequired,
		Status:               StatusActive,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	if req.InitialStock > 0 {
		stock, err := s.initialStock(m.ID, req)
		if err != nil {
			return nil, err
		}
		if err := s.batches.CreateInitialBatch(ctx, stock, actor); err != nil {
			return nil, err
		}
		m.TotalStock = req.InitialStock
	}

	s.recorder.Record(ctx, audit.ActionMedicineAdded, actor, "Medicine", m.ID.String(),
		"Medicine created: "+m.Name, "", m.Name)
	return m, nil
}

func (s *service) initialStock(medicineID uuid.UUID, req CreateMedicineRequest) (InitialStock, error) {
	if strings.TrimSpace(req.BatchNumber) == "" {
		return InitialStock{}, apperr.E(apperr.KindInvalidInput, "batch_number is required when adding initial stock")
	}
	if req.PurchasePrice.IsZero() || req.SellingPrice.IsZero() {
		return InitialStock{}, apperr.E(apperr.KindInvalidInput, "purchase_price and selling_price are required when adding initial stock")
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return InitialStock{}, apperr.E(apperr.KindInvalidInput, "expiry_date must be YYYY-MM-DD")
	}
	return InitialStock{
		MedicineID:    medicineID,
		BatchNumber:   strings.TrimSpace(req.BatchNumber),
		ExpiryDate:    expiry,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.InitialStock,
		Barcodes:      req.Barcodes,
	}, nil
}

func (s *service) GetMedicine(ctx context.Context, id string) (*Medicine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetMedicineByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperr.E(apperr.KindInvalidInput, "barcode is required")
	}
	return s.repo.GetByBarcode(ctx, barcode)
}

func (s *service) SearchMedicines(ctx context.Context, term string) ([]*Medicine, error) {
	return s.repo.Search(ctx, term)
}

func (s *service) ListMedicines(ctx context.Context) ([]*Medicine, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateMedicine(ctx context.Context, id string, req UpdateMedicineRequest, actor audit.Actor) (*Medicine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.HSNCode != m.HSNCode {
		if existing, err := s.repo.GetByHSNCode(ctx, req.HSNCode); err == nil && existing != nil {
			return nil, apperr.E(apperr.KindConflict, "medicine with HSN code %s already exists", req.HSNCode)
		} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, fmt.Errorf("check hsn code: %w", err)
		}
	}

	oldValue := fmt.Sprintf("%s/%s/%s gst=%s", m.Name, m.Manufacturer, m.HSNCode, m.GSTPercentage)
	m.Name = req.Name
	m.Manufacturer = req.Manufacturer
	m.Category = req.Category
	m.Barcode = req.Barcode
	m.HSNCode = req.HSNCode
	m.GSTPercentage = req.GSTPercentage
	m.PrescriptionRequired = req.PrescriptionRequired

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	m.Version++

	s.recorder.Record(ctx, audit.ActionMedicineUpdated, actor, "Medicine", m.ID.String(),
		"Medicine updated: "+m.Name, oldValue,
		fmt.Sprintf("%s/%s/%s gst=%s", m.Name, m.Manufacturer, m.HSNCode, m.GSTPercentage))
	return m, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status, actor audit.Actor) (*Medicine, error) {
	if status != StatusActive && status != StatusDiscontinued {
		return nil, apperr.E(apperr.KindInvalidInput, "status must be ACTIVE or DISCONTINUED")
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := m.Status
	m.Status = status
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	m.Version++

	s.recorder.Record(ctx, audit.ActionMedicineUpdated, actor, "Medicine", m.ID.String(),
		"Medicine status updated", string(old), string(status))
	return m, nil
}

func (s *service) DeleteMedicine(ctx context.Context, id string, actor audit.Actor) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.repo.CountBatches(ctx, id)
	if err != nil {
		return fmt.Errorf("count batches: %w", err)
	}
	if n > 0 {
		return apperr.E(apperr.KindConflict, "cannot delete medicine %s: %d batch(es) exist", m.Name, n)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.ActionMedicineDeleted, actor, "Medicine", id,
		"Medicine deleted: "+m.Name, m.Name, "")
	return nil
}
