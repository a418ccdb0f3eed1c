package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySalesRow aggregates one day of non-cancelled bills.
type DailySalesRow struct {
	Day       time.Time       `json:"day"`
	BillCount int             `json:"bill_count"`
	Net       decimal.Decimal `json:"net"`
	GST       decimal.Decimal `json:"gst"`
	Gross     decimal.Decimal `json:"gross"`
}

// GSTRow aggregates taxable value and collected GST for one rate/HSN pair.
type GSTRow struct {
	HSNCode       string          `json:"hsn_code"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	TaxableValue  decimal.Decimal `json:"taxable_value"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
}

// CashierSales summarizes one cashier's non-cancelled bills in a period.
type CashierSales struct {
	CashierID   uuid.UUID       `json:"cashier_id"`
	CashierName string          `json:"cashier_name"`
	BillCount   int             `json:"bill_count"`
	Net         decimal.Decimal `json:"net"`
	GST         decimal.Decimal `json:"gst"`
	Gross       decimal.Decimal `json:"gross"`
}

// MedicineStockRow is one medicine's aggregate stock position.
type MedicineStockRow struct {
	MedicineID     uuid.UUID       `json:"medicine_id"`
	Name           string          `json:"name"`
	TotalAvailable int             `json:"total_available"`
	Valuation      decimal.Decimal `json:"valuation"` // at purchase price
}

// StockBatchRow is a batch flagged by a stock report (low or expired).
type StockBatchRow struct {
	BatchID           uuid.UUID       `json:"batch_id"`
	MedicineName      string          `json:"medicine_name"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	QuantityAvailable int             `json:"quantity_available"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
}

// StockReport is the full stock position snapshot.
type StockReport struct {
	Medicines      []*MedicineStockRow `json:"medicines"`
	LowStock       []*StockBatchRow    `json:"low_stock"`
	Expired        []*StockBatchRow    `json:"expired"`
	TotalValuation decimal.Decimal     `json:"total_valuation"`
}
