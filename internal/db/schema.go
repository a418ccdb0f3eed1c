// Package db owns the database schema for the POS backend.
package db

import (
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'CASHIER',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS medicines (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		manufacturer TEXT NOT NULL,
		category TEXT,
		barcode TEXT UNIQUE,
		hsn_code TEXT NOT NULL UNIQUE,
		gst_percentage NUMERIC(5,2) NOT NULL,
		prescription_required BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_name ON medicines (name)`,
	`CREATE TABLE IF NOT EXISTS batches (
		id UUID PRIMARY KEY,
		medicine_id UUID NOT NULL REFERENCES medicines(id),
		batch_number TEXT NOT NULL,
		expiry_date DATE NOT NULL,
		purchase_price NUMERIC(10,2) NOT NULL,
		selling_price NUMERIC(10,2) NOT NULL,
		quantity_available INTEGER NOT NULL CHECK (quantity_available >= 0),
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_batches_medicine_expiry ON batches (medicine_id, expiry_date)`,
	`CREATE TABLE IF NOT EXISTS stock_barcodes (
		id UUID PRIMARY KEY,
		batch_id UUID NOT NULL REFERENCES batches(id),
		barcode TEXT NOT NULL UNIQUE,
		sold BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id UUID PRIMARY KEY,
		bill_number TEXT NOT NULL UNIQUE,
		bill_date TIMESTAMPTZ NOT NULL,
		cashier_id UUID NOT NULL REFERENCES users(id),
		customer_name TEXT,
		customer_phone TEXT,
		subtotal NUMERIC(10,2) NOT NULL,
		total_gst NUMERIC(10,2) NOT NULL,
		total_amount NUMERIC(10,2) NOT NULL,
		payment_status TEXT NOT NULL,
		cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		cancellation_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bills_bill_date ON bills (bill_date)`,
	`CREATE TABLE IF NOT EXISTS bill_items (
		id UUID PRIMARY KEY,
		bill_id UUID NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
		medicine_id UUID NOT NULL REFERENCES medicines(id),
		batch_id UUID NOT NULL REFERENCES batches(id),
		batch_number TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		gst_percentage NUMERIC(5,2) NOT NULL,
		gst_amount NUMERIC(10,2) NOT NULL,
		total_amount NUMERIC(10,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		bill_id UUID NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
		payment_reference TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		amount NUMERIC(10,2) NOT NULL,
		status TEXT NOT NULL,
		payment_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS returns (
		id UUID PRIMARY KEY,
		return_number TEXT NOT NULL UNIQUE,
		bill_id UUID NOT NULL REFERENCES bills(id),
		processed_by UUID NOT NULL REFERENCES users(id),
		return_date TIMESTAMPTZ NOT NULL,
		refund_amount NUMERIC(10,2) NOT NULL,
		reason TEXT,
		return_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS return_items (
		id UUID PRIMARY KEY,
		return_id UUID NOT NULL REFERENCES returns(id) ON DELETE CASCADE,
		bill_item_id UUID NOT NULL REFERENCES bill_items(id),
		medicine_id UUID NOT NULL REFERENCES medicines(id),
		batch_id UUID NOT NULL REFERENCES batches(id),
		batch_number TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		refund_amount NUMERIC(10,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		action TEXT NOT NULL,
		actor_id UUID,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		description TEXT,
		old_value TEXT,
		new_value TEXT,
		ip_address TEXT,
		logged_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity_type, entity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_logged_at ON audit_logs (logged_at)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
