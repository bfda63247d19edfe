package model

import "database/sql"

// Product is one tracked stock item. ReorderThreshold is NULL for items the
// venue counts but never reorders (e.g. rental sets).
type Product struct {
	ID               int             `db:"id" json:"id"`
	ProductName      string          `db:"product_name" json:"productName"`
	Category         string          `db:"category" json:"category"`
	Unit             string          `db:"unit" json:"unit"`
	ReorderThreshold sql.NullFloat64 `db:"reorder_threshold" json:"reorderThreshold"`
	SupplierID       sql.NullInt64   `db:"supplier_id" json:"supplierId"`
	IsActive         bool            `db:"is_active" json:"isActive"`
}

// StockCount is one physical count of one product. CountDate is the
// venue-local date the count was taken, independent of when it was keyed in.
type StockCount struct {
	ID        int           `db:"id" json:"id"`
	ProductID int           `db:"product_id" json:"productId"`
	StaffID   sql.NullInt64 `db:"staff_id" json:"staffId"`
	CountDate string        `db:"count_date" json:"countDate"`
	Quantity  float64       `db:"quantity" json:"quantity"`
	Note      string        `db:"note" json:"note"`
	CreatedAt string        `db:"created_at" json:"createdAt"`
}
