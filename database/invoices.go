package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"

	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, invoice_number, supplier_id, invoice_date, wht_rate,
	subtotal, wht_amount, total, pdf_path, created_at`

func InsertInvoiceInTx(tx *sqlx.Tx, inv model.Invoice) (int, error) {
	if inv.CreatedAt == "" {
		inv.CreatedAt = UTCNow()
	}
	const q = `
		INSERT INTO invoices
			(invoice_number, supplier_id, invoice_date, wht_rate,
			 subtotal, wht_amount, total, pdf_path, created_at)
		VALUES
			(:invoice_number, :supplier_id, :invoice_date, :wht_rate,
			 :subtotal, :wht_amount, :total, :pdf_path, :created_at)`
	res, err := tx.NamedExec(q, inv)
	if err != nil {
		return 0, fmt.Errorf("failed to insert invoice %s: %w", inv.InvoiceNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new invoice id: %w", err)
	}
	return int(id), nil
}

func InsertInvoiceItemsInTx(tx *sqlx.Tx, invoiceID int, items []model.InvoiceItem) error {
	const q = `
		INSERT INTO invoice_items (invoice_id, line_no, description, quantity, unit_price, amount)
		VALUES (:invoice_id, :line_no, :description, :quantity, :unit_price, :amount)`
	stmt, err := tx.PrepareNamed(q)
	if err != nil {
		return fmt.Errorf("failed to prepare invoice item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		item.InvoiceID = invoiceID
		if _, err := stmt.Exec(item); err != nil {
			return fmt.Errorf("failed to insert invoice item %d for invoice %d: %w", item.LineNo, invoiceID, err)
		}
	}
	return nil
}

func GetInvoiceByID(db DBTX, id int) (model.Invoice, error) {
	var inv model.Invoice
	err := db.Get(&inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Invoice{}, err
		}
		return model.Invoice{}, fmt.Errorf("failed to get invoice %d: %w", id, err)
	}
	return inv, nil
}

func GetInvoiceItems(db DBTX, invoiceID int) ([]model.InvoiceItem, error) {
	var items []model.InvoiceItem
	err := db.Select(&items, `
		SELECT invoice_id, line_no, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY line_no`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for invoice %d: %w", invoiceID, err)
	}
	return items, nil
}

// ListInvoices returns invoices newest first. supplierID 0 means all
// suppliers; month ("2006-01") empty means all months.
func ListInvoices(db DBTX, supplierID int, month string) ([]model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices`
	conditions := []string{}
	args := []interface{}{}
	if supplierID != 0 {
		conditions = append(conditions, `supplier_id = ?`)
		args = append(args, supplierID)
	}
	if month != "" {
		conditions = append(conditions, `invoice_date LIKE ?`)
		args = append(args, month+"%")
	}
	for i, cond := range conditions {
		if i == 0 {
			q += ` WHERE ` + cond
		} else {
			q += ` AND ` + cond
		}
	}
	q += ` ORDER BY created_at DESC, id DESC`

	var invoices []model.Invoice
	if err := db.Select(&invoices, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

func UpdateInvoicePDFPath(db DBTX, id int, pdfPath string) error {
	if _, err := db.Exec(`UPDATE invoices SET pdf_path = ? WHERE id = ?`, pdfPath, id); err != nil {
		return fmt.Errorf("failed to update pdf path for invoice %d: %w", id, err)
	}
	return nil
}
