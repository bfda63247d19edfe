package database

import (
	"fmt"
	"lengolf/model"

	"github.com/jmoiron/sqlx"
)

const posColumns = `id, receipt_number, txn_time, staff_name, payment_method,
	subtotal, discount, vat, total, is_voided, item_count, created_at, updated_at`

// InsertPOSTransactionsInTx loads a batch of imported receipts.
func InsertPOSTransactionsInTx(tx *sqlx.Tx, txns []model.POSTransaction) error {
	const q = `
		INSERT INTO pos_transactions
			(receipt_number, txn_time, staff_name, payment_method,
			 subtotal, discount, vat, total, is_voided, item_count,
			 created_at, updated_at)
		VALUES
			(:receipt_number, :txn_time, :staff_name, :payment_method,
			 :subtotal, :discount, :vat, :total, :is_voided, :item_count,
			 :created_at, :updated_at)`
	stmt, err := tx.PrepareNamed(q)
	if err != nil {
		return fmt.Errorf("failed to prepare pos transaction insert: %w", err)
	}
	defer stmt.Close()

	now := UTCNow()
	for _, t := range txns {
		if t.CreatedAt == "" {
			t.CreatedAt = now
		}
		if t.UpdatedAt == "" {
			t.UpdatedAt = now
		}
		if _, err := stmt.Exec(t); err != nil {
			return fmt.Errorf("failed to insert pos transaction %s: %w", t.ReceiptNumber, err)
		}
	}
	return nil
}

// GetPOSTransactionsBetween returns receipts with fromUTC <= txn_time < toUTC
// ordered by time then id.
func GetPOSTransactionsBetween(db DBTX, fromUTC, toUTC string) ([]model.POSTransaction, error) {
	var txns []model.POSTransaction
	err := db.Select(&txns, `
		SELECT `+posColumns+`
		FROM pos_transactions
		WHERE txn_time >= ? AND txn_time < ?
		ORDER BY txn_time, id`, fromUTC, toUTC)
	if err != nil {
		return nil, fmt.Errorf("failed to get pos transactions between %s and %s: %w", fromUTC, toUTC, err)
	}
	return txns, nil
}

func GetPOSTransactionsByReceipt(db DBTX, receiptNumber string) ([]model.POSTransaction, error) {
	var txns []model.POSTransaction
	err := db.Select(&txns, `
		SELECT `+posColumns+`
		FROM pos_transactions
		WHERE receipt_number = ?
		ORDER BY txn_time, id`, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get pos transactions for receipt %s: %w", receiptNumber, err)
	}
	return txns, nil
}
