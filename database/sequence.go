package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// NextInvoiceNumberInTx generates the next invoice number for a base (the
// venue-local "200601" month by convention). The first invoice of a month is
// the bare base; later ones get a "-2", "-3", ... suffix, derived from the
// highest suffix already stored so the sequence survives deletions in
// between.
func NextInvoiceNumberInTx(tx DBTX, base string) (string, error) {
	var numbers []string
	err := tx.Select(&numbers, `
		SELECT invoice_number FROM invoices
		WHERE invoice_number = ? OR invoice_number LIKE ?`, base, base+"-%")
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to scan invoice numbers for base %s: %w", base, err)
	}
	if len(numbers) == 0 {
		return base, nil
	}

	maxSeq := 1
	for _, n := range numbers {
		if n == base {
			continue
		}
		suffix := strings.TrimPrefix(n, base+"-")
		if seq, err := strconv.Atoi(suffix); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	return fmt.Sprintf("%s-%d", base, maxSeq+1), nil
}
