// Package invoice generates the venue's supplier payment invoices with
// Thai withholding tax deducted, rendered to A4 PDFs via headless Chrome.
package invoice

import (
	"math"

	"lengolf/model"
)

// Totals is the money block of one invoice.
type Totals struct {
	Subtotal  float64
	WHTAmount float64
	Total     float64
}

// CalculateTotals cleans the line items and computes the invoice money
// block. Items with an empty description or non-positive amount are
// dropped, survivors are renumbered from 1, and an item with a zero amount
// but quantity and unit price gets amount = round2(quantity * unitPrice).
// WHT is withheld from the payout: total = subtotal - wht.
func CalculateTotals(items []model.InvoiceItem, whtRate float64) ([]model.InvoiceItem, Totals) {
	cleaned := make([]model.InvoiceItem, 0, len(items))
	subtotal := 0.0
	for _, item := range items {
		if item.Amount == 0 && item.Quantity > 0 && item.UnitPrice > 0 {
			item.Amount = round2(item.Quantity * item.UnitPrice)
		}
		if item.Description == "" || item.Amount <= 0 {
			continue
		}
		item.LineNo = len(cleaned) + 1
		cleaned = append(cleaned, item)
		subtotal += item.Amount
	}

	subtotal = round2(subtotal)
	wht := round2(subtotal * whtRate / 100)
	return cleaned, Totals{
		Subtotal:  subtotal,
		WHTAmount: wht,
		Total:     round2(subtotal - wht),
	}
}

// round2 rounds half away from zero to 2 decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
