package posreview

import (
	"fmt"
	"math"
	"sort"
	"time"

	"lengolf/database"
	"lengolf/timeclock"
)

// ReconcileRow compares one settlement date against the POS card takings.
type ReconcileRow struct {
	Date            string  `json:"date"`
	POSCardTotal    float64 `json:"posCardTotal"`
	SettlementGross float64 `json:"settlementGross"`
	Variance        float64 `json:"variance"`
	OK              bool    `json:"ok"`
}

// ReconcileOptions selects which payment methods count as card takings and
// the variance the processor is allowed before a row is flagged.
type ReconcileOptions struct {
	CardMethods  []string
	ToleranceTHB float64
}

// DefaultReconcileOptions covers the methods the venue's terminal reports.
func DefaultReconcileOptions() ReconcileOptions {
	return ReconcileOptions{
		CardMethods:  []string{"card", "visa", "mastercard"},
		ToleranceTHB: 1.00,
	}
}

// Reconcile matches settlement rows against POS card-method totals per
// venue-local date. Voided receipts never contribute. The report is
// read-only; variances are for a human to chase with the processor.
func Reconcile(db database.DBTX, rows []SettlementRow, loc *time.Location, opts ReconcileOptions) ([]ReconcileRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no settlement rows to reconcile")
	}
	if len(opts.CardMethods) == 0 {
		opts.CardMethods = DefaultReconcileOptions().CardMethods
	}
	if opts.ToleranceTHB <= 0 {
		opts.ToleranceTHB = DefaultReconcileOptions().ToleranceTHB
	}
	isCard := make(map[string]bool, len(opts.CardMethods))
	for _, m := range opts.CardMethods {
		isCard[m] = true
	}

	minDate, maxDate := rows[0].Date, rows[0].Date
	for _, r := range rows[1:] {
		if r.Date < minDate {
			minDate = r.Date
		}
		if r.Date > maxDate {
			maxDate = r.Date
		}
	}

	fromUTC, toUTC, err := timeclock.WindowUTC(minDate, maxDate, loc)
	if err != nil {
		return nil, err
	}
	txns, err := database.GetPOSTransactionsBetween(db, fromUTC, toUTC)
	if err != nil {
		return nil, err
	}

	cardByDate := make(map[string]float64)
	for _, t := range txns {
		if t.IsVoided || !isCard[t.PaymentMethod] {
			continue
		}
		txnTime, err := time.Parse(time.RFC3339, t.TxnTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse txn time %q for receipt %s: %w", t.TxnTime, t.ReceiptNumber, err)
		}
		cardByDate[txnTime.In(loc).Format("2006-01-02")] += t.Total
	}

	report := make([]ReconcileRow, 0, len(rows))
	for _, r := range rows {
		posTotal := cardByDate[r.Date]
		variance := posTotal - r.Gross
		report = append(report, ReconcileRow{
			Date:            r.Date,
			POSCardTotal:    posTotal,
			SettlementGross: r.Gross,
			Variance:        variance,
			OK:              math.Abs(variance) <= opts.ToleranceTHB,
		})
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Date < report[j].Date })
	return report, nil
}
