package posreview

import (
	"fmt"
	"math"
	"sort"
	"time"

	"lengolf/database"
	"lengolf/timeclock"
)

// Anomaly kinds.
const (
	AnomalyDuplicateReceipt = "duplicate_receipt"
	AnomalyNegativeTotal    = "negative_total"
	AnomalyVATMismatch      = "vat_mismatch"
	AnomalyVoidNonzero      = "void_nonzero"
	AnomalyOutsideHours     = "outside_hours"
)

// vatTolerance absorbs rounding done by the POS when it derived the total.
const vatTolerance = 0.01

// Anomaly is one suspicious receipt found during review.
type Anomaly struct {
	Kind          string  `json:"kind"`
	ReceiptNumber string  `json:"receiptNumber"`
	Date          string  `json:"date"`
	Detail        string  `json:"detail"`
	Amount        float64 `json:"amount"`
}

// AnomalyOptions carries the venue hours used for the outside_hours check.
// Clock strings are venue-local "15:04".
type AnomalyOptions struct {
	VenueOpen  string
	VenueClose string
}

// DefaultAnomalyOptions matches the venue's published hours.
func DefaultAnomalyOptions() AnomalyOptions {
	return AnomalyOptions{VenueOpen: "10:00", VenueClose: "23:00"}
}

// Anomalies scans receipts in the inclusive venue-local date range and
// reports duplicates, negative totals, VAT math that does not add up,
// voided rows still carrying money, and punches outside venue hours.
func Anomalies(db database.DBTX, from, to string, loc *time.Location, opts AnomalyOptions) ([]Anomaly, error) {
	if opts.VenueOpen == "" || opts.VenueClose == "" {
		defaults := DefaultAnomalyOptions()
		if opts.VenueOpen == "" {
			opts.VenueOpen = defaults.VenueOpen
		}
		if opts.VenueClose == "" {
			opts.VenueClose = defaults.VenueClose
		}
	}
	openMin, err := clockMinutes(opts.VenueOpen)
	if err != nil {
		return nil, fmt.Errorf("invalid venue open time %q: %w", opts.VenueOpen, err)
	}
	closeMin, err := clockMinutes(opts.VenueClose)
	if err != nil {
		return nil, fmt.Errorf("invalid venue close time %q: %w", opts.VenueClose, err)
	}

	fromUTC, toUTC, err := timeclock.WindowUTC(from, to, loc)
	if err != nil {
		return nil, err
	}
	txns, err := database.GetPOSTransactionsBetween(db, fromUTC, toUTC)
	if err != nil {
		return nil, err
	}

	var anomalies []Anomaly
	seenReceipts := make(map[string]bool)
	for _, t := range txns {
		txnTime, err := time.Parse(time.RFC3339, t.TxnTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse txn time %q for receipt %s: %w", t.TxnTime, t.ReceiptNumber, err)
		}
		local := txnTime.In(loc)
		date := local.Format("2006-01-02")

		if t.IsVoided {
			if t.Total != 0 {
				anomalies = append(anomalies, Anomaly{
					Kind:          AnomalyVoidNonzero,
					ReceiptNumber: t.ReceiptNumber,
					Date:          date,
					Detail:        "voided receipt still carries a total",
					Amount:        t.Total,
				})
			}
			continue
		}

		if seenReceipts[t.ReceiptNumber] {
			anomalies = append(anomalies, Anomaly{
				Kind:          AnomalyDuplicateReceipt,
				ReceiptNumber: t.ReceiptNumber,
				Date:          date,
				Detail:        "receipt number appears more than once",
				Amount:        t.Total,
			})
		}
		seenReceipts[t.ReceiptNumber] = true

		if t.Total < 0 {
			anomalies = append(anomalies, Anomaly{
				Kind:          AnomalyNegativeTotal,
				ReceiptNumber: t.ReceiptNumber,
				Date:          date,
				Detail:        "negative total on a non-void receipt",
				Amount:        t.Total,
			})
		}

		if diff := t.Subtotal - t.Discount + t.VAT - t.Total; math.Abs(diff) > vatTolerance {
			anomalies = append(anomalies, Anomaly{
				Kind:          AnomalyVATMismatch,
				ReceiptNumber: t.ReceiptNumber,
				Date:          date,
				Detail:        fmt.Sprintf("subtotal - discount + vat differs from total by %.2f", diff),
				Amount:        diff,
			})
		}

		minuteOfDay := local.Hour()*60 + local.Minute()
		if minuteOfDay < openMin || minuteOfDay > closeMin {
			anomalies = append(anomalies, Anomaly{
				Kind:          AnomalyOutsideHours,
				ReceiptNumber: t.ReceiptNumber,
				Date:          date,
				Detail:        fmt.Sprintf("rung up at %s, outside %s-%s", local.Format("15:04"), opts.VenueOpen, opts.VenueClose),
				Amount:        t.Total,
			})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].Date != anomalies[j].Date {
			return anomalies[i].Date < anomalies[j].Date
		}
		if anomalies[i].ReceiptNumber != anomalies[j].ReceiptNumber {
			return anomalies[i].ReceiptNumber < anomalies[j].ReceiptNumber
		}
		return anomalies[i].Kind < anomalies[j].Kind
	})
	return anomalies, nil
}

func clockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
