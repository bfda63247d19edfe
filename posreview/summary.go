// Package posreview builds read-only review reports over imported POS
// transactions: daily sales summaries, anomaly listings, and card
// settlement reconciliation. Nothing in this package mutates receipts.
package posreview

import (
	"fmt"
	"sort"
	"time"

	"lengolf/database"
	"lengolf/model"
	"lengolf/timeclock"
)

// DailySummary aggregates one venue-local date.
func DailySummary(db database.DBTX, date string, loc *time.Location) (model.DailySummary, error) {
	summaries, err := RangeSummary(db, date, date, loc)
	if err != nil {
		return model.DailySummary{}, err
	}
	for _, s := range summaries {
		if s.Date == date {
			return s, nil
		}
	}
	return model.DailySummary{Date: date, ByMethod: map[string]float64{}}, nil
}

// RangeSummary buckets transactions by their venue-local date and returns
// one summary per date that has any, ordered by date. Transaction times are
// stored UTC, so a late evening UTC receipt lands on the following local
// date.
func RangeSummary(db database.DBTX, from, to string, loc *time.Location) ([]model.DailySummary, error) {
	fromUTC, toUTC, err := timeclock.WindowUTC(from, to, loc)
	if err != nil {
		return nil, err
	}
	txns, err := database.GetPOSTransactionsBetween(db, fromUTC, toUTC)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*model.DailySummary)
	for _, t := range txns {
		txnTime, err := time.Parse(time.RFC3339, t.TxnTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse txn time %q for receipt %s: %w", t.TxnTime, t.ReceiptNumber, err)
		}
		date := txnTime.In(loc).Format("2006-01-02")
		if date < from || date > to {
			continue
		}
		s, ok := byDate[date]
		if !ok {
			s = &model.DailySummary{Date: date, ByMethod: map[string]float64{}}
			byDate[date] = s
		}

		s.TxnCount++
		if t.IsVoided {
			s.VoidCount++
			continue
		}
		s.Gross += t.Subtotal
		s.Discount += t.Discount
		s.VAT += t.VAT
		s.Net += t.Total
		s.ByMethod[t.PaymentMethod] += t.Total
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	summaries := make([]model.DailySummary, 0, len(dates))
	for _, date := range dates {
		summaries = append(summaries, *byDate[date])
	}
	return summaries, nil
}
