// Package inventory estimates stock usage from periodic physical counts.
// The venue never tracks per-sale depletion; two counts on different dates
// are enough to estimate a daily usage rate and a days-left runway.
package inventory

import (
	"sort"
	"time"

	"lengolf/database"
	"lengolf/model"
)

type ReportRow struct {
	ProductID        int      `json:"productId"`
	ProductName      string   `json:"productName"`
	Category         string   `json:"category"`
	Unit             string   `json:"unit"`
	ReorderThreshold *float64 `json:"reorderThreshold"`
	LatestQty        *float64 `json:"latestQty"`
	CountDate        string   `json:"countDate,omitempty"`
	DaysSinceCount   int      `json:"daysSinceCount"`
	DailyUsage       *float64 `json:"dailyUsage"`
	DaysLeft         *float64 `json:"daysLeft"`
	Low              bool     `json:"low"`
}

// Report builds the usage view for every active product. Usage comes from
// the two most recent counts on distinct dates: rising counts mean a restock
// happened in between, so no rate can be estimated and usage stays null.
func Report(db database.DBTX, now time.Time, loc *time.Location) ([]ReportRow, error) {
	products, err := database.GetAllProducts(db, "", true)
	if err != nil {
		return nil, err
	}
	counts, err := database.GetAllStockCounts(db)
	if err != nil {
		return nil, err
	}

	// Counts arrive ordered newest first per product.
	byProduct := make(map[int][]model.StockCount)
	for _, c := range counts {
		byProduct[c.ProductID] = append(byProduct[c.ProductID], c)
	}

	today := now.In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	rows := make([]ReportRow, 0, len(products))
	for _, p := range products {
		row := ReportRow{
			ProductID:   p.ID,
			ProductName: p.ProductName,
			Category:    p.Category,
			Unit:        p.Unit,
		}
		if p.ReorderThreshold.Valid {
			threshold := p.ReorderThreshold.Float64
			row.ReorderThreshold = &threshold
		}

		history := byProduct[p.ID]
		if len(history) == 0 {
			rows = append(rows, row)
			continue
		}

		latest := history[0]
		qty := latest.Quantity
		row.LatestQty = &qty
		row.CountDate = latest.CountDate
		if countDay, err := time.ParseInLocation("2006-01-02", latest.CountDate, loc); err == nil {
			row.DaysSinceCount = int(today.Sub(countDay).Hours() / 24)
		}

		if row.ReorderThreshold != nil && qty <= *row.ReorderThreshold {
			row.Low = true
		}

		// First count on an earlier date is the comparison point.
		var previous *model.StockCount
		for i := 1; i < len(history); i++ {
			if history[i].CountDate != latest.CountDate {
				previous = &history[i]
				break
			}
		}
		if previous == nil {
			rows = append(rows, row)
			continue
		}

		latestDay, err1 := time.ParseInLocation("2006-01-02", latest.CountDate, loc)
		prevDay, err2 := time.ParseInLocation("2006-01-02", previous.CountDate, loc)
		if err1 != nil || err2 != nil {
			rows = append(rows, row)
			continue
		}
		days := latestDay.Sub(prevDay).Hours() / 24
		if days <= 0 {
			rows = append(rows, row)
			continue
		}

		rate := (previous.Quantity - latest.Quantity) / days
		if rate < 0 {
			rows = append(rows, row)
			continue
		}
		row.DailyUsage = &rate
		if rate > 0 {
			left := qty / rate
			row.DaysLeft = &left
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// LowStock filters the report down to products at or under their reorder
// threshold, tightest runway first. Products never counted are excluded:
// no count is not the same as zero on hand.
func LowStock(db database.DBTX, now time.Time, loc *time.Location) ([]ReportRow, error) {
	rows, err := Report(db, now, loc)
	if err != nil {
		return nil, err
	}
	low := make([]ReportRow, 0)
	for _, row := range rows {
		if row.Low {
			low = append(low, row)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		a, b := low[i].DaysLeft, low[j].DaysLeft
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return low, nil
}
