package notify

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"lengolf/model"
)

var thb = message.NewPrinter(language.English)

// THB formats an amount with thousands grouping, e.g. ฿1,234.50.
func THB(v float64) string {
	return thb.Sprintf("฿%.2f", v)
}

// PayrollFinalizedMessage summarizes a finalized run for the managers group.
func PayrollFinalizedMessage(run model.PayrollRun, lines []model.PayrollLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payroll %s finalized\n", run.Month)
	fmt.Fprintf(&b, "Staff paid: %d\n", len(lines))
	fmt.Fprintf(&b, "Total gross: %s", THB(run.TotalGross))

	flagged := 0
	for _, line := range lines {
		if line.GrossPay == 0 {
			flagged++
		}
	}
	if flagged > 0 {
		fmt.Fprintf(&b, "\n%d line(s) with zero gross need review", flagged)
	}
	return b.String()
}

// DailySalesMessage is the end-of-day summary push.
func DailySalesMessage(s model.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales %s\n", s.Date)
	fmt.Fprintf(&b, "Receipts: %d (%d voided)\n", s.TxnCount, s.VoidCount)
	fmt.Fprintf(&b, "Net: %s", THB(s.Net))
	if len(s.ByMethod) > 0 {
		methods := make([]string, 0, len(s.ByMethod))
		for m := range s.ByMethod {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			fmt.Fprintf(&b, "\n  %s: %s", m, THB(s.ByMethod[m]))
		}
	}
	return b.String()
}

// LowStockItem is one product below its reorder threshold.
type LowStockItem struct {
	Name      string
	Quantity  float64
	Unit      string
	Threshold float64
	DaysLeft  float64
	// HasDaysLeft is false when usage cannot be estimated yet.
	HasDaysLeft bool
}

// LowStockMessage lists products that need reordering.
func LowStockMessage(items []LowStockItem) string {
	if len(items) == 0 {
		return "Stock check: nothing below reorder level"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock: %d product(s)\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s: %.4g %s (reorder at %.4g)", item.Name, item.Quantity, item.Unit, item.Threshold)
		if item.HasDaysLeft {
			fmt.Fprintf(&b, ", ~%.1f days left", item.DaysLeft)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
