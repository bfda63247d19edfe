package payroll

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"lengolf/model"
)

// BuildWorkbook renders a run into the three-sheet review workbook the
// accountant checks before transfers: Summary (money), Hours, and Flags.
func BuildWorkbook(run model.PayrollRun, lines []model.PayrollLine, flags []model.PayrollFlag) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Summary")
	if _, err := f.NewSheet("Hours"); err != nil {
		return nil, fmt.Errorf("failed to create Hours sheet: %w", err)
	}
	if _, err := f.NewSheet("Flags"); err != nil {
		return nil, fmt.Errorf("failed to create Flags sheet: %w", err)
	}

	summaryHeaders := []interface{}{"Staff ID", "Staff", "Working Days", "Base", "OT", "Holiday", "Allowance", "Service Charge", "Gross"}
	if err := f.SetSheetRow("Summary", "A1", &summaryHeaders); err != nil {
		return nil, fmt.Errorf("failed to write summary header: %w", err)
	}
	var totalGross float64
	for i, line := range lines {
		row := []interface{}{
			line.StaffID, line.StaffName, line.WorkingDays,
			line.BasePay, line.OTPay, line.HolidayPay,
			line.AllowancePay, line.ServiceChargePay, line.GrossPay,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Summary", cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row for staff %d: %w", line.StaffID, err)
		}
		totalGross += line.GrossPay
	}
	totalRow := []interface{}{"", fmt.Sprintf("Total (%s)", run.Month), "", "", "", "", "", "", round2(totalGross)}
	cell := fmt.Sprintf("A%d", len(lines)+2)
	if err := f.SetSheetRow("Summary", cell, &totalRow); err != nil {
		return nil, fmt.Errorf("failed to write summary total: %w", err)
	}

	hoursHeaders := []interface{}{"Staff ID", "Staff", "Regular Hours", "OT Hours", "Holiday Hours", "Working Days"}
	if err := f.SetSheetRow("Hours", "A1", &hoursHeaders); err != nil {
		return nil, fmt.Errorf("failed to write hours header: %w", err)
	}
	for i, line := range lines {
		row := []interface{}{
			line.StaffID, line.StaffName,
			line.RegularHours, line.OTHours, line.HolidayHours, line.WorkingDays,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Hours", cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write hours row for staff %d: %w", line.StaffID, err)
		}
	}

	flagHeaders := []interface{}{"Staff ID", "Kind", "Date", "Detail"}
	if err := f.SetSheetRow("Flags", "A1", &flagHeaders); err != nil {
		return nil, fmt.Errorf("failed to write flags header: %w", err)
	}
	for i, flag := range flags {
		row := []interface{}{flag.StaffID, flag.Kind, flag.Date, flag.Detail}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Flags", cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write flag row: %w", err)
		}
	}

	return f, nil
}
