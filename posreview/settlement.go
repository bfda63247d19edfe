package posreview

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SettlementRow is one line of the card processor's settlement workbook.
type SettlementRow struct {
	Date  string  `json:"date"`
	Gross float64 `json:"gross"`
	Fee   float64 `json:"fee"`
	Net   float64 `json:"net"`
}

// ReadSettlement parses the processor's settlement workbook. Legacy .xls
// exports must hold a single worksheet; anything else is read as .xlsx via
// the first sheet. The first row is treated as a header, followed by
// date/gross/fee/net rows.
func ReadSettlement(filename string, data []byte) ([]SettlementRow, error) {
	rows, err := readWorkbookRows(filename, data)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("settlement workbook has no data rows")
	}

	var settlements []SettlementRow
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		date, ok := parseSettlementDate(cellValue(row, 0))
		if !ok {
			return nil, fmt.Errorf("row %d: unrecognized settlement date %q", i+2, cellValue(row, 0))
		}
		gross, err := parseAmount(cellValue(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad gross amount: %w", i+2, err)
		}
		fee, err := parseAmount(cellValue(row, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad fee amount: %w", i+2, err)
		}
		net, err := parseAmount(cellValue(row, 3))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad net amount: %w", i+2, err)
		}
		settlements = append(settlements, SettlementRow{Date: date, Gross: gross, Fee: fee, Net: net})
	}
	if len(settlements) == 0 {
		return nil, fmt.Errorf("settlement workbook has no data rows")
	}
	return settlements, nil
}

func readWorkbookRows(filename string, data []byte) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("failed to open xls workbook: %w", err)
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, fmt.Errorf("xls settlement file must hold a single worksheet")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx workbook: %w", err)
		}
		defer file.Close()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet %s: %w", sheetName, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

// parseSettlementDate accepts ISO dates, Thai bank day/month/year, and raw
// Excel serials. The serial range guard keeps plain numbers like years from
// being treated as dates.
func parseSettlementDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.Format("2006-01-02"), true
	}
	if t, err := time.Parse("02/01/2006", value); err == nil {
		return t.Format("2006-01-02"), true
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

func parseAmount(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	return amount, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
