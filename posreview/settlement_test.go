package posreview

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func settlementWorkbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadSettlement_DateAndAmountFormats(t *testing.T) {
	data := settlementWorkbook(t,
		[]any{"Date", "Gross", "Fee", "Net"},
		[]any{"2025-07-01", "12,345.50", "305.20", "12,040.30"},
		// Raw Excel serial for 2025-07-02, the way the processor's
		// export usually arrives.
		[]any{45840, 8000.0, 200.0, 7800.0},
		[]any{"03/07/2025", "5,000", "125", "4,875"},
	)

	rows, err := ReadSettlement("settlement.xlsx", data)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, SettlementRow{Date: "2025-07-01", Gross: 12345.50, Fee: 305.20, Net: 12040.30}, rows[0])
	assert.Equal(t, SettlementRow{Date: "2025-07-02", Gross: 8000, Fee: 200, Net: 7800}, rows[1])
	assert.Equal(t, SettlementRow{Date: "2025-07-03", Gross: 5000, Fee: 125, Net: 4875}, rows[2])
}

func TestReadSettlement_HeaderOnly(t *testing.T) {
	data := settlementWorkbook(t, []any{"Date", "Gross", "Fee", "Net"})

	_, err := ReadSettlement("settlement.xlsx", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestReadSettlement_BadDate(t *testing.T) {
	data := settlementWorkbook(t,
		[]any{"Date", "Gross", "Fee", "Net"},
		[]any{"first of July", "100", "1", "99"},
	)

	_, err := ReadSettlement("settlement.xlsx", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized settlement date")
}

func TestReadSettlement_YearIsNotASerialDate(t *testing.T) {
	data := settlementWorkbook(t,
		[]any{"Date", "Gross", "Fee", "Net"},
		[]any{"2025", "100", "1", "99"},
	)

	_, err := ReadSettlement("settlement.xlsx", data)
	require.Error(t, err)
}

func TestReadSettlement_NotAWorkbook(t *testing.T) {
	_, err := ReadSettlement("settlement.xlsx", []byte("not a workbook"))
	require.Error(t, err)
}

func TestReconcile_FlagsVarianceOutsideTolerance(t *testing.T) {
	db := testDB(t)
	void := sale("R-004", "2025-07-01T08:00:00Z", "card", 200, 14, 214)
	void.IsVoided = true
	seed(t, db,
		sale("R-001", "2025-07-01T05:00:00Z", "card", 1000, 0, 1000),
		sale("R-002", "2025-07-01T06:00:00Z", "visa", 500, 0, 500),
		// Cash and voided card takings never reach the processor.
		sale("R-003", "2025-07-01T07:00:00Z", "cash", 400, 0, 400),
		void,
	)

	report, err := Reconcile(db, []SettlementRow{
		{Date: "2025-07-02", Gross: 800},
		{Date: "2025-07-01", Gross: 1499.50},
	}, bangkok, ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.Equal(t, "2025-07-01", report[0].Date)
	assert.Equal(t, 1500.0, report[0].POSCardTotal)
	assert.Equal(t, 0.5, report[0].Variance)
	assert.True(t, report[0].OK)

	assert.Equal(t, "2025-07-02", report[1].Date)
	assert.Equal(t, 0.0, report[1].POSCardTotal)
	assert.Equal(t, -800.0, report[1].Variance)
	assert.False(t, report[1].OK)
}

func TestReconcile_CustomCardMethods(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		sale("R-001", "2025-07-01T05:00:00Z", "promptpay", 300, 0, 300),
		sale("R-002", "2025-07-01T06:00:00Z", "card", 700, 0, 700),
	)

	report, err := Reconcile(db, []SettlementRow{{Date: "2025-07-01", Gross: 300}},
		bangkok, ReconcileOptions{CardMethods: []string{"promptpay"}, ToleranceTHB: 1})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 300.0, report[0].POSCardTotal)
	assert.True(t, report[0].OK)
}

func TestReconcile_NoRows(t *testing.T) {
	db := testDB(t)
	_, err := Reconcile(db, nil, bangkok, ReconcileOptions{})
	require.Error(t, err)
}
