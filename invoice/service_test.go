package invoice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lengolf/database"
	"lengolf/model"
)

var bangkok = time.FixedZone("ICT", 7*3600)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(db)
	require.NoError(t, err)
	return db
}

func addSupplier(t *testing.T, db *sqlx.DB, s model.Supplier) int {
	t.Helper()
	id, err := database.CreateSupplier(db, s)
	require.NoError(t, err)
	return id
}

func TestCalculateTotals(t *testing.T) {
	items, totals := CalculateTotals([]model.InvoiceItem{
		{Description: "Pro shop restock", Amount: 8000},
		{Description: "Range balls", Quantity: 2, UnitPrice: 325},
		{Description: "", Amount: 999},
		{Description: "Credit note", Amount: -50},
	}, 3.0)

	require.Len(t, items, 2, "blank and non-positive lines are dropped")
	assert.Equal(t, 1, items[0].LineNo)
	assert.Equal(t, 2, items[1].LineNo)
	assert.Equal(t, 650.0, items[1].Amount, "amount derived from quantity and unit price")

	assert.Equal(t, 8650.0, totals.Subtotal)
	assert.Equal(t, 259.5, totals.WHTAmount)
	assert.Equal(t, 8390.5, totals.Total)
}

func TestCalculateTotals_ZeroRate(t *testing.T) {
	_, totals := CalculateTotals([]model.InvoiceItem{{Description: "Ice", Amount: 120}}, 0)
	assert.Equal(t, 120.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.WHTAmount)
	assert.Equal(t, 120.0, totals.Total)
}

func TestCalculateTotals_WHTRoundsHalfUp(t *testing.T) {
	// 2.5% of 85 is 2.125, which rounds away from zero to 2.13.
	_, totals := CalculateTotals([]model.InvoiceItem{{Description: "Ice", Amount: 85}}, 2.5)
	assert.Equal(t, 2.13, totals.WHTAmount)
	assert.Equal(t, 82.87, totals.Total)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Khun_Som_Laundry", SanitizeFilename("Khun Som / Laundry"))
	assert.Equal(t, "2025-07", SanitizeFilename("2025-07"))
	assert.Equal(t, "ice.co.th", SanitizeFilename("ice.co.th"))
	assert.Equal(t, "x", SanitizeFilename("///x///"))
}

func TestPDFFileName(t *testing.T) {
	assert.Equal(t, "LENGOLF_Khun_Som_Inv_202507-2.pdf", PDFFileName("Khun Som", "202507-2"))
}

func TestRender(t *testing.T) {
	html, err := Render(RenderData{
		Venue: VenueDetails{
			Name:         "LENGOLF CO. LTD.",
			AddressLine1: "540 Mercury Ville, 4th Floor",
			AddressLine2: "Ploenchit Rd, Bangkok 10330",
			TaxID:        "0105560000000",
		},
		Supplier: model.Supplier{Name: "Khun Som Laundry", TaxID: "1234567890123"},
		Invoice: model.Invoice{
			InvoiceNumber: "202507-2",
			InvoiceDate:   "2025-07-15",
			WHTRate:       3,
			Subtotal:      12500,
			WHTAmount:     375,
			Total:         12125,
		},
		Items: []model.InvoiceItem{
			{LineNo: 1, Description: "Towel service July", Amount: 12500},
		},
		Bank:        BankDetails{BankName: "Kasikorn Bank", AccountNumber: "123-4-56789-0"},
		DateDisplay: "15/07/2025",
	})
	require.NoError(t, err)

	doc := string(html)
	assert.Contains(t, doc, "Invoice 202507-2")
	assert.Contains(t, doc, "Khun Som Laundry")
	assert.Contains(t, doc, "Towel service July")
	assert.Contains(t, doc, "12,500.00", "amounts carry thousand separators")
	assert.Contains(t, doc, "Withholding Tax (3.00%)")
	assert.Contains(t, doc, "-375.00")
	assert.Contains(t, doc, "Total Payable")
	assert.Contains(t, doc, "12,125.00")
	assert.Contains(t, doc, "Kasikorn Bank")
	assert.Contains(t, doc, "15/07/2025")
}

func TestRender_NoBankBlock(t *testing.T) {
	html, err := Render(RenderData{
		Venue:       VenueDetails{Name: "LENGOLF CO. LTD."},
		Supplier:    model.Supplier{Name: "Khun Som"},
		Invoice:     model.Invoice{InvoiceNumber: "202507-1"},
		Items:       []model.InvoiceItem{{LineNo: 1, Description: "Ice", Amount: 120}},
		DateDisplay: "15/07/2025",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "Payment Details")
}

func TestVenueFromSettings_Fallback(t *testing.T) {
	v := VenueFromSettings(map[string]string{})
	assert.Equal(t, "LENGOLF CO. LTD.", v.Name)

	v = VenueFromSettings(map[string]string{"lengolf_name": "LENGOLF BKK CO. LTD."})
	assert.Equal(t, "LENGOLF BKK CO. LTD.", v.Name)
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, bangkok, t.TempDir())
	supplier := addSupplier(t, db, model.Supplier{Name: "Khun Som"})
	item := model.InvoiceItem{Description: "Ice", Amount: 120}

	_, err := svc.Create(context.Background(), CreateRequest{Items: []model.InvoiceItem{item}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier id or name is required")

	_, err = svc.Create(context.Background(), CreateRequest{SupplierID: supplier})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid line items")

	rate := 120.0
	_, err = svc.Create(context.Background(), CreateRequest{
		SupplierID: supplier, WHTRate: &rate, Items: []model.InvoiceItem{item},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wht rate must be between 0 and 100")

	_, err = svc.Create(context.Background(), CreateRequest{
		SupplierID: supplier, InvoiceDate: "July 15", Items: []model.InvoiceItem{item},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestRecentPDFs(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, when time.Time) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
		require.NoError(t, os.Chtimes(path, when, when))
	}
	base := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	write("LENGOLF_A_Inv_202507-1.pdf", base)
	write("LENGOLF_B_Inv_202507-2.pdf", base.Add(time.Hour))
	write("LENGOLF_C_Inv_202507-3.pdf", base.Add(2*time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	pdfs, err := RecentPDFs(dir, 2)
	require.NoError(t, err)
	require.Len(t, pdfs, 2)
	assert.Equal(t, "LENGOLF_C_Inv_202507-3.pdf", pdfs[0].Name)
	assert.Equal(t, "LENGOLF_B_Inv_202507-2.pdf", pdfs[1].Name)
}

func TestRecentPDFs_MissingDirIsEmpty(t *testing.T) {
	pdfs, err := RecentPDFs(filepath.Join(t.TempDir(), "never-made"), 5)
	require.NoError(t, err)
	assert.Empty(t, pdfs)
}
