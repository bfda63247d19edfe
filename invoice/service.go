package invoice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

// Service wires invoice creation end to end: totals, persistence, HTML
// render, and the PDF drop into the invoices directory.
type Service struct {
	db          *sqlx.DB
	loc         *time.Location
	invoicesDir string
}

func NewService(db *sqlx.DB, loc *time.Location, invoicesDir string) *Service {
	return &Service{db: db, loc: loc, invoicesDir: invoicesDir}
}

// CreateRequest describes one invoice to generate. Zero values fall back:
// blank number to the venue-local YYYYMM sequence, blank date to today,
// nil WHT rate to the default_wht_rate setting, and empty items to the
// supplier's default line when one is configured.
type CreateRequest struct {
	SupplierID    int
	SupplierName  string
	InvoiceNumber string
	InvoiceDate   string
	WHTRate       *float64
	Items         []model.InvoiceItem
}

// Create computes totals, persists the invoice with its items, and prints
// the PDF. Totals are always recomputed here; client-sent money fields are
// ignored. The invoice row survives a failed PDF print with an empty
// pdf_path so the print can be retried.
func (s *Service) Create(ctx context.Context, req CreateRequest) (model.Invoice, error) {
	supplier, err := s.resolveSupplier(req)
	if err != nil {
		return model.Invoice{}, err
	}

	settings, err := database.GetAllSettings(s.db)
	if err != nil {
		return model.Invoice{}, err
	}

	rate := s.defaultWHTRate(settings)
	if req.WHTRate != nil {
		rate = *req.WHTRate
	}
	if rate < 0 || rate > 100 {
		return model.Invoice{}, fmt.Errorf("wht rate must be between 0 and 100, got %.2f", rate)
	}

	items := req.Items
	if len(items) == 0 && supplier.DefaultDescription != "" && supplier.DefaultUnitPrice > 0 {
		items = []model.InvoiceItem{{
			Description: supplier.DefaultDescription,
			Quantity:    1,
			UnitPrice:   supplier.DefaultUnitPrice,
		}}
	}
	items, totals := CalculateTotals(items, rate)
	if len(items) == 0 {
		return model.Invoice{}, fmt.Errorf("invoice has no valid line items")
	}

	invoiceDate := req.InvoiceDate
	if invoiceDate == "" {
		invoiceDate = time.Now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", invoiceDate); err != nil {
		return model.Invoice{}, fmt.Errorf("invoice date must be YYYY-MM-DD: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	number := req.InvoiceNumber
	if number == "" {
		base := time.Now().In(s.loc).Format("200601")
		number, err = database.NextInvoiceNumberInTx(tx, base)
		if err != nil {
			return model.Invoice{}, err
		}
	}

	inv := model.Invoice{
		InvoiceNumber: number,
		SupplierID:    supplier.ID,
		InvoiceDate:   invoiceDate,
		WHTRate:       rate,
		Subtotal:      totals.Subtotal,
		WHTAmount:     totals.WHTAmount,
		Total:         totals.Total,
		CreatedAt:     database.UTCNow(),
	}
	inv.ID, err = database.InsertInvoiceInTx(tx, inv)
	if err != nil {
		return model.Invoice{}, err
	}
	if err := database.InsertInvoiceItemsInTx(tx, inv.ID, items); err != nil {
		return model.Invoice{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Invoice{}, fmt.Errorf("failed to commit invoice: %w", err)
	}

	html, err := s.RenderHTML(inv, supplier, items, settings)
	if err != nil {
		return inv, err
	}
	pdfPath := filepath.Join(s.invoicesDir, PDFFileName(supplier.Name, inv.InvoiceNumber))
	if err := GeneratePDF(ctx, html, pdfPath); err != nil {
		return inv, err
	}
	if err := database.UpdateInvoicePDFPath(s.db, inv.ID, pdfPath); err != nil {
		return inv, err
	}
	inv.PDFPath = pdfPath
	return inv, nil
}

// RenderHTML builds the printable invoice document.
func (s *Service) RenderHTML(inv model.Invoice, supplier model.Supplier, items []model.InvoiceItem, settings map[string]string) ([]byte, error) {
	dateDisplay := inv.InvoiceDate
	if t, err := time.Parse("2006-01-02", inv.InvoiceDate); err == nil {
		dateDisplay = t.Format("02/01/2006")
	}
	return Render(RenderData{
		Venue:       VenueFromSettings(settings),
		Supplier:    supplier,
		Invoice:     inv,
		Items:       items,
		Bank:        BankFromSettings(settings),
		DateDisplay: dateDisplay,
	})
}

func (s *Service) resolveSupplier(req CreateRequest) (model.Supplier, error) {
	if req.SupplierID != 0 {
		return database.GetSupplierByID(s.db, req.SupplierID)
	}
	if req.SupplierName != "" {
		return database.GetSupplierByName(s.db, req.SupplierName)
	}
	return model.Supplier{}, fmt.Errorf("supplier id or name is required")
}

func (s *Service) defaultWHTRate(settings map[string]string) float64 {
	if v, err := strconv.ParseFloat(settings["default_wht_rate"], 64); err == nil {
		return v
	}
	return 3.0
}

// PDFInfo is one generated file in the invoices directory.
type PDFInfo struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"modTime"`
	Size    int64     `json:"size"`
}

// RecentPDFs lists the newest n generated PDFs by modification time.
func RecentPDFs(dir string, n int) ([]PDFInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PDFInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read invoices directory: %w", err)
	}

	var pdfs []PDFInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pdf" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		pdfs = append(pdfs, PDFInfo{Name: entry.Name(), ModTime: info.ModTime(), Size: info.Size()})
	}

	sort.Slice(pdfs, func(i, j int) bool { return pdfs[i].ModTime.After(pdfs[j].ModTime) })
	if n > 0 && len(pdfs) > n {
		pdfs = pdfs[:n]
	}
	return pdfs, nil
}
