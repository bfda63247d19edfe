package invoice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"lengolf/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var thbPrinter = message.NewPrinter(language.English)

var invoiceTemplate = template.Must(
	template.New("invoice.html").Funcs(template.FuncMap{
		"thb": func(v float64) string { return thbPrinter.Sprintf("%.2f", v) },
	}).ParseFS(templateFS, "templates/invoice.html"))

// VenueDetails is the issuing company block, read from settings.
type VenueDetails struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	TaxID        string
}

// BankDetails is the payment block, read from settings. An empty bank name
// hides the block.
type BankDetails struct {
	BankName      string
	AccountNumber string
}

// RenderData is everything the invoice template needs.
type RenderData struct {
	Venue       VenueDetails
	Supplier    model.Supplier
	Invoice     model.Invoice
	Items       []model.InvoiceItem
	Bank        BankDetails
	DateDisplay string
}

// Render produces the invoice HTML the PDF step prints.
func Render(data RenderData) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render invoice template: %w", err)
	}
	return buf.Bytes(), nil
}

// VenueFromSettings assembles the company block, falling back to the
// seeded defaults for anything missing.
func VenueFromSettings(settings map[string]string) VenueDetails {
	v := VenueDetails{
		Name:         settings["lengolf_name"],
		AddressLine1: settings["lengolf_address_line1"],
		AddressLine2: settings["lengolf_address_line2"],
		TaxID:        settings["lengolf_tax_id"],
	}
	if v.Name == "" {
		v.Name = "LENGOLF CO. LTD."
	}
	return v
}

// BankFromSettings assembles the payment block.
func BankFromSettings(settings map[string]string) BankDetails {
	return BankDetails{
		BankName:      settings["bank_name"],
		AccountNumber: settings["bank_account_number"],
	}
}
