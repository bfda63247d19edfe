package model

// Supplier defaults pre-fill the invoice form; bank details live in
// settings because they belong to the venue, not the supplier.
type Supplier struct {
	ID                 int     `db:"id" json:"id"`
	Name               string  `db:"name" json:"name"`
	AddressLine1       string  `db:"address_line1" json:"addressLine1"`
	AddressLine2       string  `db:"address_line2" json:"addressLine2"`
	TaxID              string  `db:"tax_id" json:"taxId"`
	DefaultDescription string  `db:"default_description" json:"defaultDescription"`
	DefaultUnitPrice   float64 `db:"default_unit_price" json:"defaultUnitPrice"`
}

// Invoice is one generated supplier invoice. WHTRate is a percentage
// (3.00 means 3%); Subtotal, WHTAmount and Total are THB rounded to 2
// decimals at calculation time.
type Invoice struct {
	ID            int     `db:"id" json:"id"`
	InvoiceNumber string  `db:"invoice_number" json:"invoiceNumber"`
	SupplierID    int     `db:"supplier_id" json:"supplierId"`
	InvoiceDate   string  `db:"invoice_date" json:"invoiceDate"`
	WHTRate       float64 `db:"wht_rate" json:"whtRate"`
	Subtotal      float64 `db:"subtotal" json:"subtotal"`
	WHTAmount     float64 `db:"wht_amount" json:"whtAmount"`
	Total         float64 `db:"total" json:"total"`
	PDFPath       string  `db:"pdf_path" json:"pdfPath"`
	CreatedAt     string  `db:"created_at" json:"createdAt"`
}

type InvoiceItem struct {
	InvoiceID   int     `db:"invoice_id" json:"invoiceId"`
	LineNo      int     `db:"line_no" json:"lineNo"`
	Description string  `db:"description" json:"description"`
	Quantity    float64 `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unitPrice"`
	Amount      float64 `db:"amount" json:"amount"`
}
