package model

// POSTransaction is one receipt imported from the point-of-sale export.
// TxnTime is stored UTC (RFC3339); daily buckets convert to the venue
// timezone first. Money fields keep the POS sign: refunds come in negative.
type POSTransaction struct {
	ID            int     `db:"id" json:"id"`
	ReceiptNumber string  `db:"receipt_number" json:"receiptNumber"`
	TxnTime       string  `db:"txn_time" json:"txnTime"`
	StaffName     string  `db:"staff_name" json:"staffName"`
	PaymentMethod string  `db:"payment_method" json:"paymentMethod"`
	Subtotal      float64 `db:"subtotal" json:"subtotal"`
	Discount      float64 `db:"discount" json:"discount"`
	VAT           float64 `db:"vat" json:"vat"`
	Total         float64 `db:"total" json:"total"`
	IsVoided      bool    `db:"is_voided" json:"isVoided"`
	ItemCount     int     `db:"item_count" json:"itemCount"`
	CreatedAt     string  `db:"created_at" json:"createdAt"`
	UpdatedAt     string  `db:"updated_at" json:"updatedAt"`
}

// DailySummary aggregates one venue-local day of sales. Voided receipts
// count toward TxnCount and VoidCount but contribute nothing to the money
// columns.
type DailySummary struct {
	Date      string             `json:"date"`
	TxnCount  int                `json:"txnCount"`
	VoidCount int                `json:"voidCount"`
	Gross     float64            `json:"gross"`
	Discount  float64            `json:"discount"`
	VAT       float64            `json:"vat"`
	Net       float64            `json:"net"`
	ByMethod  map[string]float64 `json:"byMethod"`
}
