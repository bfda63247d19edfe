package invoice

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

type createInvoicePayload struct {
	SupplierID    int      `json:"supplierId"`
	SupplierName  string   `json:"supplierName"`
	InvoiceNumber string   `json:"invoiceNumber"`
	InvoiceDate   string   `json:"invoiceDate"`
	WHTRate       *float64 `json:"whtRate"`
	Items         []struct {
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unitPrice"`
		Amount      float64 `json:"amount"`
	} `json:"items"`
}

// InvoicesHandler creates an invoice and returns it with the PDF path
// (POST), or lists invoices (GET ?supplier_id=&month=).
func InvoicesHandler(svc *Service, db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			month := r.URL.Query().Get("month")
			supplierID := 0
			if v := r.URL.Query().Get("supplier_id"); v != "" {
				var err error
				supplierID, err = strconv.Atoi(v)
				if err != nil {
					http.Error(w, "supplier_id must be an integer", http.StatusBadRequest)
					return
				}
			}
			invoices, err := database.ListInvoices(db, supplierID, month)
			if err != nil {
				http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(invoices)

		case http.MethodPost:
			var payload createInvoicePayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			req := CreateRequest{
				SupplierID:    payload.SupplierID,
				SupplierName:  payload.SupplierName,
				InvoiceNumber: payload.InvoiceNumber,
				InvoiceDate:   payload.InvoiceDate,
				WHTRate:       payload.WHTRate,
			}
			for _, item := range payload.Items {
				req.Items = append(req.Items, model.InvoiceItem{
					Description: item.Description,
					Quantity:    item.Quantity,
					UnitPrice:   item.UnitPrice,
					Amount:      item.Amount,
				})
			}

			inv, err := svc.Create(r.Context(), req)
			if err != nil {
				if err == sql.ErrNoRows {
					http.Error(w, "Supplier not found", http.StatusNotFound)
					return
				}
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(inv)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// RecentPDFsHandler lists the ten newest generated PDFs.
func RecentPDFsHandler(invoicesDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pdfs, err := RecentPDFs(invoicesDir, 10)
		if err != nil {
			http.Error(w, "Failed to list invoice pdfs", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pdfs)
	}
}
