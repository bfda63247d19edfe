package inventory

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

type productPayload struct {
	ProductName      string   `json:"productName"`
	Category         string   `json:"category"`
	Unit             string   `json:"unit"`
	ReorderThreshold *float64 `json:"reorderThreshold"`
	SupplierID       *int     `json:"supplierId"`
	IsActive         *bool    `json:"isActive"`
}

func (p productPayload) toModel(id int) model.Product {
	product := model.Product{
		ID:          id,
		ProductName: p.ProductName,
		Category:    p.Category,
		Unit:        p.Unit,
		IsActive:    true,
	}
	if p.ReorderThreshold != nil {
		product.ReorderThreshold = sql.NullFloat64{Float64: *p.ReorderThreshold, Valid: true}
	}
	if p.SupplierID != nil {
		product.SupplierID = sql.NullInt64{Int64: int64(*p.SupplierID), Valid: true}
	}
	if p.IsActive != nil {
		product.IsActive = *p.IsActive
	}
	return product
}

// ProductsHandler lists products (GET ?category=&active=) and creates them
// (POST).
func ProductsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			activeOnly := r.URL.Query().Get("active") != "all"
			products, err := database.GetAllProducts(db, r.URL.Query().Get("category"), activeOnly)
			if err != nil {
				http.Error(w, "Failed to load products", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(products)

		case http.MethodPost:
			var payload productPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if payload.ProductName == "" {
				http.Error(w, "productName is required", http.StatusBadRequest)
				return
			}
			product := payload.toModel(0)
			id, err := database.CreateProduct(db, product)
			if err != nil {
				http.Error(w, "Failed to create product", http.StatusInternalServerError)
				return
			}
			product.ID = id
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(product)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// ProductItemHandler updates one product.
func ProductItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "Product id must be an integer", http.StatusBadRequest)
			return
		}
		var payload productPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		product := payload.toModel(id)
		if err := database.UpdateProduct(db, product); err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Product not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to update product", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(product)
	}
}

type countLine struct {
	ProductID int     `json:"productId"`
	Quantity  float64 `json:"quantity"`
	Note      string  `json:"note"`
}

type countsPayload struct {
	CountDate string      `json:"countDate"`
	StaffID   *int        `json:"staffId"`
	Counts    []countLine `json:"counts"`
}

// CountsHandler records a batch of physical counts keyed in together.
func CountsHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload countsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if len(payload.Counts) == 0 {
			http.Error(w, "counts must not be empty", http.StatusBadRequest)
			return
		}

		countDate := payload.CountDate
		if countDate == "" {
			countDate = time.Now().In(loc).Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", countDate); err != nil {
			http.Error(w, "countDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		counts := make([]model.StockCount, 0, len(payload.Counts))
		for _, line := range payload.Counts {
			c := model.StockCount{
				ProductID: line.ProductID,
				CountDate: countDate,
				Quantity:  line.Quantity,
				Note:      line.Note,
			}
			if payload.StaffID != nil {
				c.StaffID = sql.NullInt64{Int64: int64(*payload.StaffID), Valid: true}
			}
			counts = append(counts, c)
		}

		tx, err := db.Beginx()
		if err != nil {
			http.Error(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		if err := database.InsertStockCountsInTx(tx, counts); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := tx.Commit(); err != nil {
			http.Error(w, "Failed to save counts", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"countDate": countDate,
			"saved":     len(counts),
		})
	}
}

// ReportHandler returns the full usage report.
func ReportHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := Report(db, time.Now(), loc)
		if err != nil {
			http.Error(w, "Failed to build inventory report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}
}

// LowStockHandler returns only products under their reorder threshold.
func LowStockHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := LowStock(db, time.Now(), loc)
		if err != nil {
			http.Error(w, "Failed to build low stock report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}
}
