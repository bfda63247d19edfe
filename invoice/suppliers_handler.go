package invoice

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

// SuppliersHandler lists suppliers (GET) or creates one (POST). Tax ids
// must be unique across suppliers; a duplicate is rejected rather than
// silently merged.
func SuppliersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			suppliers, err := database.GetAllSuppliers(db)
			if err != nil {
				http.Error(w, "Failed to list suppliers", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(suppliers)

		case http.MethodPost:
			var s model.Supplier
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			s.Name = strings.TrimSpace(s.Name)
			if s.Name == "" {
				http.Error(w, "Supplier name is required", http.StatusBadRequest)
				return
			}
			exists, err := database.CheckSupplierTaxIDExists(db, s.TaxID, 0)
			if err != nil {
				http.Error(w, "Failed to check tax id", http.StatusInternalServerError)
				return
			}
			if exists {
				http.Error(w, "Another supplier already uses this tax id", http.StatusConflict)
				return
			}

			id, err := database.CreateSupplier(db, s)
			if err != nil {
				http.Error(w, "Failed to create supplier", http.StatusInternalServerError)
				return
			}
			s.ID = id
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(s)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// SupplierItemHandler updates one supplier (PUT /api/suppliers/{id}).
func SupplierItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id <= 0 {
			http.Error(w, "Invalid supplier id", http.StatusBadRequest)
			return
		}

		var s model.Supplier
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		s.ID = id
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			http.Error(w, "Supplier name is required", http.StatusBadRequest)
			return
		}
		exists, err := database.CheckSupplierTaxIDExists(db, s.TaxID, id)
		if err != nil {
			http.Error(w, "Failed to check tax id", http.StatusInternalServerError)
			return
		}
		if exists {
			http.Error(w, "Another supplier already uses this tax id", http.StatusConflict)
			return
		}

		if err := database.UpdateSupplier(db, s); err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Supplier not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to update supplier", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
	}
}
