package faq

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"

	"lengolf/model"
)

// SearchHandler serves GET /api/faq/search?q=&lang=.
func SearchHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lang := q.Get("lang")
		if lang != "" && lang != "en" && lang != "th" {
			http.Error(w, "lang must be en or th", http.StatusBadRequest)
			return
		}

		entries, err := Search(db, q.Get("q"), lang)
		if err != nil {
			http.Error(w, "Failed to search faq entries", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []model.FAQEntry{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}
