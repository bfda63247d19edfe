package invoice

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
)

// SettingsHandler exposes the venue identity, bank details and default WHT
// rate used on invoices. GET returns the full key/value map; PUT upserts
// the posted keys atomically.
func SettingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settings, err := database.GetAllSettings(db)
			if err != nil {
				http.Error(w, "Failed to load settings", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(settings)

		case http.MethodPut:
			var settings map[string]string
			if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if len(settings) == 0 {
				http.Error(w, "No settings given", http.StatusBadRequest)
				return
			}
			if rate, ok := settings["default_wht_rate"]; ok {
				v, err := strconv.ParseFloat(rate, 64)
				if err != nil || v < 0 || v > 100 {
					http.Error(w, "default_wht_rate must be a percentage between 0 and 100", http.StatusBadRequest)
					return
				}
			}

			tx, err := db.Beginx()
			if err != nil {
				http.Error(w, "Failed to save settings", http.StatusInternalServerError)
				return
			}
			defer tx.Rollback()
			if err := database.SaveSettingsInTx(tx, settings); err != nil {
				http.Error(w, "Failed to save settings", http.StatusInternalServerError)
				return
			}
			if err := tx.Commit(); err != nil {
				http.Error(w, "Failed to save settings", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]int{"saved": len(settings)})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
