package posreview

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

// SummaryHandler serves daily summaries: ?date= for one day, ?from=&to=
// for a range. Defaults to today in the venue timezone.
func SummaryHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, to := q.Get("from"), q.Get("to")
		if date := q.Get("date"); date != "" {
			from, to = date, date
		}
		if from == "" || to == "" {
			today := time.Now().In(loc).Format("2006-01-02")
			from, to = today, today
		}

		summaries, err := RangeSummary(db, from, to, loc)
		if err != nil {
			http.Error(w, "Failed to build sales summary", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

// AnomaliesHandler serves ?from=&to= anomaly reports, defaulting to today.
func AnomaliesHandler(db *sqlx.DB, loc *time.Location, opts AnomalyOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, to := q.Get("from"), q.Get("to")
		if from == "" || to == "" {
			today := time.Now().In(loc).Format("2006-01-02")
			from, to = today, today
		}

		anomalies, err := Anomalies(db, from, to, loc, opts)
		if err != nil {
			http.Error(w, "Failed to scan for anomalies", http.StatusInternalServerError)
			return
		}
		if anomalies == nil {
			anomalies = []Anomaly{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anomalies)
	}
}

// ReconcileHandler accepts a multipart settlement workbook upload under the
// "file" field and returns the reconciliation report.
func ReconcileHandler(db *sqlx.DB, loc *time.Location, opts ReconcileOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Invalid multipart upload", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing settlement file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read settlement file", http.StatusInternalServerError)
			return
		}
		rows, err := ReadSettlement(header.Filename, data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		report, err := Reconcile(db, rows, loc, opts)
		if err != nil {
			http.Error(w, "Failed to reconcile settlement", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}
