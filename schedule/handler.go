package schedule

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

// SchedulesHandler lists shifts (GET ?from&to&staff_id) and creates them
// (POST).
func SchedulesHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			today := time.Now().In(loc).Format("2006-01-02")
			from := r.URL.Query().Get("from")
			to := r.URL.Query().Get("to")
			if from == "" {
				from = today
			}
			if to == "" {
				to = from
			}
			staffID := 0
			if v := r.URL.Query().Get("staff_id"); v != "" {
				id, err := strconv.Atoi(v)
				if err != nil {
					http.Error(w, "staff_id must be an integer", http.StatusBadRequest)
					return
				}
				staffID = id
			}
			schedules, err := database.GetSchedulesBetween(db, from, to, staffID)
			if err != nil {
				http.Error(w, "Failed to load schedules", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(schedules)

		case http.MethodPost:
			var s model.Schedule
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			created, err := Create(db, s)
			if err != nil {
				writeScheduleError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(created)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// ScheduleItemHandler updates (PUT) or removes (DELETE) one shift.
func ScheduleItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "Schedule id must be an integer", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodPut:
			var s model.Schedule
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			s.ID = id
			if err := Update(db, s); err != nil {
				writeScheduleError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(s)

		case http.MethodDelete:
			if err := database.DeleteSchedule(db, id); err != nil {
				writeScheduleError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// WeekHandler returns the seven-day grid starting at ?start (default: the
// current week's Monday).
func WeekHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		if start == "" {
			now := time.Now().In(loc)
			offset := (int(now.Weekday()) + 6) % 7
			start = now.AddDate(0, 0, -offset).Format("2006-01-02")
		}
		grid, err := WeekGrid(db, start, loc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(grid)
	}
}

// ConflictsHandler lists overlapping planned shifts in a range.
func ConflictsHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := time.Now().In(loc).Format("2006-01-02")
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if from == "" {
			from = today
		}
		if to == "" {
			to = from
		}
		conflicts, err := Conflicts(db, from, to)
		if err != nil {
			http.Error(w, "Failed to scan for conflicts", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conflicts)
	}
}

// VarianceHandler reports plan-versus-actual for one month.
func VarianceHandler(db *sqlx.DB, loc *time.Location, opts VarianceOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if month == "" {
			month = time.Now().In(loc).Format("2006-01")
		}
		rows, err := Variance(db, month, loc, opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}
}

func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case err == sql.ErrNoRows:
		http.Error(w, "Schedule not found", http.StatusNotFound)
	case errors.Is(err, ErrOverlap):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
