package coaching

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// SlotsHandler serves GET ?coach_id=&date=&duration= open slot listings.
func SlotsHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		coachID, err := strconv.Atoi(q.Get("coach_id"))
		if err != nil {
			http.Error(w, "coach_id must be an integer", http.StatusBadRequest)
			return
		}
		date := q.Get("date")
		if date == "" {
			date = time.Now().In(loc).Format("2006-01-02")
		}
		duration := 60
		if v := q.Get("duration"); v != "" {
			duration, err = strconv.Atoi(v)
			if err != nil || duration <= 0 {
				http.Error(w, "duration must be a positive integer", http.StatusBadRequest)
				return
			}
		}

		slots, err := OpenSlots(db, coachID, date, duration)
		if err != nil {
			http.Error(w, "Failed to compute open slots", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(slots)
	}
}

type bookingPayload struct {
	CoachID       int    `json:"coachId"`
	BookingDate   string `json:"bookingDate"`
	StartTime     string `json:"startTime"`
	DurationMin   int    `json:"durationMin"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
}

// BookingsHandler creates bookings (POST).
func BookingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bookingPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		booking, err := Book(db, BookingRequest{
			CoachID:       payload.CoachID,
			BookingDate:   payload.BookingDate,
			StartTime:     payload.StartTime,
			DurationMin:   payload.DurationMin,
			CustomerName:  payload.CustomerName,
			CustomerPhone: payload.CustomerPhone,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrSlotTaken):
				http.Error(w, "Slot is already booked", http.StatusConflict)
			case errors.Is(err, ErrOutsideWindow):
				http.Error(w, "Requested time is outside the coach's availability", http.StatusBadRequest)
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "Coach not found", http.StatusNotFound)
			default:
				http.Error(w, err.Error(), http.StatusBadRequest)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(booking)
	}
}

// CancelHandler cancels one booking by id.
func CancelHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := Cancel(db, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "No active booking with that id", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to cancel booking", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "cancelled"})
	}
}

// DoubleBookingsHandler serves GET ?from=&to= overlap scans, defaulting to
// today.
func DoubleBookingsHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, to := q.Get("from"), q.Get("to")
		if from == "" || to == "" {
			today := time.Now().In(loc).Format("2006-01-02")
			from, to = today, today
		}

		doubles, err := DoubleBookings(db, from, to)
		if err != nil {
			http.Error(w, "Failed to scan for double bookings", http.StatusInternalServerError)
			return
		}
		if doubles == nil {
			doubles = []DoubleBooking{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doubles)
	}
}
