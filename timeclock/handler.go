package timeclock

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lengolf/database"
	"lengolf/model"

	"github.com/jmoiron/sqlx"
)

// PunchPayload is the clock terminal request body. EntryTime is optional
// RFC3339 UTC for back-filled punches; when empty the server clock is used.
type PunchPayload struct {
	StaffID   int    `json:"staffId"`
	Action    string `json:"action"`
	Note      string `json:"note"`
	EntryTime string `json:"entryTime"`
}

type punchResponse struct {
	Entry     model.TimeEntry `json:"entry"`
	StaffName string          `json:"staffName"`
	LocalTime string          `json:"localTime"`
}

// PunchHandler records one clock_in or clock_out.
func PunchHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload PunchPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if payload.Action != model.ActionClockIn && payload.Action != model.ActionClockOut {
			http.Error(w, fmt.Sprintf("Unknown action %q", payload.Action), http.StatusBadRequest)
			return
		}

		staff, err := database.GetStaffByID(db, payload.StaffID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Staff not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to look up staff", http.StatusInternalServerError)
			return
		}
		if !staff.IsActive {
			http.Error(w, fmt.Sprintf("Staff %s is inactive", staff.StaffName), http.StatusConflict)
			return
		}

		entryTime := payload.EntryTime
		if entryTime == "" {
			entryTime = database.UTCNow()
		} else {
			parsed, err := time.Parse(time.RFC3339, entryTime)
			if err != nil {
				http.Error(w, "entryTime must be RFC3339", http.StatusBadRequest)
				return
			}
			entryTime = parsed.UTC().Format(time.RFC3339)
		}

		entry, err := database.InsertTimeEntry(db, model.TimeEntry{
			StaffID:   payload.StaffID,
			Action:    payload.Action,
			EntryTime: entryTime,
			Note:      payload.Note,
		})
		if err != nil {
			http.Error(w, "Failed to record punch", http.StatusInternalServerError)
			return
		}

		at, _ := time.Parse(time.RFC3339, entry.EntryTime)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(punchResponse{
			Entry:     entry,
			StaffName: staff.StaffName,
			LocalTime: at.In(loc).Format("2006-01-02 15:04:05"),
		})
	}
}

type staffStatus struct {
	StaffID   int    `json:"staffId"`
	StaffName string `json:"staffName"`
	Nickname  string `json:"nickname"`
	ClockedIn bool   `json:"clockedIn"`
	Since     string `json:"since,omitempty"`
}

// StatusHandler reports who is currently clocked in, judged by each active
// staff member's most recent punch.
func StatusHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := database.GetAllStaff(db, true)
		if err != nil {
			http.Error(w, "Failed to load staff", http.StatusInternalServerError)
			return
		}

		statuses := make([]staffStatus, 0, len(staff))
		for _, s := range staff {
			status := staffStatus{StaffID: s.ID, StaffName: s.StaffName, Nickname: s.Nickname}
			last, err := database.GetLastTimeEntry(db, s.ID)
			if err != nil && err != sql.ErrNoRows {
				http.Error(w, "Failed to load punches", http.StatusInternalServerError)
				return
			}
			if err == nil && last.Action == model.ActionClockIn {
				status.ClockedIn = true
				if at, perr := time.Parse(time.RFC3339, last.EntryTime); perr == nil {
					status.Since = at.In(loc).Format("2006-01-02 15:04:05")
				}
			}
			statuses = append(statuses, status)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statuses)
	}
}

type entryView struct {
	model.TimeEntry
	LocalTime string `json:"localTime"`
}

// EntriesHandler lists punches for an inclusive venue-local date range.
// Defaults to today when no range is given.
func EntriesHandler(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := time.Now().In(loc).Format("2006-01-02")
		fromDate := r.URL.Query().Get("from")
		toDate := r.URL.Query().Get("to")
		if fromDate == "" {
			fromDate = today
		}
		if toDate == "" {
			toDate = fromDate
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

		fromUTC, toUTC, err := WindowUTC(fromDate, toDate, loc)
		if err != nil {
			http.Error(w, "Dates must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		entries, err := database.GetTimeEntriesBetween(db, fromUTC, toUTC, staffID)
		if err != nil {
			http.Error(w, "Failed to load time entries", http.StatusInternalServerError)
			return
		}

		views := make([]entryView, 0, len(entries))
		for _, e := range entries {
			view := entryView{TimeEntry: e}
			if at, perr := time.Parse(time.RFC3339, e.EntryTime); perr == nil {
				view.LocalTime = at.In(loc).Format("2006-01-02 15:04:05")
			}
			views = append(views, view)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}
