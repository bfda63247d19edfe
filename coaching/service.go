// Package coaching computes lesson availability for the venue's golf
// coaches and guards bookings against double-selling a slot.
package coaching

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

// ErrSlotTaken is returned when a requested booking overlaps an active one.
var ErrSlotTaken = errors.New("slot already booked")

// ErrOutsideWindow is returned when a requested booking does not fit inside
// any availability window for the date.
var ErrOutsideWindow = errors.New("requested time is outside the coach's availability")

// slotStepMin is the grid lesson slots snap to.
const slotStepMin = 30

// Slot is one bookable lesson start/end in venue-local "15:04" clocks.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type window struct {
	start int
	end   int
}

// Windows returns the coach's bookable windows for a date. Date overrides
// replace the weekly pattern entirely; any unavailable override blanks the
// whole day.
func Windows(db database.DBTX, coachID int, date string) ([]Slot, error) {
	windows, err := loadWindows(db, coachID, date)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(windows))
	for _, w := range windows {
		slots = append(slots, Slot{Start: minutesToClock(w.start), End: minutesToClock(w.end)})
	}
	return slots, nil
}

func loadWindows(db database.DBTX, coachID int, date string) ([]window, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", date, err)
	}

	overrides, err := database.GetDateOverrides(db, coachID, date)
	if err != nil {
		return nil, err
	}

	var windows []window
	if len(overrides) > 0 {
		for _, o := range overrides {
			if o.IsUnavailable {
				return nil, nil
			}
		}
		for _, o := range overrides {
			w, err := parseWindow(o.StartTime, o.EndTime)
			if err != nil {
				return nil, fmt.Errorf("override %d: %w", o.ID, err)
			}
			windows = append(windows, w)
		}
		return windows, nil
	}

	rules, err := database.GetAvailabilityRules(db, coachID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		w, err := parseWindow(r.StartTime, r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("availability rule %d: %w", r.ID, err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// OpenSlots lists the lesson starts still free on a date. Candidates snap
// to the half-hour grid, must fit entirely inside one window, and must not
// overlap an active booking.
func OpenSlots(db database.DBTX, coachID int, date string, durationMin int) ([]Slot, error) {
	if durationMin <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", durationMin)
	}
	windows, err := loadWindows(db, coachID, date)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []Slot{}, nil
	}
	bookings, err := database.GetActiveBookings(db, coachID, date)
	if err != nil {
		return nil, err
	}
	booked, err := bookingWindows(bookings)
	if err != nil {
		return nil, err
	}

	slots := []Slot{}
	for _, w := range windows {
		start := w.start
		if rem := start % slotStepMin; rem != 0 {
			start += slotStepMin - rem
		}
		for ; start+durationMin <= w.end; start += slotStepMin {
			if overlapsAny(window{start, start + durationMin}, booked) {
				continue
			}
			slots = append(slots, Slot{
				Start: minutesToClock(start),
				End:   minutesToClock(start + durationMin),
			})
		}
	}
	return slots, nil
}

// BookingRequest carries everything needed to reserve a lesson slot.
type BookingRequest struct {
	CoachID       int
	BookingDate   string
	StartTime     string
	DurationMin   int
	CustomerName  string
	CustomerPhone string
}

// Book reserves a slot. The availability and overlap checks run inside the
// same transaction as the insert, so two concurrent requests for one slot
// cannot both succeed.
func Book(db *sqlx.DB, req BookingRequest) (model.Booking, error) {
	if req.DurationMin <= 0 {
		return model.Booking{}, fmt.Errorf("duration must be positive, got %d", req.DurationMin)
	}
	if _, err := time.Parse("2006-01-02", req.BookingDate); err != nil {
		return model.Booking{}, fmt.Errorf("failed to parse booking date %q: %w", req.BookingDate, err)
	}
	startMin, err := clockToMinutes(req.StartTime)
	if err != nil {
		return model.Booking{}, fmt.Errorf("failed to parse start time %q: %w", req.StartTime, err)
	}
	requested := window{startMin, startMin + req.DurationMin}

	tx, err := db.Beginx()
	if err != nil {
		return model.Booking{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	coach, err := database.GetCoachByID(tx, req.CoachID)
	if err != nil {
		return model.Booking{}, err
	}
	if !coach.IsActive {
		return model.Booking{}, fmt.Errorf("coach %s is not active", coach.CoachName)
	}

	windows, err := loadWindows(tx, req.CoachID, req.BookingDate)
	if err != nil {
		return model.Booking{}, err
	}
	if !containedInAny(requested, windows) {
		return model.Booking{}, ErrOutsideWindow
	}

	existing, err := database.GetActiveBookings(tx, req.CoachID, req.BookingDate)
	if err != nil {
		return model.Booking{}, err
	}
	booked, err := bookingWindows(existing)
	if err != nil {
		return model.Booking{}, err
	}
	if overlapsAny(requested, booked) {
		return model.Booking{}, ErrSlotTaken
	}

	booking := model.Booking{
		ID:            uuid.New().String(),
		CoachID:       req.CoachID,
		BookingDate:   req.BookingDate,
		StartTime:     req.StartTime,
		DurationMin:   req.DurationMin,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        model.BookingStatusBooked,
		CreatedAt:     database.UTCNow(),
	}
	if err := database.InsertBookingInTx(tx, booking); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, fmt.Errorf("failed to commit booking: %w", err)
	}
	return booking, nil
}

// Cancel frees a booked slot. Cancelling an already cancelled or unknown
// booking returns sql.ErrNoRows.
func Cancel(db *sqlx.DB, id string) error {
	return database.CancelBooking(db, id)
}

// DoubleBooking is a pair of active bookings for one coach that overlap.
type DoubleBooking struct {
	CoachID int           `json:"coachId"`
	Date    string        `json:"date"`
	A       model.Booking `json:"a"`
	B       model.Booking `json:"b"`
}

// DoubleBookings scans active bookings in an inclusive date range for
// overlapping pairs. Records imported from the old booking sheet predate
// the transactional check and can still collide.
func DoubleBookings(db database.DBTX, from, to string) ([]DoubleBooking, error) {
	bookings, err := database.GetActiveBookingsBetween(db, from, to)
	if err != nil {
		return nil, err
	}

	var doubles []DoubleBooking
	for i := 0; i < len(bookings); i++ {
		wi, err := bookingWindow(bookings[i])
		if err != nil {
			return nil, err
		}
		for j := i + 1; j < len(bookings); j++ {
			if bookings[j].CoachID != bookings[i].CoachID || bookings[j].BookingDate != bookings[i].BookingDate {
				continue
			}
			wj, err := bookingWindow(bookings[j])
			if err != nil {
				return nil, err
			}
			if wi.start < wj.end && wj.start < wi.end {
				doubles = append(doubles, DoubleBooking{
					CoachID: bookings[i].CoachID,
					Date:    bookings[i].BookingDate,
					A:       bookings[i],
					B:       bookings[j],
				})
			}
		}
	}
	return doubles, nil
}

func bookingWindow(b model.Booking) (window, error) {
	start, err := clockToMinutes(b.StartTime)
	if err != nil {
		return window{}, fmt.Errorf("booking %s: failed to parse start time %q: %w", b.ID, b.StartTime, err)
	}
	return window{start, start + b.DurationMin}, nil
}

func bookingWindows(bookings []model.Booking) ([]window, error) {
	windows := make([]window, 0, len(bookings))
	for _, b := range bookings {
		w, err := bookingWindow(b)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func containedInAny(w window, windows []window) bool {
	for _, candidate := range windows {
		if w.start >= candidate.start && w.end <= candidate.end {
			return true
		}
	}
	return false
}

func overlapsAny(w window, others []window) bool {
	for _, other := range others {
		if w.start < other.end && other.start < w.end {
			return true
		}
	}
	return false
}

func parseWindow(startClock, endClock string) (window, error) {
	start, err := clockToMinutes(startClock)
	if err != nil {
		return window{}, fmt.Errorf("failed to parse start time %q: %w", startClock, err)
	}
	end, err := clockToMinutes(endClock)
	if err != nil {
		return window{}, fmt.Errorf("failed to parse end time %q: %w", endClock, err)
	}
	if end <= start {
		return window{}, fmt.Errorf("window end %s must be after start %s", endClock, startClock)
	}
	return window{start, end}, nil
}

func clockToMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesToClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
