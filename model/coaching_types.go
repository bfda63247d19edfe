package model

type Coach struct {
	ID          int    `db:"id" json:"id"`
	CoachName   string `db:"coach_name" json:"coachName"`
	DisplayName string `db:"display_name" json:"displayName"`
	IsActive    bool   `db:"is_active" json:"isActive"`
}

// AvailabilityRule is a recurring weekly window. Weekday follows time.Weekday
// (0 = Sunday). Times are venue-local "15:04" strings.
type AvailabilityRule struct {
	ID        int    `db:"id" json:"id"`
	CoachID   int    `db:"coach_id" json:"coachId"`
	Weekday   int    `db:"weekday" json:"weekday"`
	StartTime string `db:"start_time" json:"startTime"`
	EndTime   string `db:"end_time" json:"endTime"`
}

// DateOverride replaces the weekly rules for one date. A row with
// IsUnavailable set makes the coach unavailable all day regardless of any
// other override rows on that date.
type DateOverride struct {
	ID            int    `db:"id" json:"id"`
	CoachID       int    `db:"coach_id" json:"coachId"`
	OverrideDate  string `db:"override_date" json:"overrideDate"`
	StartTime     string `db:"start_time" json:"startTime"`
	EndTime       string `db:"end_time" json:"endTime"`
	IsUnavailable bool   `db:"is_unavailable" json:"isUnavailable"`
}

const (
	BookingStatusBooked    = "booked"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

type Booking struct {
	ID            string `db:"id" json:"id"`
	CoachID       int    `db:"coach_id" json:"coachId"`
	BookingDate   string `db:"booking_date" json:"bookingDate"`
	StartTime     string `db:"start_time" json:"startTime"`
	DurationMin   int    `db:"duration_min" json:"durationMin"`
	CustomerName  string `db:"customer_name" json:"customerName"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone"`
	Status        string `db:"status" json:"status"`
	CreatedAt     string `db:"created_at" json:"createdAt"`
}
