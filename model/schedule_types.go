package model

// Schedule is one planned shift. Times are venue-local "15:04" strings on a
// single date; planned shifts never cross midnight.
type Schedule struct {
	ID           int    `db:"id" json:"id"`
	StaffID      int    `db:"staff_id" json:"staffId"`
	ScheduleDate string `db:"schedule_date" json:"scheduleDate"`
	StartTime    string `db:"start_time" json:"startTime"`
	EndTime      string `db:"end_time" json:"endTime"`
	Location     string `db:"location" json:"location"`
	Note         string `db:"note" json:"note"`
}

type ScheduleConflict struct {
	StaffID int      `json:"staffId"`
	Date    string   `json:"date"`
	A       Schedule `json:"a"`
	B       Schedule `json:"b"`
}

const (
	VarianceWorked      = "worked"
	VarianceAbsent      = "absent"
	VarianceLate        = "late"
	VarianceLeftEarly   = "left_early"
	VarianceUnscheduled = "unscheduled"
)

// VarianceRow compares one scheduled shift against the punches actually
// recorded on that date.
type VarianceRow struct {
	StaffID        int     `json:"staffId"`
	StaffName      string  `json:"staffName"`
	Date           string  `json:"date"`
	ScheduledHours float64 `json:"scheduledHours"`
	ActualHours    float64 `json:"actualHours"`
	HoursDelta     float64 `json:"hoursDelta"`
	Status         string  `json:"status"`
}
