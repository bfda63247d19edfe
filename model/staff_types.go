package model

import "database/sql"

type Staff struct {
	ID         int            `db:"id" json:"id"`
	StaffName  string         `db:"staff_name" json:"staffName"`
	Nickname   string         `db:"nickname" json:"nickname"`
	Position   string         `db:"position" json:"position"`
	IsActive   bool           `db:"is_active" json:"isActive"`
	LineUserID sql.NullString `db:"line_user_id" json:"lineUserId"`
}

// Compensation is the pay package for one staff member from EffectiveFrom
// onward. A new row is inserted on every raise; the payroll run picks the
// latest row effective on or before the end of the month it calculates.
type Compensation struct {
	ID                    int     `db:"id" json:"id"`
	StaffID               int     `db:"staff_id" json:"staffId"`
	EffectiveFrom         string  `db:"effective_from" json:"effectiveFrom"`
	BaseSalary            float64 `db:"base_salary" json:"baseSalary"`
	OTRatePerHour         float64 `db:"ot_rate_per_hour" json:"otRatePerHour"`
	HolidayRatePerHour    float64 `db:"holiday_rate_per_hour" json:"holidayRatePerHour"`
	DailyAllowance        float64 `db:"daily_allowance" json:"dailyAllowance"`
	ServiceChargeEligible bool    `db:"service_charge_eligible" json:"serviceChargeEligible"`
}

const (
	ActionClockIn  = "clock_in"
	ActionClockOut = "clock_out"
)

// TimeEntry is a single punch. EntryTime is stored UTC (RFC3339); all date
// bucketing converts to the venue timezone first.
type TimeEntry struct {
	ID        int    `db:"id" json:"id"`
	StaffID   int    `db:"staff_id" json:"staffId"`
	Action    string `db:"action" json:"action"`
	EntryTime string `db:"entry_time" json:"entryTime"`
	Note      string `db:"note" json:"note"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type PublicHoliday struct {
	HolidayDate string `db:"holiday_date" json:"holidayDate"`
	HolidayName string `db:"holiday_name" json:"holidayName"`
}
