package model

import "database/sql"

const (
	RunStatusDraft      = "draft"
	RunStatusCalculated = "calculated"
	RunStatusFinalized  = "finalized"
)

// ServiceChargePot is the collected service charge for one month ("2006-01"),
// distributed equally among eligible staff when the month is calculated.
type ServiceChargePot struct {
	Month       string  `db:"month" json:"month"`
	TotalAmount float64 `db:"total_amount" json:"totalAmount"`
}

type PayrollRun struct {
	ID           string         `db:"id" json:"id"`
	Month        string         `db:"month" json:"month"`
	Status       string         `db:"status" json:"status"`
	CreatedAt    string         `db:"created_at" json:"createdAt"`
	CalculatedAt sql.NullString `db:"calculated_at" json:"calculatedAt"`
	FinalizedAt  sql.NullString `db:"finalized_at" json:"finalizedAt"`
	TotalGross   float64        `db:"total_gross" json:"totalGross"`
	Note         string         `db:"note" json:"note"`
}

// PayrollLine is one staff member's result for a run. Hours are attributed
// venue-timezone hours; money fields are THB rounded to 2 decimals.
type PayrollLine struct {
	ID               int     `db:"id" json:"id"`
	RunID            string  `db:"run_id" json:"runId"`
	StaffID          int     `db:"staff_id" json:"staffId"`
	StaffName        string  `db:"staff_name" json:"staffName"`
	RegularHours     float64 `db:"regular_hours" json:"regularHours"`
	OTHours          float64 `db:"ot_hours" json:"otHours"`
	HolidayHours     float64 `db:"holiday_hours" json:"holidayHours"`
	WorkingDays      int     `db:"working_days" json:"workingDays"`
	BasePay          float64 `db:"base_pay" json:"basePay"`
	OTPay            float64 `db:"ot_pay" json:"otPay"`
	HolidayPay       float64 `db:"holiday_pay" json:"holidayPay"`
	AllowancePay     float64 `db:"allowance_pay" json:"allowancePay"`
	ServiceChargePay float64 `db:"service_charge_pay" json:"serviceChargePay"`
	GrossPay         float64 `db:"gross_pay" json:"grossPay"`
}

const (
	FlagDuplicatePunch      = "duplicate_punch"
	FlagMissingClockout     = "missing_clockout"
	FlagOrphanClockout      = "orphan_clockout"
	FlagOverlongShift       = "overlong_shift"
	FlagMissingCompensation = "missing_compensation"
)

// PayrollFlag marks an entry or staff month that needs human review. Flagged
// shifts are excluded from hours, never silently corrected.
type PayrollFlag struct {
	ID      int    `db:"id" json:"id"`
	RunID   string `db:"run_id" json:"runId"`
	StaffID int    `db:"staff_id" json:"staffId"`
	Kind    string `db:"kind" json:"kind"`
	Date    string `db:"date" json:"date"`
	Detail  string `db:"detail" json:"detail"`
}
