package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"

	"github.com/jmoiron/sqlx"
)

func UpsertServiceChargePot(db DBTX, pot model.ServiceChargePot) error {
	const q = `
		INSERT INTO service_charge_pots (month, total_amount)
		VALUES (:month, :total_amount)
		ON CONFLICT(month) DO UPDATE SET total_amount = excluded.total_amount`
	if _, err := db.NamedExec(q, pot); err != nil {
		return fmt.Errorf("failed to upsert service charge pot for %s: %w", pot.Month, err)
	}
	return nil
}

// GetServiceChargePot returns the pot for a month. A month with no row is a
// zero pot, not an error.
func GetServiceChargePot(db DBTX, month string) (model.ServiceChargePot, error) {
	var pot model.ServiceChargePot
	err := db.Get(&pot, `SELECT month, total_amount FROM service_charge_pots WHERE month = ?`, month)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ServiceChargePot{Month: month}, nil
		}
		return model.ServiceChargePot{}, fmt.Errorf("failed to get service charge pot for %s: %w", month, err)
	}
	return pot, nil
}

const payrollRunColumns = `id, month, status, created_at, calculated_at, finalized_at, total_gross, note`

func CreatePayrollRun(db DBTX, run model.PayrollRun) error {
	const q = `
		INSERT INTO payroll_runs (id, month, status, created_at, note)
		VALUES (:id, :month, :status, :created_at, :note)`
	if _, err := db.NamedExec(q, run); err != nil {
		return fmt.Errorf("failed to create payroll run for %s: %w", run.Month, err)
	}
	return nil
}

func GetPayrollRun(db DBTX, id string) (model.PayrollRun, error) {
	var run model.PayrollRun
	err := db.Get(&run, `SELECT `+payrollRunColumns+` FROM payroll_runs WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.PayrollRun{}, err
		}
		return model.PayrollRun{}, fmt.Errorf("failed to get payroll run %s: %w", id, err)
	}
	return run, nil
}

// ListPayrollRuns returns runs newest first, optionally restricted to one
// month ("2006-01").
func ListPayrollRuns(db DBTX, month string) ([]model.PayrollRun, error) {
	q := `SELECT ` + payrollRunColumns + ` FROM payroll_runs`
	args := []interface{}{}
	if month != "" {
		q += ` WHERE month = ?`
		args = append(args, month)
	}
	q += ` ORDER BY created_at DESC, id`

	var runs []model.PayrollRun
	if err := db.Select(&runs, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	return runs, nil
}

// ReplacePayrollResultsInTx swaps a run's lines and flags for freshly
// calculated ones and stamps the run calculated. Recalculating a draft or
// calculated run always replaces the whole result set.
func ReplacePayrollResultsInTx(tx *sqlx.Tx, runID string, lines []model.PayrollLine, flags []model.PayrollFlag, totalGross float64) error {
	if _, err := tx.Exec(`DELETE FROM payroll_lines WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear payroll lines for run %s: %w", runID, err)
	}
	if _, err := tx.Exec(`DELETE FROM payroll_flags WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear payroll flags for run %s: %w", runID, err)
	}

	const lineQ = `
		INSERT INTO payroll_lines
			(run_id, staff_id, staff_name, regular_hours, ot_hours, holiday_hours,
			 working_days, base_pay, ot_pay, holiday_pay, allowance_pay,
			 service_charge_pay, gross_pay)
		VALUES
			(:run_id, :staff_id, :staff_name, :regular_hours, :ot_hours, :holiday_hours,
			 :working_days, :base_pay, :ot_pay, :holiday_pay, :allowance_pay,
			 :service_charge_pay, :gross_pay)`
	lineStmt, err := tx.PrepareNamed(lineQ)
	if err != nil {
		return fmt.Errorf("failed to prepare payroll line insert: %w", err)
	}
	defer lineStmt.Close()
	for _, line := range lines {
		line.RunID = runID
		if _, err := lineStmt.Exec(line); err != nil {
			return fmt.Errorf("failed to insert payroll line for staff %d: %w", line.StaffID, err)
		}
	}

	const flagQ = `
		INSERT INTO payroll_flags (run_id, staff_id, kind, date, detail)
		VALUES (:run_id, :staff_id, :kind, :date, :detail)`
	flagStmt, err := tx.PrepareNamed(flagQ)
	if err != nil {
		return fmt.Errorf("failed to prepare payroll flag insert: %w", err)
	}
	defer flagStmt.Close()
	for _, flag := range flags {
		flag.RunID = runID
		if _, err := flagStmt.Exec(flag); err != nil {
			return fmt.Errorf("failed to insert payroll flag for staff %d: %w", flag.StaffID, err)
		}
	}

	const runQ = `
		UPDATE payroll_runs
		SET status = ?, calculated_at = ?, total_gross = ?
		WHERE id = ?`
	if _, err := tx.Exec(runQ, model.RunStatusCalculated, UTCNow(), totalGross, runID); err != nil {
		return fmt.Errorf("failed to stamp payroll run %s calculated: %w", runID, err)
	}
	return nil
}

// FinalizePayrollRun flips a calculated run to finalized. The status filter
// makes the transition race-safe: a run that is not calculated is left alone
// and sql.ErrNoRows is returned.
func FinalizePayrollRun(db DBTX, runID string) error {
	const q = `UPDATE payroll_runs SET status = ?, finalized_at = ? WHERE id = ? AND status = ?`
	res, err := db.Exec(q, model.RunStatusFinalized, UTCNow(), runID, model.RunStatusCalculated)
	if err != nil {
		return fmt.Errorf("failed to finalize payroll run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize payroll run %s: %w", runID, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func GetPayrollLines(db DBTX, runID string) ([]model.PayrollLine, error) {
	var lines []model.PayrollLine
	err := db.Select(&lines, `
		SELECT id, run_id, staff_id, staff_name, regular_hours, ot_hours, holiday_hours,
		       working_days, base_pay, ot_pay, holiday_pay, allowance_pay,
		       service_charge_pay, gross_pay
		FROM payroll_lines
		WHERE run_id = ?
		ORDER BY staff_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll lines for run %s: %w", runID, err)
	}
	return lines, nil
}

func GetPayrollFlags(db DBTX, runID string) ([]model.PayrollFlag, error) {
	var flags []model.PayrollFlag
	err := db.Select(&flags, `
		SELECT id, run_id, staff_id, kind, date, detail
		FROM payroll_flags
		WHERE run_id = ?
		ORDER BY staff_id, date, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll flags for run %s: %w", runID, err)
	}
	return flags, nil
}
