package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lengolf/database"
	"lengolf/model"
	"lengolf/notify"
	"lengolf/payroll"
)

func NewPayrollCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "Monthly payroll runs",
	}
	cmd.AddCommand(
		newPayrollRunsCommand(opts),
		newPayrollCalcCommand(opts),
		newPayrollShowCommand(opts),
		newPayrollFinalizeCommand(opts),
		newPayrollExportCommand(opts),
		newPayrollServiceChargeCommand(opts),
	)
	return cmd
}

func newPayrollRunsCommand(opts *RootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List payroll runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := database.ListPayrollRuns(db, month)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no payroll runs")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("ID", "Month", "Status", "Created", "Total Gross")
			for _, run := range runs {
				_ = table.Append(run.ID, run.Month, run.Status, run.CreatedAt, notify.THB(run.TotalGross))
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "filter by month (YYYY-MM)")
	return cmd
}

func newPayrollCalcCommand(opts *RootOptions) *cobra.Command {
	var (
		month string
		runID string
		note  string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a payroll run",
		Long: `calc recalculates an existing run (--run) or opens a fresh run for a month
(--month) and calculates it. Finalized runs are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (month == "") == (runID == "") {
				return errors.New("exactly one of --month or --run is required")
			}

			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			calc := payroll.NewCalculator(db, opts.Loc, payrollParams(opts.Config))
			if runID == "" {
				run, err := calc.CreateRun(month, note)
				if err != nil {
					return err
				}
				runID = run.ID
			}

			run, err := calc.Calculate(context.Background(), runID)
			if err != nil {
				return err
			}
			return printRunDetail(cmd.OutOrStdout(), db, run)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "open a new run for this month (YYYY-MM)")
	cmd.Flags().StringVar(&runID, "run", "", "recalculate this existing run")
	cmd.Flags().StringVar(&note, "note", "", "note stored on a newly opened run")
	return cmd
}

func newPayrollShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its lines and review flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := database.GetPayrollRun(db, args[0])
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no run with id %s", args[0])
				}
				return err
			}
			return printRunDetail(cmd.OutOrStdout(), db, run)
		},
	}
}

func newPayrollFinalizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <run-id>",
		Short: "Lock a calculated run and notify LINE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			calc := payroll.NewCalculator(db, opts.Loc, payrollParams(opts.Config))
			run, err := calc.Finalize(args[0])
			if err != nil {
				return err
			}

			lines, err := database.GetPayrollLines(db, run.ID)
			if err == nil {
				pushErr := notifyClient(opts.Config).Push(cmd.Context(), "", notify.PayrollFinalizedMessage(run, lines))
				if pushErr != nil && !errors.Is(pushErr, notify.ErrDisabled) {
					opts.Logger.Warn("payroll finalize push failed", zap.String("run", run.ID), zap.Error(pushErr))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run %s finalized, total gross %s\n", run.ID, notify.THB(run.TotalGross))
			return nil
		},
	}
}

func newPayrollExportCommand(opts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write the review workbook for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := database.GetPayrollRun(db, args[0])
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no run with id %s", args[0])
				}
				return err
			}
			lines, err := database.GetPayrollLines(db, run.ID)
			if err != nil {
				return err
			}
			flags, err := database.GetPayrollFlags(db, run.ID)
			if err != nil {
				return err
			}

			f, err := payroll.BuildWorkbook(run, lines, flags)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("payroll_%s.xlsx", run.Month)
			}
			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to payroll_<month>.xlsx)")
	return cmd
}

func newPayrollServiceChargeCommand(opts *RootOptions) *cobra.Command {
	var (
		month  string
		amount float64
	)

	cmd := &cobra.Command{
		Use:   "service-charge",
		Short: "Read or set the monthly service-charge pot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if cmd.Flags().Changed("amount") {
				if amount < 0 {
					return errors.New("amount must not be negative")
				}
				pot := model.ServiceChargePot{Month: month, TotalAmount: amount}
				if err := database.UpsertServiceChargePot(db, pot); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service charge for %s set to %s\n", month, notify.THB(amount))
				return nil
			}

			pot, err := database.GetServiceChargePot(db, month)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					fmt.Fprintf(cmd.OutOrStdout(), "no service charge recorded for %s\n", month)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "service charge for %s: %s\n", pot.Month, notify.THB(pot.TotalAmount))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month (YYYY-MM)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "set the pot to this THB amount")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

// printRunDetail renders one run the way the review meeting reads it: header,
// per-staff lines, then anything the engine flagged for a human.
func printRunDetail(w io.Writer, db database.DBTX, run model.PayrollRun) error {
	fmt.Fprintf(w, "run %s  month %s  status %s  total gross %s\n",
		run.ID, run.Month, run.Status, notify.THB(run.TotalGross))
	if run.Note != "" {
		fmt.Fprintf(w, "note: %s\n", run.Note)
	}

	lines, err := database.GetPayrollLines(db, run.ID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintln(w, "no lines (run not calculated yet)")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Staff", "Days", "Reg h", "OT h", "Hol h", "Base", "OT", "Holiday", "Allowance", "Svc Charge", "Gross")
	for _, l := range lines {
		_ = table.Append(
			l.StaffName,
			strconv.Itoa(l.WorkingDays),
			fmt.Sprintf("%.2f", l.RegularHours),
			fmt.Sprintf("%.2f", l.OTHours),
			fmt.Sprintf("%.2f", l.HolidayHours),
			notify.THB(l.BasePay),
			notify.THB(l.OTPay),
			notify.THB(l.HolidayPay),
			notify.THB(l.AllowancePay),
			notify.THB(l.ServiceChargePay),
			notify.THB(l.GrossPay),
		)
	}
	if err := table.Render(); err != nil {
		return err
	}

	flags, err := database.GetPayrollFlags(db, run.ID)
	if err != nil {
		return err
	}
	if len(flags) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%d flag(s) for review:\n", len(flags))
	ft := tablewriter.NewWriter(w)
	ft.Header("Kind", "Staff", "Date", "Detail")
	for _, f := range flags {
		_ = ft.Append(f.Kind, strconv.Itoa(f.StaffID), f.Date, f.Detail)
	}
	return ft.Render()
}
