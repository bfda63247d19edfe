package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/database"
	"lengolf/datafix"
)

func NewFixCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Targeted data repairs, dry-run by default",
		Long: `Every fix previews its changes and writes nothing until --apply is given.
Applied fixes land in the data_fixes audit table; see "fix log".`,
	}
	cmd.AddCommand(
		newFixPunchOffsetCommand(opts),
		newFixDedupePunchesCommand(opts),
		newFixCloseOpenShiftsCommand(opts),
		newFixReassignReceiptCommand(opts),
		newFixVoidReceiptCommand(opts),
		newFixLogCommand(opts),
	)
	return cmd
}

func printFixReport(w io.Writer, rep *datafix.Report) error {
	if len(rep.Rows) == 0 {
		fmt.Fprintln(w, "nothing to change")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header(rep.Header)
	for _, row := range rep.Rows {
		_ = table.Append(row)
	}
	if err := table.Render(); err != nil {
		return err
	}

	if rep.Applied {
		fmt.Fprintf(w, "applied, %d row(s) affected\n", rep.RowsAffected)
	} else {
		fmt.Fprintf(w, "dry run, %d row(s) would change; pass --apply to write\n", rep.RowsAffected)
	}
	return nil
}

func newFixPunchOffsetCommand(opts *RootOptions) *cobra.Command {
	var (
		fix   datafix.PunchOffsetOptions
		apply bool
	)

	cmd := &cobra.Command{
		Use:   "punch-offset",
		Short: "Shift one staff member's punches by whole hours",
		Long: `punch-offset repairs punches recorded with a wrong clock, e.g. a kiosk
left on the wrong timezone for a week.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := datafix.PunchOffset(db, opts.Loc, fix, apply)
			if err != nil {
				return err
			}
			return printFixReport(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().IntVar(&fix.StaffID, "staff", 0, "staff id")
	cmd.Flags().StringVar(&fix.From, "from", "", "first venue-local date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fix.To, "to", "", "last venue-local date inclusive")
	cmd.Flags().IntVar(&fix.Hours, "hours", 0, "hours to add (negative shifts back)")
	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes")
	_ = cmd.MarkFlagRequired("staff")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func newFixDedupePunchesCommand(opts *RootOptions) *cobra.Command {
	var (
		windowMin int
		from, to  string
		apply     bool
	)

	cmd := &cobra.Command{
		Use:   "dedupe-punches",
		Short: "Delete double-taps recorded before dedupe existed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			fix := datafix.DedupePunchesOptions{
				From:     from,
				To:       to,
				Progress: cmd.ErrOrStderr(),
			}
			if windowMin > 0 {
				fix.Window = time.Duration(windowMin) * time.Minute
			}
			rep, err := datafix.DedupePunches(db, opts.Loc, fix, apply)
			if err != nil {
				return err
			}
			return printFixReport(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().IntVar(&windowMin, "window", 0, "dedupe window in minutes (default 3)")
	cmd.Flags().StringVar(&from, "from", "", "first venue-local date, empty scans everything")
	cmd.Flags().StringVar(&to, "to", "", "last venue-local date inclusive")
	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes")
	return cmd
}

func newFixCloseOpenShiftsCommand(opts *RootOptions) *cobra.Command {
	var (
		fix   datafix.CloseOpenShiftsOptions
		apply bool
	)

	cmd := &cobra.Command{
		Use:   "close-open-shifts",
		Short: "Insert clock-outs for shifts left open on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := datafix.CloseOpenShifts(db, opts.Loc, fix, apply)
			if err != nil {
				return err
			}
			return printFixReport(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().StringVar(&fix.Date, "date", "", "venue-local date to close (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fix.At, "at", "", `clock-out time (default "23:00")`)
	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newFixReassignReceiptCommand(opts *RootOptions) *cobra.Command {
	var (
		receipt string
		staff   string
		apply   bool
	)

	cmd := &cobra.Command{
		Use:   "reassign-receipt",
		Short: "Move a receipt to the staff member who actually rang it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := datafix.ReassignReceipt(db, receipt, staff, apply)
			if err != nil {
				return err
			}
			return printFixReport(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().StringVar(&receipt, "receipt", "", "receipt number")
	cmd.Flags().StringVar(&staff, "staff-name", "", "staff name to assign")
	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes")
	_ = cmd.MarkFlagRequired("receipt")
	_ = cmd.MarkFlagRequired("staff-name")
	return cmd
}

func newFixVoidReceiptCommand(opts *RootOptions) *cobra.Command {
	var (
		receipt string
		reason  string
		apply   bool
	)

	cmd := &cobra.Command{
		Use:   "void-receipt",
		Short: "Void a receipt and zero its totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := datafix.VoidReceipt(db, receipt, reason, apply)
			if err != nil {
				return err
			}
			return printFixReport(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().StringVar(&receipt, "receipt", "", "receipt number")
	cmd.Flags().StringVar(&reason, "reason", "", "why the receipt is voided, stored in the audit log")
	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes")
	_ = cmd.MarkFlagRequired("receipt")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newFixLogCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the audit trail of applied fixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			fixes, err := database.ListDataFixes(db, limit)
			if err != nil {
				return err
			}
			if len(fixes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no fixes applied yet")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("ID", "Fix", "Applied At", "Rows", "Params")
			for _, f := range fixes {
				_ = table.Append(strconv.Itoa(f.ID), f.FixName, f.AppliedAt, strconv.Itoa(f.RowsAffected), f.Params)
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "rows to show")
	return cmd
}
