package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/model"
	"lengolf/schedule"
)

func NewScheduleCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Shift schedule review",
	}
	cmd.AddCommand(
		newScheduleConflictsCommand(opts),
		newScheduleVarianceCommand(opts),
	)
	return cmd
}

func newScheduleConflictsCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Find overlapping shifts per staff member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if from == "" {
				from = time.Now().In(opts.Loc).Format("2006-01-02")
			}
			if to == "" {
				to = from
			}

			conflicts, err := schedule.Conflicts(db, from, to)
			if err != nil {
				return err
			}
			if len(conflicts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no overlapping shifts between %s and %s\n", from, to)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Staff", "Date", "Shift A", "Shift B")
			for _, c := range conflicts {
				_ = table.Append(
					strconv.Itoa(c.StaffID),
					c.Date,
					fmt.Sprintf("%s-%s %s", c.A.StartTime, c.A.EndTime, c.A.Location),
					fmt.Sprintf("%s-%s %s", c.B.StartTime, c.B.EndTime, c.B.Location),
				)
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&to, "to", "", "end date inclusive, defaults to --from")
	return cmd
}

func newScheduleVarianceCommand(opts *RootOptions) *cobra.Command {
	var (
		month   string
		showAll bool
	)

	cmd := &cobra.Command{
		Use:   "variance",
		Short: "Compare scheduled shifts against punches for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := schedule.Variance(db, month, opts.Loc, schedule.VarianceOptions{
				Grace:   time.Duration(opts.Config.Payroll.ScheduleGraceMinutes) * time.Minute,
				Pairing: pairingOptions(opts.Config),
			})
			if err != nil {
				return err
			}
			if !showAll {
				kept := rows[:0]
				for _, row := range rows {
					if row.Status != model.VarianceWorked {
						kept = append(kept, row)
					}
				}
				rows = kept
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no variances in %s\n", month)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Staff", "Date", "Scheduled h", "Actual h", "Delta h", "Status")
			for _, row := range rows {
				_ = table.Append(
					row.StaffName,
					row.Date,
					fmt.Sprintf("%.2f", row.ScheduledHours),
					fmt.Sprintf("%.2f", row.ActualHours),
					fmt.Sprintf("%+.2f", row.HoursDelta),
					row.Status,
				)
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month (YYYY-MM)")
	cmd.Flags().BoolVar(&showAll, "all", false, "include shifts worked as planned")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}
