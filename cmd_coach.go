package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/coaching"
	"lengolf/database"
)

func NewCoachCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Coaching availability review",
	}
	cmd.AddCommand(
		newCoachSlotsCommand(opts),
		newCoachDoubleBookingsCommand(opts),
	)
	return cmd
}

func newCoachSlotsCommand(opts *RootOptions) *cobra.Command {
	var (
		coachID  int
		date     string
		duration int
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Open lesson slots for a coach on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if date == "" {
				date = time.Now().In(opts.Loc).Format("2006-01-02")
			}

			coach, err := database.GetCoachByID(db, coachID)
			if err != nil {
				return fmt.Errorf("no coach with id %d", coachID)
			}

			slots, err := coaching.OpenSlots(db, coachID, date, duration)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no open %d-minute slots on %s\n", coach.DisplayName, duration, date)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s (%d min):\n", coach.DisplayName, date, duration)
			for _, s := range slots {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s - %s\n", s.Start, s.End)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&coachID, "coach", 0, "coach id")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&duration, "duration", 60, "lesson length in minutes")
	_ = cmd.MarkFlagRequired("coach")
	return cmd
}

func newCoachDoubleBookingsCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "double-bookings",
		Short: "Overlapping active bookings per coach",
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

			pairs, err := coaching.DoubleBookings(db, from, to)
			if err != nil {
				return err
			}
			if len(pairs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no double bookings between %s and %s\n", from, to)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Coach", "Date", "Booking A", "Booking B")
			for _, p := range pairs {
				_ = table.Append(
					strconv.Itoa(p.CoachID),
					p.Date,
					fmt.Sprintf("%s %dmin %s", p.A.StartTime, p.A.DurationMin, p.A.CustomerName),
					fmt.Sprintf("%s %dmin %s", p.B.StartTime, p.B.DurationMin, p.B.CustomerName),
				)
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&to, "to", "", "end date inclusive, defaults to --from")
	return cmd
}
