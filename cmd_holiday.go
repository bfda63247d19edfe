package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/database"
	"lengolf/model"
)

func NewHolidayCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "Public holidays used by the payroll engine",
	}
	cmd.AddCommand(
		newHolidayAddCommand(opts),
		newHolidayListCommand(opts),
		newHolidayRemoveCommand(opts),
	)
	return cmd
}

func newHolidayAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <date> <name>",
		Short: "Record a public holiday",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := time.Parse("2006-01-02", args[0]); err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD, got %q", args[0])
			}

			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			h := model.PublicHoliday{HolidayDate: args[0], HolidayName: args[1]}
			if err := database.UpsertHoliday(db, h); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h.HolidayDate, h.HolidayName)
			return nil
		},
	}
}

func newHolidayListCommand(opts *RootOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List public holidays for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if year == 0 {
				year = time.Now().In(opts.Loc).Year()
			}
			from := fmt.Sprintf("%04d-01-01", year)
			to := fmt.Sprintf("%04d-12-31", year)

			holidays, err := database.GetHolidaysBetween(db, from, to)
			if err != nil {
				return err
			}
			if len(holidays) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no holidays recorded for %d\n", year)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Date", "Holiday")
			for _, h := range holidays {
				_ = table.Append(h.HolidayDate, h.HolidayName)
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year to list, defaults to the current year")
	return cmd
}

func newHolidayRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <date>",
		Short: "Delete a public holiday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.DeleteHoliday(db, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
