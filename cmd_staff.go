package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/database"
	"lengolf/model"
	"lengolf/notify"
)

func NewStaffCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff roster and pay packages",
	}
	cmd.AddCommand(
		newStaffListCommand(opts),
		newStaffAddCommand(opts),
		newStaffCompCommand(opts),
		newStaffCompHistoryCommand(opts),
	)
	return cmd
}

func newStaffListCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			staff, err := database.GetAllStaff(db, !all)
			if err != nil {
				return err
			}
			if len(staff) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no staff")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("ID", "Name", "Nickname", "Position", "Active")
			for _, s := range staff {
				active := "yes"
				if !s.IsActive {
					active = "no"
				}
				_ = table.Append(strconv.Itoa(s.ID), s.StaffName, s.Nickname, s.Position, active)
			}
			return table.Render()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive staff")
	return cmd
}

func newStaffAddCommand(opts *RootOptions) *cobra.Command {
	var s model.Staff
	var lineUserID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a staff member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			s.IsActive = true
			if lineUserID != "" {
				s.LineUserID = sql.NullString{String: lineUserID, Valid: true}
			}
			id, err := database.CreateStaff(db, s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staff %d created\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&s.StaffName, "name", "", "full name")
	cmd.Flags().StringVar(&s.Nickname, "nickname", "", "name the team uses")
	cmd.Flags().StringVar(&s.Position, "position", "", "role, e.g. front desk")
	cmd.Flags().StringVar(&lineUserID, "line-user", "", "LINE user id for notifications")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newStaffCompCommand(opts *RootOptions) *cobra.Command {
	var c model.Compensation

	cmd := &cobra.Command{
		Use:   "comp",
		Short: "Record a pay package effective from a date",
		Long: `comp inserts a new compensation row. Existing rows are never edited; the
payroll run picks the latest row effective on or before the month it pays.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := database.GetStaffByID(db, c.StaffID); err != nil {
				if err == sql.ErrNoRows {
					return fmt.Errorf("no staff with id %d", c.StaffID)
				}
				return err
			}
			id, err := database.AddCompensation(db, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compensation %d recorded for staff %d from %s\n", id, c.StaffID, c.EffectiveFrom)
			return nil
		},
	}

	cmd.Flags().IntVar(&c.StaffID, "staff", 0, "staff id")
	cmd.Flags().StringVar(&c.EffectiveFrom, "from", "", "effective date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&c.BaseSalary, "base", 0, "monthly base salary THB")
	cmd.Flags().Float64Var(&c.OTRatePerHour, "ot-rate", 0, "overtime THB per hour")
	cmd.Flags().Float64Var(&c.HolidayRatePerHour, "holiday-rate", 0, "public-holiday THB per hour")
	cmd.Flags().Float64Var(&c.DailyAllowance, "allowance", 0, "THB per working day")
	cmd.Flags().BoolVar(&c.ServiceChargeEligible, "service-charge", false, "include in the service-charge split")
	_ = cmd.MarkFlagRequired("staff")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newStaffCompHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comp-history <staff-id>",
		Short: "Show every pay package for a staff member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			staffID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("staff id must be an integer, got %q", args[0])
			}

			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			comps, err := database.GetCompensationsForStaff(db, staffID)
			if err != nil {
				return err
			}
			if len(comps) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no compensation rows for staff %d\n", staffID)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Effective From", "Base", "OT/h", "Holiday/h", "Allowance/day", "Svc Charge")
			for _, c := range comps {
				eligible := "yes"
				if !c.ServiceChargeEligible {
					eligible = "no"
				}
				_ = table.Append(
					c.EffectiveFrom,
					notify.THB(c.BaseSalary),
					notify.THB(c.OTRatePerHour),
					notify.THB(c.HolidayRatePerHour),
					notify.THB(c.DailyAllowance),
					eligible,
				)
			}
			return table.Render()
		},
	}
}
