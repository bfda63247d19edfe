package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/inventory"
	"lengolf/notify"
)

func NewInventoryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Stock usage and reorder alerts",
	}
	cmd.AddCommand(
		newInventoryReportCommand(opts),
		newInventoryLowStockCommand(opts),
		newInventoryNotifyCommand(opts),
	)
	return cmd
}

func newInventoryReportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Usage report for every active product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := inventory.Report(db, time.Now(), opts.Loc)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no active products")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Product", "Category", "Qty", "Unit", "Counted", "Usage/day", "Days Left", "Low")
			for _, row := range rows {
				low := ""
				if row.Low {
					low = "LOW"
				}
				_ = table.Append(
					row.ProductName,
					row.Category,
					floatCell(row.LatestQty),
					row.Unit,
					row.CountDate,
					floatCell(row.DailyUsage),
					floatCell(row.DaysLeft),
					low,
				)
			}
			return table.Render()
		},
	}
}

func newInventoryLowStockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "low-stock",
		Short: "Products at or under their reorder threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := inventory.LowStock(db, time.Now(), opts.Loc)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing below reorder level")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Product", "Qty", "Unit", "Threshold", "Days Left")
			for _, row := range rows {
				_ = table.Append(
					row.ProductName,
					floatCell(row.LatestQty),
					row.Unit,
					floatCell(row.ReorderThreshold),
					floatCell(row.DaysLeft),
				)
			}
			return table.Render()
		},
	}
}

func newInventoryNotifyCommand(opts *RootOptions) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Push the low-stock list to LINE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := inventory.LowStock(db, time.Now(), opts.Loc)
			if err != nil {
				return err
			}

			items := make([]notify.LowStockItem, 0, len(rows))
			for _, row := range rows {
				item := notify.LowStockItem{Name: row.ProductName, Unit: row.Unit}
				if row.LatestQty != nil {
					item.Quantity = *row.LatestQty
				}
				if row.ReorderThreshold != nil {
					item.Threshold = *row.ReorderThreshold
				}
				if row.DaysLeft != nil {
					item.DaysLeft = *row.DaysLeft
					item.HasDaysLeft = true
				}
				items = append(items, item)
			}

			client := notifyClient(opts.Config)
			if err := client.Push(cmd.Context(), to, notify.LowStockMessage(items)); err != nil {
				if errors.Is(err, notify.ErrDisabled) {
					return errors.New("LINE notifications are not configured (set line.channelToken)")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed low-stock list, %d product(s)\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "LINE recipient (defaults to the config recipient)")
	return cmd
}

func floatCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
