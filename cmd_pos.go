package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/notify"
	"lengolf/posreview"
)

func NewPOSCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pos",
		Short: "POS takings review",
	}
	cmd.AddCommand(
		newPOSSummaryCommand(opts),
		newPOSAnomaliesCommand(opts),
		newPOSReconcileCommand(opts),
	)
	return cmd
}

func newPOSSummaryCommand(opts *RootOptions) *cobra.Command {
	var (
		date string
		to   string
		push bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Daily takings by payment method",
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
			if to == "" {
				to = date
			}

			summaries, err := posreview.RangeSummary(db, date, to, opts.Loc)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Date", "Txns", "Voids", "Gross", "Discount", "VAT", "Net")
			for _, s := range summaries {
				_ = table.Append(
					s.Date,
					fmt.Sprintf("%d", s.TxnCount),
					fmt.Sprintf("%d", s.VoidCount),
					notify.THB(s.Gross),
					notify.THB(s.Discount),
					notify.THB(s.VAT),
					notify.THB(s.Net),
				)
			}
			if err := table.Render(); err != nil {
				return err
			}

			if len(summaries) == 1 {
				methods := summaries[0].ByMethod
				keys := make([]string, 0, len(methods))
				for k := range methods {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", k, notify.THB(methods[k]))
				}
			}

			if push {
				if len(summaries) != 1 {
					return errors.New("--notify needs a single date, not a range")
				}
				client := notifyClient(opts.Config)
				if err := client.Push(cmd.Context(), "", notify.DailySalesMessage(summaries[0])); err != nil {
					if errors.Is(err, notify.ErrDisabled) {
						return errors.New("LINE notifications are not configured (set line.channelToken)")
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "pushed daily summary to LINE")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "venue-local date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&to, "to", "", "end date for a range, defaults to --date")
	cmd.Flags().BoolVar(&push, "notify", false, "push the summary to LINE")
	return cmd
}

func newPOSAnomaliesCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Receipts that need a second look",
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

			anomalies, err := posreview.Anomalies(db, from, to, opts.Loc, posreview.AnomalyOptions{
				VenueOpen:  opts.Config.VenueOpen,
				VenueClose: opts.Config.VenueClose,
			})
			if err != nil {
				return err
			}
			if len(anomalies) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no anomalies between %s and %s\n", from, to)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Kind", "Receipt", "Date", "Amount", "Detail")
			for _, a := range anomalies {
				_ = table.Append(a.Kind, a.ReceiptNumber, a.Date, notify.THB(a.Amount), a.Detail)
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&to, "to", "", "end date inclusive, defaults to --from")
	return cmd
}

func newPOSReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <settlement.xlsx>",
		Short: "Match a card settlement workbook against POS takings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read settlement file: %w", err)
			}
			rows, err := posreview.ReadSettlement(filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := posreview.Reconcile(db, rows, opts.Loc, posreview.ReconcileOptions{
				CardMethods:  opts.Config.POS.CardMethods,
				ToleranceTHB: opts.Config.POS.ReconcileToleranceTHB,
			})
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Date", "POS Card", "Settlement", "Variance", "OK")
			mismatches := 0
			for _, r := range results {
				ok := "ok"
				if !r.OK {
					ok = "CHECK"
					mismatches++
				}
				_ = table.Append(r.Date, notify.THB(r.POSCardTotal), notify.THB(r.SettlementGross), notify.THB(r.Variance), ok)
			}
			if err := table.Render(); err != nil {
				return err
			}
			if mismatches > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d day(s) outside tolerance\n", mismatches)
			}
			return nil
		},
	}
}
