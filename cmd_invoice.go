package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/database"
	"lengolf/invoice"
	"lengolf/model"
	"lengolf/notify"
)

func NewInvoiceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Supplier withholding-tax invoices",
	}
	cmd.AddCommand(
		newInvoiceGenerateCommand(opts),
		newInvoiceListCommand(opts),
	)
	return cmd
}

func newInvoiceGenerateCommand(opts *RootOptions) *cobra.Command {
	var (
		supplierID   int
		supplierName string
		number       string
		date         string
		whtRate      float64
		items        []string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a supplier invoice PDF",
		Long: `generate computes totals, stores the invoice and prints the PDF into the
invoices directory. Without --item the supplier's default line is used;
without --number the venue-local YYYYMM sequence assigns one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			req := invoice.CreateRequest{
				SupplierID:    supplierID,
				SupplierName:  supplierName,
				InvoiceNumber: number,
				InvoiceDate:   date,
			}
			if cmd.Flags().Changed("wht-rate") {
				req.WHTRate = &whtRate
			}
			for _, raw := range items {
				item, err := parseItemFlag(raw)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}

			svc := invoice.NewService(db, opts.Loc, opts.Config.InvoicesDir)
			inv, err := svc.Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "invoice %s: subtotal %s, WHT %.2f%% = %s, total %s\n",
				inv.InvoiceNumber, notify.THB(inv.Subtotal), inv.WHTRate, notify.THB(inv.WHTAmount), notify.THB(inv.Total))
			if inv.PDFPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), inv.PDFPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&supplierID, "supplier-id", 0, "supplier id")
	cmd.Flags().StringVar(&supplierName, "supplier", "", "supplier name (alternative to --supplier-id)")
	cmd.Flags().StringVar(&number, "number", "", "invoice number (defaults to the monthly sequence)")
	cmd.Flags().StringVar(&date, "date", "", "invoice date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Float64Var(&whtRate, "wht-rate", 0, "withholding rate percent (defaults to the default_wht_rate setting)")
	cmd.Flags().StringArrayVar(&items, "item", nil, `invoice line as "description=amount", repeatable`)
	return cmd
}

// parseItemFlag turns "Pro shop restock=1500.50" into a single-quantity line.
func parseItemFlag(raw string) (model.InvoiceItem, error) {
	desc, amountStr, ok := strings.Cut(raw, "=")
	desc = strings.TrimSpace(desc)
	if !ok || desc == "" {
		return model.InvoiceItem{}, fmt.Errorf(`item %q must look like "description=amount"`, raw)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
	if err != nil {
		return model.InvoiceItem{}, fmt.Errorf("item %q has a bad amount: %w", raw, err)
	}
	return model.InvoiceItem{Description: desc, Quantity: 1, UnitPrice: amount}, nil
}

func newInvoiceListCommand(opts *RootOptions) *cobra.Command {
	var (
		supplierID int
		month      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			invoices, err := database.ListInvoices(db, supplierID, month)
			if err != nil {
				return err
			}
			if len(invoices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no invoices")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Number", "Date", "Supplier", "Subtotal", "WHT", "Total", "PDF")
			for _, inv := range invoices {
				_ = table.Append(
					inv.InvoiceNumber,
					inv.InvoiceDate,
					strconv.Itoa(inv.SupplierID),
					notify.THB(inv.Subtotal),
					notify.THB(inv.WHTAmount),
					notify.THB(inv.Total),
					inv.PDFPath,
				)
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVar(&supplierID, "supplier-id", 0, "filter by supplier")
	cmd.Flags().StringVar(&month, "month", "", "filter by month (YYYY-MM)")
	return cmd
}
