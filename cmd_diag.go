package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lengolf/diag"
)

func NewDiagCommand(opts *RootOptions) *cobra.Command {
	var (
		asJSON    bool
		staleDays int
	)

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Run read-only integrity checks over the database",
		Long: `diag scans for the things that bite later: unpaired punches, overlong
shifts, duplicate receipts, schedule overlaps, negative or stale stock
counts, orphaned staff references. Nothing is modified; use the fix
commands to repair what diag reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			env := diag.Env{
				DB:             db,
				Loc:            opts.Loc,
				VenueOpen:      opts.Config.VenueOpen,
				VenueClose:     opts.Config.VenueClose,
				Pairing:        pairingOptions(opts.Config),
				StaleCountDays: staleDays,
			}
			rep := diag.RunAll(env)

			if asJSON {
				if err := diag.WriteJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			} else if err := diag.WriteTable(cmd.OutOrStdout(), rep); err != nil {
				return err
			}

			if rep.HasErrors() {
				return fmt.Errorf("diagnostics found error-level problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.Flags().IntVar(&staleDays, "stale-days", 0, "days before a stock count goes stale (default 14)")
	return cmd
}
