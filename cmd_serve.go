package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"lengolf/invoice"
	"lengolf/payroll"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the back-office HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if addr == "" {
				addr = opts.Config.ListenAddr
			}

			mux := http.NewServeMux()
			SetupRoutes(mux, Deps{
				DB:       db,
				Loc:      opts.Loc,
				Cfg:      opts.Config,
				Calc:     payroll.NewCalculator(db, opts.Loc, payrollParams(opts.Config)),
				Invoices: invoice.NewService(db, opts.Loc, opts.Config.InvoicesDir),
				Notifier: notifyClient(opts.Config),
				Logger:   opts.Logger,
			})
			return runServer(opts.Logger, addr, withMiddleware(mux, opts.Logger))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the config listenAddr)")
	return cmd
}
