package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lengolf/config"
	"lengolf/database"
	"lengolf/notify"
	"lengolf/payroll"
	"lengolf/timeclock"
)

var version = "dev"

// RootOptions carries the persistent flags plus the state resolved in
// PersistentPreRunE, shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Verbose    bool

	Logger *zap.Logger
	Config config.Config
	Loc    *time.Location
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lengolf",
		Short: "Back office for the LENGOLF venue",
		Long: `lengolf runs the venue's back office from one SQLite file: staff time
clock and payroll, shift scheduling, stock counts, POS review, coaching
bookings, FAQ seeding for the LINE bot and supplier withholding-tax
invoices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zapCfg := zap.NewProductionConfig()
			if opts.Verbose {
				zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zapCfg.Build()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			opts.Logger = logger

			cfg, err := config.LoadConfig(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.DBPath != "" {
				cfg.DBPath = opts.DBPath
			}
			opts.Config = cfg
			opts.Loc = config.Location()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database file (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		NewServeCommand(opts),
		NewMigrateCommand(opts),
		NewBackupCommand(opts),
		NewPayrollCommand(opts),
		NewStaffCommand(opts),
		NewScheduleCommand(opts),
		NewInventoryCommand(opts),
		NewPOSCommand(opts),
		NewCoachCommand(opts),
		NewFAQCommand(opts),
		NewInvoiceCommand(opts),
		NewSettingsCommand(opts),
		NewHolidayCommand(opts),
		NewDiagCommand(opts),
		NewFixCommand(opts),
		NewConfigCommand(opts),
		NewVersionCommand(),
	)
	return cmd
}

// openDatabase opens the configured SQLite file and brings the schema up to
// date so every command sees the same shape.
func openDatabase(opts *RootOptions) (*sqlx.DB, error) {
	db, err := database.Open(opts.Config.DBPath)
	if err != nil {
		return nil, err
	}
	applied, err := database.Migrate(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if applied > 0 {
		opts.Logger.Info("applied migrations",
			zap.Int("applied", applied),
			zap.String("db", opts.Config.DBPath))
	}
	return db, nil
}

func pairingOptions(cfg config.Config) timeclock.Options {
	return timeclock.Options{
		DedupeWindow: time.Duration(cfg.Payroll.DedupeWindowMinutes) * time.Minute,
		MaxShift:     time.Duration(cfg.Payroll.MaxShiftHours * float64(time.Hour)),
	}
}

func payrollParams(cfg config.Config) payroll.Params {
	return payroll.Params{
		StandardWeeklyHours: cfg.Payroll.StandardWeeklyHours,
		WorkingDayMinHours:  cfg.Payroll.WorkingDayMinHours,
		Pairing:             pairingOptions(cfg),
		Concurrency:         cfg.Payroll.Concurrency,
	}
}

func notifyClient(cfg config.Config) *notify.Client {
	return notify.NewClient(cfg.Line.ChannelToken, cfg.Line.DefaultRecipient)
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lengolf version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "lengolf", version)
		},
	}
}
