package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lengolf/database"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(opts.Config.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(db)
			if err != nil {
				return err
			}
			version, err := database.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s), schema at version %d\n", applied, version)
			return nil
		},
	}
}
