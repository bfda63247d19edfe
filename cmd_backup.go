package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/backup"
)

func NewBackupCommand(opts *RootOptions) *cobra.Command {
	var (
		dir       string
		retention int
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database to an xz-compressed file",
		Long: `backup takes a consistent snapshot of the live database with VACUUM INTO,
compresses it with xz and drops snapshots beyond the retention count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if dir == "" {
				dir = opts.Config.BackupsDir
			}
			if retention == 0 {
				retention = opts.Config.BackupRetention
			}

			path, err := backup.Run(db, backup.Options{
				Dir:       dir,
				Retention: retention,
				Progress:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (defaults to the config backupsDir)")
	cmd.Flags().IntVar(&retention, "retention", 0, "snapshots to keep, 0 uses the config value, negative disables pruning")

	cmd.AddCommand(newBackupListCommand(opts), newBackupPruneCommand(opts))
	return cmd
}

func newBackupListCommand(opts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List existing snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.Config.BackupsDir
			}
			infos, err := backup.List(dir)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no snapshots in", dir)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Name", "Size", "Modified")
			for _, info := range infos {
				_ = table.Append(info.Name, humanSize(info.Size), info.ModTime.Format(time.RFC3339))
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (defaults to the config backupsDir)")
	return cmd
}

func newBackupPruneCommand(opts *RootOptions) *cobra.Command {
	var (
		dir  string
		keep int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots beyond the newest N",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.Config.BackupsDir
			}
			if keep == 0 {
				keep = opts.Config.BackupRetention
			}
			removed, err := backup.Prune(dir, keep)
			if err != nil {
				return err
			}
			for _, name := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kept newest %d snapshot(s)\n", keep)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (defaults to the config backupsDir)")
	cmd.Flags().IntVar(&keep, "keep", 0, "snapshots to keep (defaults to the config retention)")
	return cmd
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
