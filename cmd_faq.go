package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lengolf/faq"
)

func NewFAQCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "LINE bot FAQ entries",
	}
	cmd.AddCommand(
		newFAQSeedCommand(opts),
		newFAQSearchCommand(opts),
	)
	return cmd
}

func newFAQSeedCommand(opts *RootOptions) *cobra.Command {
	var (
		file  string
		prune bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the FAQ seed file into the database",
		Long: `seed upserts every entry from the YAML seed file, keyed by language and
question. With --prune, active entries missing from the file are deactivated
so the bot stops serving them. Reseeding an unchanged file is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = opts.Config.FAQSeedFile
			}
			seed, err := faq.LoadSeedFile(file)
			if err != nil {
				return err
			}

			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := faq.Seed(db, seed, prune)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d, updated %d, unchanged %d, pruned %d\n",
				stats.Added, stats.Updated, stats.Unchanged, stats.Pruned)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "seed YAML path (defaults to the config faqSeedFile)")
	cmd.Flags().BoolVar(&prune, "prune", false, "deactivate entries missing from the seed file")
	return cmd
}

func newFAQSearchCommand(opts *RootOptions) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search active FAQ entries the way the bot does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := faq.Search(db, args[0], lang)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no matches for %q\n", args[0])
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Lang", "Category", "Question", "Answer")
			for _, e := range entries {
				_ = table.Append(e.Language, e.Category, e.Question, e.Answer)
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "restrict to one language (th, en)")
	return cmd
}
