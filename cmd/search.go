package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a deep search against the knowledge base",
	Long: `Search expands the query into several variants, fans them out against
the vector index, deduplicates and reranks the combined candidates.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		query := strings.Join(args, " ")
		results, err := a.DeepSearch.Search(ctx, query)
		if err != nil {
			return fmt.Errorf("searching %q: %w", query, err)
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no results found")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintf(out, "[%d] score=%.3f id=%s\n%s\n\n", r.Rank, r.Score, r.ID, r.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
