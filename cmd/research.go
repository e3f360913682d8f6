package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var researchDepth int

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Compile a cited research brief on a topic",
	Long: `Research decomposes the topic into sub-questions, runs a deep search
for each and renders the evidence into a citation-numbered brief.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		depth := researchDepth
		if depth == 0 {
			depth = a.Config.ResearchDepth
		}

		topic := strings.Join(args, " ")
		brief, err := a.Research.Research(ctx, topic, depth)
		if err != nil {
			return fmt.Errorf("researching %q: %w", topic, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), brief.Render())
		return nil
	},
}

func init() {
	researchCmd.Flags().IntVarP(&researchDepth, "depth", "d", 0,
		"number of sub-questions to explore (1-5, default from config)")
	rootCmd.AddCommand(researchCmd)
}
