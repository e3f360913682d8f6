package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mossbase/moss/internal/agent"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against your knowledge base",
	Long: `Ask runs the tool-calling loop: the model may search your knowledge
base, run deep searches, compile research briefs or create tasks before
answering.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		query := strings.Join(args, " ")
		outcome, err := a.Agent.Run(ctx, query)
		if err != nil {
			return fmt.Errorf("running agent: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), outcome.Answer)
		if outcome.Status == agent.StatusExhausted {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n(stopped after %d turns without a final answer)\n", outcome.Turns)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
