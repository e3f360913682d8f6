// Package cmd contains the moss command line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mossbase/moss/internal/app"
	"github.com/mossbase/moss/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "moss",
	Short: "Moss is an AI assistant for your personal knowledge workspace",
	Long: `Moss answers questions, compiles research briefs and creates tasks
using your own indexed notes and documents. It combines a local vector
index with a locally-hosted language model (Ollama by default).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupApp loads configuration and constructs the application. Callers
// must Close the returned App.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}
