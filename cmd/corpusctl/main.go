package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/medref-rag/internal/bootstrap"
	"github.com/kirillkom/medref-rag/internal/config"
	"github.com/kirillkom/medref-rag/internal/observability/logging"
)

var artifactDir string

var rootCmd = &cobra.Command{
	Use:   "corpusctl",
	Short: "Build and inspect the textbook corpus artifacts",
	Long: `corpusctl prepares the artifacts served by the retrieval API:
page text extracted from the PDF volumes, page embeddings and the outline.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&artifactDir, "artifact-dir", "", "artifact directory (default ARTIFACT_DIR)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadApp wires the application for one command. Logs go to stderr so
// stdout stays machine readable.
func loadApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if artifactDir != "" {
		cfg.ArtifactDir = artifactDir
	}
	cfg.WatchArtifacts = false
	logger := logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "medref-corpusctl", cfg.LogLevel)
	app, err := bootstrap.New(cfg, "corpusctl", logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}
