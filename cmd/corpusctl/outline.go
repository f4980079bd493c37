package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/medref-rag/internal/core/corpus"
)

var (
	outlineFile   string
	outlineStrict bool
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Outline artifact tools",
}

var outlineCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse the outline and report kept and skipped entries",
	Args:  cobra.NoArgs,
	RunE:  runOutlineCheck,
}

func init() {
	outlineCheckCmd.Flags().StringVar(&outlineFile, "file", "", "outline artifact name (default OUTLINE_ARTIFACT)")
	outlineCheckCmd.Flags().BoolVar(&outlineStrict, "strict", false, "fail when any entry is skipped")
	outlineCmd.AddCommand(outlineCheckCmd)
	rootCmd.AddCommand(outlineCmd)
}

func runOutlineCheck(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	name := outlineFile
	if name == "" {
		name = app.Config.OutlineArtifact
	}
	loader := corpus.NewLoader(app.Store, corpus.ArtifactNames{Outline: name}, corpus.LoaderOptions{Logger: app.Logger})
	report, err := loader.CheckOutline(cmd.Context())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	cmd.Println(string(data))
	if outlineStrict && report.Skipped > 0 {
		return fmt.Errorf("outline %s: %d entries skipped", name, report.Skipped)
	}
	return nil
}
