package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/medref-rag/internal/infrastructure/extractor/pdf"
)

var (
	extractVolumes []string
	extractPDFDir  string
	extractOut     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract page text from the PDF volumes",
	Long: `Reads every page of every volume and writes the pages artifact.
A volume is "path:firstPage", either a PDF or pdftotext output (.txt);
without --volume the three volumes of the
reference edition are read from --pdf-dir.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringArrayVar(&extractVolumes, "volume", nil, "PDF volume as path:firstPage (repeatable)")
	extractCmd.Flags().StringVar(&extractPDFDir, "pdf-dir", ".", "directory holding the default volumes")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "pages artifact name (default PAGES_ARTIFACT)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	volumes := pdf.DefaultVolumes(extractPDFDir)
	if len(extractVolumes) > 0 {
		volumes = volumes[:0]
		for _, raw := range extractVolumes {
			v, err := pdf.ParseVolume(raw)
			if err != nil {
				return err
			}
			volumes = append(volumes, v)
		}
	}

	pages, err := pdf.NewExtractor(app.Logger).Extract(cmd.Context(), volumes)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("extract: no page read from %d volume(s)", len(volumes))
	}

	out := extractOut
	if out == "" {
		out = app.Config.PagesArtifact
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pages); err != nil {
		return fmt.Errorf("encode pages: %w", err)
	}
	if err := app.Store.Save(cmd.Context(), out, &buf); err != nil {
		return err
	}
	cmd.Printf("extracted %d pages into %s\n", len(pages), out)
	return nil
}
