package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/kirillkom/medref-rag/internal/core/usecase"
)

var (
	embedOut      string
	embedQdrant   bool
	embedBatch    int
	embedParallel int
	embedRPS      float64
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed every non-empty page",
	Long: `Reads the pages artifact, embeds each non-empty page with the configured
Ollama model and writes the embeddings artifact. With --qdrant the vectors
are also upserted into the Qdrant collection.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedOut, "out", "", "embeddings artifact name (default EMBEDDINGS_ARTIFACT)")
	embedCmd.Flags().BoolVar(&embedQdrant, "qdrant", false, "also upsert vectors into Qdrant")
	embedCmd.Flags().IntVar(&embedBatch, "batch", 0, "pages per embedding call (default EMBED_BATCH_SIZE)")
	embedCmd.Flags().IntVar(&embedParallel, "parallel", 0, "concurrent embedding calls (default EMBED_PARALLELISM)")
	embedCmd.Flags().Float64Var(&embedRPS, "rps", 0, "embedding calls per second (default EMBED_RATE_LIMIT_RPS)")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.Config

	pages, err := app.Loader.Pages(cmd.Context())
	if err != nil {
		return err
	}

	opts := usecase.EmbedOptions{
		BatchSize:   firstPositive(embedBatch, cfg.EmbedBatchSize),
		Parallelism: firstPositive(embedParallel, cfg.EmbedParallelism),
		Logger:      app.Logger,
	}
	if rps := firstPositiveFloat(embedRPS, cfg.EmbedRateLimitRPS); rps > 0 {
		opts.Pacer = rate.NewLimiter(rate.Limit(rps), 1)
	}
	if embedQdrant {
		opts.Sink = app.Vectors
	}

	embeddings, err := usecase.NewEmbedPagesUseCase(app.Embedder, opts).EmbedPages(cmd.Context(), pages)
	if err != nil {
		return err
	}

	out := embedOut
	if out == "" {
		out = cfg.EmbeddingsArtifact
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(embeddings); err != nil {
		return fmt.Errorf("encode embeddings: %w", err)
	}
	if err := app.Store.Save(cmd.Context(), out, &buf); err != nil {
		return err
	}
	cmd.Printf("embedded %d of %d pages into %s\n", len(embeddings), len(pages), out)
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveFloat(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
