package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/ports"
)

// Pacer spaces out embedding calls; *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

type EmbedOptions struct {
	BatchSize   int
	Parallelism int
	Pacer       Pacer
	// Sink, when set, receives every embedded page after the run.
	Sink   ports.EmbeddingSink
	Logger *slog.Logger
}

// EmbedPagesUseCase builds the page embeddings artifact offline.
type EmbedPagesUseCase struct {
	embedder ports.Embedder
	opts     EmbedOptions
}

func NewEmbedPagesUseCase(embedder ports.Embedder, opts EmbedOptions) *EmbedPagesUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &EmbedPagesUseCase{embedder: embedder, opts: opts}
}

// EmbedPages embeds the trimmed text of every non-empty page, in input
// order. All vectors must share one dimension.
func (uc *EmbedPagesUseCase) EmbedPages(ctx context.Context, pages []domain.Page) ([]domain.PageEmbedding, error) {
	start := time.Now()
	kept := make([]domain.Page, 0, len(pages))
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		kept = append(kept, domain.Page{Number: p.Number, Text: text})
	}
	if len(kept) == 0 {
		return []domain.PageEmbedding{}, nil
	}

	vectors := make([][]float32, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Parallelism)
	for from := 0; from < len(kept); from += uc.opts.BatchSize {
		to := min(from+uc.opts.BatchSize, len(kept))
		g.Go(func() error {
			if uc.opts.Pacer != nil {
				if err := uc.opts.Pacer.Wait(gctx); err != nil {
					return err
				}
			}
			texts := make([]string, 0, to-from)
			for _, p := range kept[from:to] {
				texts = append(texts, p.Text)
			}
			batch, err := uc.embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed pages %d-%d: %w", kept[from].Number, kept[to-1].Number, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("embed pages %d-%d: got %d vectors for %d texts", kept[from].Number, kept[to-1].Number, len(batch), len(texts))
			}
			copy(vectors[from:to], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dimension := len(vectors[0])
	out := make([]domain.PageEmbedding, len(kept))
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dimension {
			return nil, domain.WrapError(domain.ErrDimensionMismatch, "embed pages",
				fmt.Errorf("page %d has %d dimensions, expected %d", kept[i].Number, len(v), dimension))
		}
		out[i] = domain.PageEmbedding{Number: kept[i].Number, Vector: v}
	}

	if uc.opts.Sink != nil {
		if err := uc.opts.Sink.UpsertEmbeddings(ctx, kept, vectors); err != nil {
			return nil, fmt.Errorf("upsert embeddings: %w", err)
		}
	}
	uc.opts.Logger.Info("pages_embedded",
		"pages", len(pages),
		"embedded", len(out),
		"skipped_empty", len(pages)-len(kept),
		"dimension", dimension,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
