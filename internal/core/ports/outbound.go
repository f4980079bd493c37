package ports

import (
	"context"
	"io"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

// Embedder builds vectors for page text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator writes the final answer from the assembled context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, contextText string, pages []int) (string, error)
}

// OutlineSelector asks a classification model which outline records are
// relevant. compact is the JSON produced by OutlineCatalog.CompactJSON.
type OutlineSelector interface {
	SelectOutline(ctx context.Context, question string, compact []byte) ([]int, error)
}

// OutlineCatalog is the read side of an outline index.
type OutlineCatalog interface {
	Len() int
	FindRelevantPages(question string) domain.OutlineResult
	PagesFor(ids []int) domain.OutlineResult
	CompactJSON() ([]byte, error)
}

// OutlineMatcher maps a question to outline pages.
type OutlineMatcher interface {
	Match(ctx context.Context, catalog OutlineCatalog, question string) (domain.OutlineResult, error)
}

// Reranker reorders the head of the ranking. It returns page numbers, most
// relevant first; pages it omits keep their score order after the ones it
// returns.
type Reranker interface {
	Rerank(ctx context.Context, question string, passages []domain.Page) ([]int, error)
}

// ArtifactStore reads and writes corpus artifacts by name.
type ArtifactStore interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Save(ctx context.Context, name string, data io.Reader) error
}

// EmbeddingSource loads page embeddings from an external store.
type EmbeddingSource interface {
	LoadEmbeddings(ctx context.Context) ([]domain.PageEmbedding, error)
}

// EmbeddingSink stores page embeddings in an external store.
type EmbeddingSink interface {
	UpsertEmbeddings(ctx context.Context, pages []domain.Page, vectors [][]float32) error
}

// SynonymSource loads alias clusters, one slice of aliases per cluster.
type SynonymSource interface {
	LoadSynonyms(ctx context.Context) ([][]string, error)
}

// ReloadNotifier publishes and consumes corpus reload requests.
type ReloadNotifier interface {
	PublishReload(ctx context.Context, reason string) error
	SubscribeReload(ctx context.Context, handler func(context.Context, string) error) error
}
