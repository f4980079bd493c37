package ports

import (
	"context"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

// Retriever is the inbound contract for page retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, question string) (*domain.RetrievalResult, error)
}

// QuestionAnswerer answers a question grounded on retrieved pages.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// CorpusReloader swaps the served corpus snapshot and reports on it.
type CorpusReloader interface {
	Reload(ctx context.Context, reason string) (domain.CorpusInfo, error)
	Info() (domain.CorpusInfo, error)
}
