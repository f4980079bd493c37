package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/corpus"
	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/outline"
	"github.com/kirillkom/medref-rag/internal/core/ports"
	"github.com/kirillkom/medref-rag/internal/core/retrieval"
)

// RetrievalObserver receives one observation per finished request.
type RetrievalObserver interface {
	ObserveRetrieval(scope domain.ScopeMode, candidates, pages int, duration time.Duration)
	ObserveRerankFallback()
}

type RetrieveOptions struct {
	// Matcher defaults to the keyword strategy.
	Matcher  ports.OutlineMatcher
	Reranker ports.Reranker
	Observer RetrievalObserver
	Logger   *slog.Logger
}

type RetrieveUseCase struct {
	corpus   *corpus.Holder
	embedder ports.Embedder
	matcher  ports.OutlineMatcher
	reranker ports.Reranker
	config   domain.RankingConfig
	observer RetrievalObserver
	logger   *slog.Logger
}

func NewRetrieveUseCase(
	holder *corpus.Holder,
	embedder ports.Embedder,
	config domain.RankingConfig,
	opts RetrieveOptions,
) *RetrieveUseCase {
	uc := &RetrieveUseCase{
		corpus:   holder,
		embedder: embedder,
		matcher:  opts.Matcher,
		reranker: opts.Reranker,
		config:   config.Normalize(),
		observer: opts.Observer,
		logger:   opts.Logger,
	}
	if uc.matcher == nil {
		uc.matcher = outline.KeywordMatcher{}
	}
	if uc.logger == nil {
		uc.logger = slog.Default()
	}
	return uc
}

// Retrieve runs the whole pipeline against one corpus snapshot. A question
// that leads nowhere is an empty result, not an error.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, question string) (*domain.RetrievalResult, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return domain.EmptyResult(domain.ScopeGlobal, ""), nil
	}

	snapshot, err := uc.corpus.Current()
	if err != nil {
		return nil, err
	}

	match, err := uc.matcher.Match(ctx, snapshot.Outline(), question)
	if err != nil {
		return nil, fmt.Errorf("match outline: %w", err)
	}
	scope := retrieval.SelectScope(match.Pages, snapshot, uc.config.AdjacencyWindow)
	if len(scope.Pages) == 0 {
		result := domain.EmptyResult(scope.Mode, snapshot.Version())
		result.OutlineMatches = match.Matches
		uc.finish(result, 0, start)
		return result, nil
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVector) != snapshot.Dimension() {
		return nil, domain.WrapError(
			domain.ErrDimensionMismatch,
			"retrieve",
			fmt.Errorf("query has %d dimensions, corpus has %d", len(queryVector), snapshot.Dimension()),
		)
	}

	ranked, err := retrieval.Rank(ctx, snapshot, retrieval.RankInput{
		Question:       question,
		QueryEmbedding: queryVector,
		Scope:          scope,
		OutlinePages:   match.Pages,
		Config:         uc.config,
	})
	if err != nil {
		return nil, fmt.Errorf("rank pages: %w", err)
	}
	ranked, reranked := uc.rerank(ctx, snapshot, question, ranked)

	selected := retrieval.SelectPages(ranked, snapshot, retrieval.SelectOptions{
		TopN:        uc.config.TopN,
		ExpandRange: uc.config.ExpandRange,
		MaxPages:    uc.config.MaxPages,
		Scope:       scope,
	})
	priority := make([]int, 0, len(ranked))
	for _, r := range ranked {
		priority = append(priority, r.Page)
	}
	assembled := retrieval.AssembleContext(selected, priority, snapshot, uc.config.MaxContextChars)

	result := &domain.RetrievalResult{
		Pages:          assembled.Pages,
		ContextText:    assembled.Text,
		Scope:          scope.Mode,
		RankedPreview:  retrieval.Preview(ranked, uc.config.PreviewK),
		OutlineMatches: match.Matches,
		CorpusVersion:  snapshot.Version(),
		Reranked:       reranked,
	}
	uc.finish(result, len(ranked), start)
	return result, nil
}

// rerank hands the head of the ranking to the optional reranker. Any
// failure keeps the score order.
func (uc *RetrieveUseCase) rerank(
	ctx context.Context,
	snapshot *corpus.Corpus,
	question string,
	ranked []domain.RankedCandidate,
) ([]domain.RankedCandidate, bool) {
	if uc.reranker == nil || len(ranked) < 2 {
		return ranked, false
	}
	head := retrieval.Head(ranked, uc.config.RerankTopK)
	numbers := make([]int, 0, len(head))
	for _, r := range head {
		numbers = append(numbers, r.Page)
	}

	order, err := uc.reranker.Rerank(ctx, question, snapshot.Passages(numbers))
	if err != nil {
		uc.logger.Warn("rerank_fallback", "error", err)
		if uc.observer != nil {
			uc.observer.ObserveRerankFallback()
		}
		return ranked, false
	}
	reordered, applied := retrieval.RerankHead(ranked, len(head), order)
	if !applied && len(order) > 0 {
		uc.logger.Warn("rerank_order_ignored", "order", order, "head", numbers)
	}
	return reordered, applied
}

func (uc *RetrieveUseCase) finish(result *domain.RetrievalResult, candidates int, start time.Time) {
	duration := time.Since(start)
	uc.logger.Info("retrieval_completed",
		"scope", result.Scope,
		"candidates", candidates,
		"pages", result.Pages,
		"outline_matches", len(result.OutlineMatches),
		"reranked", result.Reranked,
		"context_chars", len([]rune(result.ContextText)),
		"corpus_version", result.CorpusVersion,
		"duration_ms", duration.Milliseconds(),
	)
	if uc.observer != nil {
		uc.observer.ObserveRetrieval(result.Scope, candidates, len(result.Pages), duration)
	}
}
