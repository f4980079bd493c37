package retrieval

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/textnorm"
)

// scoreBlock is the number of candidates one scoring goroutine handles.
const scoreBlock = 64

type RankInput struct {
	Question       string
	QueryEmbedding []float32
	Scope          Scope
	OutlinePages   []int
	Config         domain.RankingConfig
}

// Rank scores every page in the scope and returns them in final order:
// FinalScore descending, then page number ascending. An empty scope yields
// an empty ranking, not an error.
func Rank(ctx context.Context, src PageSource, in RankInput) ([]domain.RankedCandidate, error) {
	if len(in.Scope.Pages) == 0 {
		return []domain.RankedCandidate{}, nil
	}
	cfg := in.Config.Normalize()

	tokens := textnorm.Tokenize(in.Question, cfg.MinTokenLen)
	phrase := textnorm.PhraseOf(in.Question)
	if !strings.Contains(phrase, " ") {
		// single-word questions are covered by the literal boost
		phrase = ""
	}
	outline := make(map[int]struct{}, len(in.OutlinePages))
	for _, p := range in.OutlinePages {
		outline[p] = struct{}{}
	}

	candidates := make([]domain.Candidate, len(in.Scope.Pages))
	score := func(i int) error {
		page := in.Scope.Pages[i]
		vector, ok := src.Embedding(page)
		if !ok {
			return fmt.Errorf("page %d has no embedding", page)
		}
		sim, err := CosineSimilarity(in.QueryEmbedding, vector)
		if err != nil {
			return fmt.Errorf("score page %d: %w", page, err)
		}
		text, _ := src.NormalizedText(page)
		lexical := textnorm.CountAll(text, tokens)

		c := domain.Candidate{
			Page:           page,
			EmbeddingScore: sim,
			LexicalScore:   lexical,
		}
		_, c.InOutline = outline[page]
		if cfg.StrictLiteral {
			c.HasLiteralMatch = lexical > 0
			c.HasPhraseMatch = phrase != "" && strings.Contains(text, phrase)
		}
		candidates[i] = c
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(candidates); start += scoreBlock {
		end := min(start+scoreBlock, len(candidates))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := score(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return composeScores(candidates, in.Scope.Mode, cfg), nil
}

func composeScores(candidates []domain.Candidate, mode domain.ScopeMode, cfg domain.RankingConfig) []domain.RankedCandidate {
	minEmb, maxEmb := math.Inf(1), math.Inf(-1)
	maxLex := 0
	for _, c := range candidates {
		minEmb = math.Min(minEmb, c.EmbeddingScore)
		maxEmb = math.Max(maxEmb, c.EmbeddingScore)
		if c.LexicalScore > maxLex {
			maxLex = c.LexicalScore
		}
	}
	embRange := math.Max(Epsilon, maxEmb-minEmb)
	lexDenom := float64(max(1, maxLex))

	embWeight := cfg.EmbeddingWeight(mode)
	lexWeight := 1 - embWeight
	outlineBoost := cfg.OutlineBoost(mode)

	out := make([]domain.RankedCandidate, len(candidates))
	for i, c := range candidates {
		r := domain.RankedCandidate{
			Candidate:     c,
			EmbeddingNorm: (c.EmbeddingScore - minEmb) / embRange,
			LexicalNorm:   float64(c.LexicalScore) / lexDenom,
		}
		r.FinalScore = embWeight*r.EmbeddingNorm + lexWeight*r.LexicalNorm
		if c.InOutline {
			r.FinalScore += outlineBoost
		}
		if c.HasLiteralMatch {
			r.FinalScore += cfg.LiteralBoost
		}
		if c.HasPhraseMatch {
			r.FinalScore += cfg.PhraseBoost
		}
		out[i] = r
	}
	SortRanked(out)
	return out
}

// SortRanked orders by FinalScore descending, then page ascending.
func SortRanked(ranked []domain.RankedCandidate) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].Page < ranked[j].Page
	})
}

// Preview returns the first k pages with their final scores.
func Preview(ranked []domain.RankedCandidate, k int) []domain.ScoredPage {
	if k <= 0 || k > len(ranked) {
		k = len(ranked)
	}
	out := make([]domain.ScoredPage, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, domain.ScoredPage{Page: r.Page, FinalScore: r.FinalScore})
	}
	return out
}
