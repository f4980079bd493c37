package outline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/ports"
)

// KeywordMatcher runs the keyword strategy of the catalog.
type KeywordMatcher struct{}

func (KeywordMatcher) Match(_ context.Context, catalog ports.OutlineCatalog, question string) (domain.OutlineResult, error) {
	if catalog == nil {
		return emptyResult(), nil
	}
	return catalog.FindRelevantPages(question), nil
}

// LLMMatcher lets a classification model pick outline records. Any
// selector failure falls back to the keyword strategy.
type LLMMatcher struct {
	selector ports.OutlineSelector
	logger   *slog.Logger
}

func NewLLMMatcher(selector ports.OutlineSelector, logger *slog.Logger) *LLMMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMMatcher{selector: selector, logger: logger}
}

func (m *LLMMatcher) Match(ctx context.Context, catalog ports.OutlineCatalog, question string) (domain.OutlineResult, error) {
	if catalog == nil || catalog.Len() == 0 {
		return emptyResult(), nil
	}
	ids, err := m.selectIDs(ctx, catalog, question)
	if err != nil {
		if ctx.Err() != nil {
			return domain.OutlineResult{}, ctx.Err()
		}
		m.logger.Warn("outline_selector_fallback", "error", err)
		return catalog.FindRelevantPages(question), nil
	}
	return catalog.PagesFor(ids), nil
}

func (m *LLMMatcher) selectIDs(ctx context.Context, catalog ports.OutlineCatalog, question string) ([]int, error) {
	compact, err := catalog.CompactJSON()
	if err != nil {
		return nil, fmt.Errorf("compact outline: %w", err)
	}
	ids, err := m.selector.SelectOutline(ctx, question, compact)
	if err != nil {
		return nil, fmt.Errorf("select outline: %w", err)
	}
	return ids, nil
}
