package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/medref-rag/internal/core/corpus"
	"github.com/kirillkom/medref-rag/internal/core/domain"
)

// CorpusLoader builds a fresh snapshot from the artifacts.
type CorpusLoader interface {
	Load(ctx context.Context) (*corpus.Corpus, error)
}

type ReloadObserver interface {
	ObserveReload(status string, info domain.CorpusInfo)
}

type ReloadUseCase struct {
	loader   CorpusLoader
	holder   *corpus.Holder
	observer ReloadObserver
	logger   *slog.Logger

	mu sync.Mutex
}

func NewReloadUseCase(loader CorpusLoader, holder *corpus.Holder, observer ReloadObserver, logger *slog.Logger) *ReloadUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadUseCase{
		loader:   loader,
		holder:   holder,
		observer: observer,
		logger:   logger,
	}
}

// Reload loads a new snapshot and swaps it in. On failure the served
// snapshot stays untouched. Concurrent reloads run one at a time.
func (uc *ReloadUseCase) Reload(ctx context.Context, reason string) (domain.CorpusInfo, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	next, err := uc.loader.Load(ctx)
	if err != nil {
		uc.logger.Error("corpus_reload_failed", "reason", reason, "error", err)
		uc.observe("failure", domain.CorpusInfo{})
		return domain.CorpusInfo{}, fmt.Errorf("reload corpus: %w", err)
	}

	previous := uc.holder.Swap(next)
	info := next.Info()
	previousVersion := ""
	if previous != nil {
		previousVersion = previous.Version()
	}
	uc.logger.Info("corpus_reloaded",
		"reason", reason,
		"version", info.Version,
		"previous_version", previousVersion,
		"pages", info.Pages,
		"embeddings", info.Embeddings,
		"dimension", info.Dimension,
		"outline_records", info.OutlineRecords,
	)
	uc.observe("success", info)
	return info, nil
}

func (uc *ReloadUseCase) Info() (domain.CorpusInfo, error) {
	current, err := uc.holder.Current()
	if err != nil {
		return domain.CorpusInfo{}, err
	}
	return current.Info(), nil
}

func (uc *ReloadUseCase) observe(status string, info domain.CorpusInfo) {
	if uc.observer != nil {
		uc.observer.ObserveReload(status, info)
	}
}
