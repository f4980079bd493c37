package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/medref-rag/internal/config"
	"github.com/kirillkom/medref-rag/internal/core/corpus"
	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/outline"
	"github.com/kirillkom/medref-rag/internal/core/ports"
	"github.com/kirillkom/medref-rag/internal/core/usecase"
	"github.com/kirillkom/medref-rag/internal/infrastructure/dictionary/excel"
	"github.com/kirillkom/medref-rag/internal/infrastructure/embedcache"
	"github.com/kirillkom/medref-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/medref-rag/internal/infrastructure/queue/nats"
	"github.com/kirillkom/medref-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/medref-rag/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/medref-rag/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/medref-rag/internal/infrastructure/watcher"
	"github.com/kirillkom/medref-rag/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Store    *localfs.Storage
	Corpus   *corpus.Holder
	Loader   *corpus.Loader
	Embedder *ollama.Embedder
	Vectors  *qdrant.Client
	// Notifier is nil when NATS_URL is empty.
	Notifier ports.ReloadNotifier

	Retriever *usecase.RetrieveUseCase
	Answerer  *usecase.AnswerUseCase
	Reloader  *usecase.ReloadUseCase

	closeFn func()
}

// New wires every adapter. It does not load the corpus; call LoadCorpus.
func New(cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)
	httpMetrics := metrics.NewHTTPServerMetrics(service)

	store, err := localfs.New(cfg.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	queryEmbedder, err := embedcache.New(embedder, cfg.OllamaEmbedModel, cfg.QueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init query embedding cache: %w", err)
	}
	httpMetrics.RegisterQueryCache(queryEmbedder.Stats)
	vectors := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor)

	loaderOpts := corpus.LoaderOptions{Logger: logger}
	switch cfg.EmbeddingSource {
	case "", "file":
	case "qdrant":
		loaderOpts.Embeddings = vectors
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "bootstrap",
			fmt.Errorf("unknown EMBEDDING_SOURCE %q", cfg.EmbeddingSource))
	}
	if cfg.SynonymsArtifact != "" {
		loaderOpts.Synonyms = excel.New(store, cfg.SynonymsArtifact, cfg.SynonymsSheet)
	}
	loader := corpus.NewLoader(store, corpus.ArtifactNames{
		Pages:      cfg.PagesArtifact,
		Embeddings: cfg.EmbeddingsArtifact,
		Outline:    cfg.OutlineArtifact,
	}, loaderOpts)

	var matcher ports.OutlineMatcher
	switch cfg.OutlineMatcher {
	case "", "keyword":
		matcher = outline.KeywordMatcher{}
	case "llm":
		matcher = outline.NewLLMMatcher(ollama.NewOutlineSelector(ollamaClient), logger)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "bootstrap",
			fmt.Errorf("unknown OUTLINE_MATCHER %q", cfg.OutlineMatcher))
	}
	var reranker ports.Reranker
	if cfg.RerankEnabled {
		reranker = ollama.NewReranker(ollamaClient)
	}

	holder := corpus.NewHolder(nil)
	retrieveUC := usecase.NewRetrieveUseCase(holder, queryEmbedder, cfg.Ranking, usecase.RetrieveOptions{
		Matcher:  matcher,
		Reranker: reranker,
		Observer: httpMetrics,
		Logger:   logger,
	})
	answerUC := usecase.NewAnswerUseCase(retrieveUC, ollama.NewGenerator(ollamaClient))
	reloadUC := usecase.NewReloadUseCase(loader, holder, httpMetrics, logger)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   httpMetrics,
		Store:     store,
		Corpus:    holder,
		Loader:    loader,
		Embedder:  embedder,
		Vectors:   vectors,
		Retriever: retrieveUC,
		Answerer:  answerUC,
		Reloader:  reloadUC,
	}

	if cfg.NATSURL != "" {
		notifier, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init reload notifier: %w", err)
		}
		app.Notifier = notifier
		app.closeFn = notifier.Close
	}
	return app, nil
}

// LoadCorpus performs the startup load.
func (a *App) LoadCorpus(ctx context.Context) (domain.CorpusInfo, error) {
	return a.Reloader.Reload(ctx, "startup")
}

// RunReloadTriggers runs the artifact watcher and the NATS subscription
// until ctx is done. Triggers that are not configured are skipped.
func (a *App) RunReloadTriggers(ctx context.Context) error {
	reload := func(ctx context.Context, reason string) error {
		_, err := a.Reloader.Reload(ctx, reason)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.Config.WatchArtifacts {
		w := watcher.New(a.Store.Dir(), a.artifactNames(), a.Config.WatchDebounce, reload, a.Logger)
		g.Go(func() error { return w.Run(gctx) })
	}
	if a.Notifier != nil {
		g.Go(func() error {
			return a.Notifier.SubscribeReload(gctx, func(ctx context.Context, reason string) error {
				return reload(ctx, "nats:"+reason)
			})
		})
	}
	return g.Wait()
}

func (a *App) artifactNames() []string {
	names := []string{a.Config.PagesArtifact, a.Config.OutlineArtifact, a.Config.SynonymsArtifact}
	if a.Config.EmbeddingSource != "qdrant" {
		names = append(names, a.Config.EmbeddingsArtifact)
	}
	return names
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		rc.Retry.MaxAttempts = cfg.RetryMaxAttempts
	}
	rc.Breaker.Enabled = cfg.BreakerEnabled
	return rc
}
