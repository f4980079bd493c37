package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	ArtifactDir        string
	PagesArtifact      string
	EmbeddingsArtifact string
	OutlineArtifact    string
	SynonymsArtifact   string
	SynonymsSheet      string

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	// OutlineMatcher is "keyword" or "llm".
	OutlineMatcher string
	RerankEnabled  bool

	EmbeddingSource  string
	QdrantURL        string
	QdrantCollection string

	NATSURL     string
	NATSSubject string

	WatchArtifacts bool
	WatchDebounce  time.Duration

	QueryCacheSize int

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIBackpressureMax  int
	APIBackpressureWait time.Duration
	APIMaxConnections   int
	APIValidateRequests bool
	APIRequestTimeout   time.Duration

	RetryMaxAttempts int
	BreakerEnabled   bool

	EmbedRateLimitRPS float64
	EmbedBatchSize    int
	EmbedParallelism  int

	RankingConfigPath string
	Ranking           domain.RankingConfig
}

// Load reads the environment. It fails only when RANKING_CONFIG_PATH is set
// and the file cannot be read or decoded.
func Load() (Config, error) {
	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		ArtifactDir:        mustEnv("ARTIFACT_DIR", "./data"),
		PagesArtifact:      mustEnv("PAGES_ARTIFACT", "abramede_texto.json"),
		EmbeddingsArtifact: mustEnv("EMBEDDINGS_ARTIFACT", "embeddings_abramede.json"),
		OutlineArtifact:    mustEnv("OUTLINE_ARTIFACT", "estrutura_abramede.json"),
		SynonymsArtifact:   mustEnv("SYNONYMS_ARTIFACT", ""),
		SynonymsSheet:      mustEnv("SYNONYMS_SHEET", ""),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		OutlineMatcher: strings.ToLower(mustEnv("OUTLINE_MATCHER", "keyword")),
		RerankEnabled:  mustEnvBool("RERANK_ENABLED", false),

		EmbeddingSource:  strings.ToLower(mustEnv("EMBEDDING_SOURCE", "file")),
		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "abramede_pages"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "corpus.reload"),

		WatchArtifacts: mustEnvBool("WATCH_ARTIFACTS", true),
		WatchDebounce:  mustEnvDuration("WATCH_DEBOUNCE", 2*time.Second),

		QueryCacheSize: mustEnvInt("QUERY_CACHE_SIZE", 1024),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIBackpressureMax:  mustEnvInt("API_BACKPRESSURE_MAX_IN_FLIGHT", 32),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT", 250*time.Millisecond),
		APIMaxConnections:   mustEnvInt("API_MAX_CONNECTIONS", 256),
		APIValidateRequests: mustEnvBool("API_VALIDATE_REQUESTS", true),
		APIRequestTimeout:   mustEnvDuration("API_REQUEST_TIMEOUT", 90*time.Second),

		RetryMaxAttempts: mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		BreakerEnabled:   mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),

		EmbedRateLimitRPS: mustEnvFloat("EMBED_RATE_LIMIT_RPS", 5),
		EmbedBatchSize:    mustEnvInt("EMBED_BATCH_SIZE", 16),
		EmbedParallelism:  mustEnvInt("EMBED_PARALLELISM", 2),

		RankingConfigPath: mustEnv("RANKING_CONFIG_PATH", ""),
	}

	ranking := rankingFromEnv()
	if cfg.RankingConfigPath != "" {
		overlay, err := os.ReadFile(cfg.RankingConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("read ranking config: %w", err)
		}
		ranking, err = DecodeRanking(bytes.NewReader(overlay), ranking)
		if err != nil {
			return cfg, fmt.Errorf("decode ranking config %s: %w", cfg.RankingConfigPath, err)
		}
	}
	cfg.Ranking = ranking.Normalize()
	return cfg, nil
}

// DecodeRanking decodes a YAML document over base; keys absent from the
// document keep base values. An empty document returns base.
func DecodeRanking(r io.Reader, base domain.RankingConfig) (domain.RankingConfig, error) {
	out := base
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, err
	}
	return out, nil
}

func rankingFromEnv() domain.RankingConfig {
	def := domain.DefaultRankingConfig()
	return domain.RankingConfig{
		EmbWeightScoped:    mustEnvFloat("RANK_EMB_WEIGHT_SCOPED", def.EmbWeightScoped),
		EmbWeightGlobal:    mustEnvFloat("RANK_EMB_WEIGHT_GLOBAL", def.EmbWeightGlobal),
		OutlineBoostScoped: mustEnvFloat("RANK_OUTLINE_BOOST_SCOPED", def.OutlineBoostScoped),
		OutlineBoostGlobal: mustEnvFloat("RANK_OUTLINE_BOOST_GLOBAL", def.OutlineBoostGlobal),
		LiteralBoost:       mustEnvFloat("RANK_LITERAL_BOOST", def.LiteralBoost),
		PhraseBoost:        mustEnvFloat("RANK_PHRASE_BOOST", def.PhraseBoost),
		StrictLiteral:      mustEnvBool("RANK_STRICT_LITERAL", def.StrictLiteral),

		AdjacencyWindow: mustEnvInt("RANK_ADJACENCY_WINDOW", def.AdjacencyWindow),
		TopN:            mustEnvInt("RANK_TOP_N", def.TopN),
		ExpandRange:     mustEnvInt("RANK_EXPAND_RANGE", def.ExpandRange),
		MaxPages:        mustEnvInt("RANK_MAX_PAGES", def.MaxPages),
		MaxContextChars: mustEnvInt("RANK_MAX_CONTEXT_CHARS", def.MaxContextChars),
		MinTokenLen:     mustEnvInt("RANK_MIN_TOKEN_LEN", def.MinTokenLen),
		PreviewK:        mustEnvInt("RANK_PREVIEW_K", def.PreviewK),
		RerankTopK:      mustEnvInt("RANK_RERANK_TOP_K", def.RerankTopK),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
