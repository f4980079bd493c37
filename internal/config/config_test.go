package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RANKING_CONFIG_PATH", "")
	t.Setenv("OUTLINE_MATCHER", "")
	t.Setenv("RANK_TOP_N", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutlineMatcher != "keyword" {
		t.Fatalf("expected keyword matcher, got %q", cfg.OutlineMatcher)
	}
	if cfg.Ranking != domain.DefaultRankingConfig() {
		t.Fatalf("expected default ranking, got %+v", cfg.Ranking)
	}
	if cfg.WatchDebounce != 2*time.Second {
		t.Fatalf("expected 2s debounce, got %s", cfg.WatchDebounce)
	}
}

func TestLoadRankingFromEnvAndYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	if err := os.WriteFile(path, []byte("emb_weight_scoped: 0.5\nmax_pages: 4\n"), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("RANK_TOP_N", "3")
	t.Setenv("RANK_MAX_PAGES", "7")
	t.Setenv("RANKING_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ranking.TopN != 3 {
		t.Fatalf("env value must survive the overlay, got %d", cfg.Ranking.TopN)
	}
	if cfg.Ranking.MaxPages != 4 || cfg.Ranking.EmbWeightScoped != 0.5 {
		t.Fatalf("overlay not applied: %+v", cfg.Ranking)
	}
}

func TestLoadNormalizesOutOfRangeRanking(t *testing.T) {
	t.Setenv("RANKING_CONFIG_PATH", "")
	t.Setenv("RANK_EMB_WEIGHT_GLOBAL", "1.7")
	t.Setenv("RANK_TOP_N", "-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := domain.DefaultRankingConfig()
	if cfg.Ranking.EmbWeightGlobal != def.EmbWeightGlobal || cfg.Ranking.TopN != def.TopN {
		t.Fatalf("expected defaults for invalid values, got %+v", cfg.Ranking)
	}
}

func TestDecodeRankingRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeRanking(strings.NewReader("emb_weight: 0.2\n"), domain.DefaultRankingConfig())
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestDecodeRankingEmptyDocument(t *testing.T) {
	base := domain.DefaultRankingConfig()
	got, err := DecodeRanking(strings.NewReader(""), base)
	if err != nil {
		t.Fatalf("DecodeRanking() error = %v", err)
	}
	if got != base {
		t.Fatalf("expected base config, got %+v", got)
	}
}

func TestLoadFailsOnMissingOverlay(t *testing.T) {
	t.Setenv("RANKING_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing overlay")
	}
}
