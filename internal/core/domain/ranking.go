package domain

// RankingConfig holds every tunable of the retrieval pipeline. The weight
// presets are defaults, not correctness contracts.
type RankingConfig struct {
	EmbWeightScoped    float64 `yaml:"emb_weight_scoped" json:"emb_weight_scoped"`
	EmbWeightGlobal    float64 `yaml:"emb_weight_global" json:"emb_weight_global"`
	OutlineBoostScoped float64 `yaml:"outline_boost_scoped" json:"outline_boost_scoped"`
	OutlineBoostGlobal float64 `yaml:"outline_boost_global" json:"outline_boost_global"`
	LiteralBoost       float64 `yaml:"literal_boost" json:"literal_boost"`
	PhraseBoost        float64 `yaml:"phrase_boost" json:"phrase_boost"`
	StrictLiteral      bool    `yaml:"strict_literal" json:"strict_literal"`

	AdjacencyWindow int `yaml:"adjacency_window" json:"adjacency_window"`
	TopN            int `yaml:"top_n" json:"top_n"`
	ExpandRange     int `yaml:"expand_range" json:"expand_range"`
	MaxPages        int `yaml:"max_pages" json:"max_pages"`
	MaxContextChars int `yaml:"max_context_chars" json:"max_context_chars"`
	MinTokenLen     int `yaml:"min_token_len" json:"min_token_len"`
	PreviewK        int `yaml:"preview_k" json:"preview_k"`
	RerankTopK      int `yaml:"rerank_top_k" json:"rerank_top_k"`
}

func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		EmbWeightScoped:    0.8,
		EmbWeightGlobal:    0.7,
		OutlineBoostScoped: 0.3,
		OutlineBoostGlobal: 0.08,
		LiteralBoost:       0.6,
		PhraseBoost:        0.8,
		StrictLiteral:      false,

		AdjacencyWindow: 2,
		TopN:            6,
		ExpandRange:     1,
		MaxPages:        10,
		MaxContextChars: 24000,
		MinTokenLen:     3,
		PreviewK:        10,
		RerankTopK:      12,
	}
}

// Normalize replaces out-of-range values with defaults.
func (c RankingConfig) Normalize() RankingConfig {
	out := c
	def := DefaultRankingConfig()

	if out.EmbWeightScoped < 0 || out.EmbWeightScoped > 1 {
		out.EmbWeightScoped = def.EmbWeightScoped
	}
	if out.EmbWeightGlobal < 0 || out.EmbWeightGlobal > 1 {
		out.EmbWeightGlobal = def.EmbWeightGlobal
	}
	if out.OutlineBoostScoped < 0 {
		out.OutlineBoostScoped = def.OutlineBoostScoped
	}
	if out.OutlineBoostGlobal < 0 {
		out.OutlineBoostGlobal = def.OutlineBoostGlobal
	}
	if out.LiteralBoost < 0 {
		out.LiteralBoost = def.LiteralBoost
	}
	if out.PhraseBoost < 0 {
		out.PhraseBoost = def.PhraseBoost
	}
	if out.AdjacencyWindow < 0 {
		out.AdjacencyWindow = def.AdjacencyWindow
	}
	if out.TopN <= 0 {
		out.TopN = def.TopN
	}
	if out.ExpandRange < 0 {
		out.ExpandRange = 0
	}
	if out.MaxPages <= 0 {
		out.MaxPages = def.MaxPages
	}
	if out.MaxContextChars <= 0 {
		out.MaxContextChars = def.MaxContextChars
	}
	if out.MinTokenLen <= 0 {
		out.MinTokenLen = def.MinTokenLen
	}
	if out.PreviewK <= 0 {
		out.PreviewK = def.PreviewK
	}
	if out.RerankTopK <= 0 {
		out.RerankTopK = def.RerankTopK
	}
	return out
}

// EmbeddingWeight returns the embedding share for the given scope; the
// lexical share is its complement.
func (c RankingConfig) EmbeddingWeight(mode ScopeMode) float64 {
	if mode == ScopeScoped {
		return c.EmbWeightScoped
	}
	return c.EmbWeightGlobal
}

func (c RankingConfig) OutlineBoost(mode ScopeMode) float64 {
	if mode == ScopeScoped {
		return c.OutlineBoostScoped
	}
	return c.OutlineBoostGlobal
}
