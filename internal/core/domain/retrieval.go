package domain

type ScopeMode string

const (
	ScopeScoped ScopeMode = "scoped"
	ScopeGlobal ScopeMode = "global"
)

// Candidate is a page under consideration for a single request.
type Candidate struct {
	Page            int     `json:"page"`
	EmbeddingScore  float64 `json:"embedding_score"`
	LexicalScore    int     `json:"lexical_score"`
	InOutline       bool    `json:"in_outline"`
	HasLiteralMatch bool    `json:"has_literal_match"`
	HasPhraseMatch  bool    `json:"has_phrase_match"`
}

type RankedCandidate struct {
	Candidate
	EmbeddingNorm float64 `json:"embedding_norm"`
	LexicalNorm   float64 `json:"lexical_norm"`
	FinalScore    float64 `json:"final_score"`
}

type ScoredPage struct {
	Page       int     `json:"page"`
	FinalScore float64 `json:"final_score"`
}

type RetrievalResult struct {
	Pages          []int          `json:"pages"`
	ContextText    string         `json:"context_text"`
	Scope          ScopeMode      `json:"scope"`
	RankedPreview  []ScoredPage   `json:"ranked_preview"`
	OutlineMatches []OutlineMatch `json:"outline_matches,omitempty"`
	CorpusVersion  string         `json:"corpus_version,omitempty"`
	Reranked       bool           `json:"reranked,omitempty"`
}

// Found reports whether any page with usable text was retrieved.
func (r *RetrievalResult) Found() bool {
	return r != nil && len(r.Pages) > 0
}

// EmptyResult is the "no content found" terminal state.
func EmptyResult(scope ScopeMode, version string) *RetrievalResult {
	return &RetrievalResult{
		Pages:         []int{},
		Scope:         scope,
		RankedPreview: []ScoredPage{},
		CorpusVersion: version,
	}
}

type Answer struct {
	Text          string    `json:"answer"`
	Pages         []int     `json:"pages"`
	Scope         ScopeMode `json:"scope"`
	CorpusVersion string    `json:"corpus_version,omitempty"`
}

// CorpusInfo describes the snapshot currently served.
type CorpusInfo struct {
	Version        string `json:"version"`
	Pages          int    `json:"pages"`
	Embeddings     int    `json:"embeddings"`
	Dimension      int    `json:"dimension"`
	OutlineRecords int    `json:"outline_records"`
	LoadedAt       string `json:"loaded_at"`
}
