// Package corpus holds the immutable snapshot of pages, embeddings and
// outline that one retrieval request reads from.
package corpus

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/outline"
	"github.com/kirillkom/medref-rag/internal/core/ports"
	"github.com/kirillkom/medref-rag/internal/core/textnorm"
)

// Corpus is never mutated after New returns. A reload builds a new value.
type Corpus struct {
	version   string
	loadedAt  time.Time
	numbers   []int
	texts     map[int]string
	canonical map[int]string
	vectors   map[int][]float32
	dimension int
	outline   *outline.Index
}

// New validates and indexes the artifacts. Duplicate page numbers keep the
// first occurrence, embeddings of unknown pages are ignored, and vectors
// of different lengths fail with ErrDimensionMismatch.
func New(pages []domain.Page, embeddings []domain.PageEmbedding, idx *outline.Index, version string, loadedAt time.Time) (*Corpus, error) {
	c := &Corpus{
		version:   version,
		loadedAt:  loadedAt,
		texts:     make(map[int]string, len(pages)),
		canonical: make(map[int]string, len(pages)),
		vectors:   make(map[int][]float32, len(embeddings)),
		outline:   idx,
	}
	if c.outline == nil {
		c.outline = outline.NewIndex(nil, nil)
	}

	for _, p := range pages {
		if p.Number < 1 {
			continue
		}
		if _, dup := c.texts[p.Number]; dup {
			continue
		}
		c.texts[p.Number] = p.Text
		c.canonical[p.Number] = textnorm.Canonical(p.Text)
		c.numbers = append(c.numbers, p.Number)
	}
	sort.Ints(c.numbers)

	for _, e := range embeddings {
		if len(e.Vector) == 0 {
			continue
		}
		if _, known := c.texts[e.Number]; !known {
			continue
		}
		if _, dup := c.vectors[e.Number]; dup {
			continue
		}
		if c.dimension == 0 {
			c.dimension = len(e.Vector)
		} else if len(e.Vector) != c.dimension {
			return nil, domain.WrapError(
				domain.ErrDimensionMismatch,
				"build corpus",
				fmt.Errorf("page %d has %d dimensions, expected %d", e.Number, len(e.Vector), c.dimension),
			)
		}
		c.vectors[e.Number] = e.Vector
	}
	return c, nil
}

func (c *Corpus) Numbers() []int { return c.numbers }

func (c *Corpus) HasPage(n int) bool {
	_, ok := c.texts[n]
	return ok
}

func (c *Corpus) Text(n int) (string, bool) {
	text, ok := c.texts[n]
	return text, ok
}

func (c *Corpus) NormalizedText(n int) (string, bool) {
	text, ok := c.canonical[n]
	return text, ok
}

func (c *Corpus) Embedding(n int) ([]float32, bool) {
	v, ok := c.vectors[n]
	return v, ok
}

func (c *Corpus) Outline() ports.OutlineCatalog { return c.outline }

func (c *Corpus) Version() string { return c.version }

// Dimension is the embedding length, 0 when no page has an embedding.
func (c *Corpus) Dimension() int { return c.dimension }

// Passages returns the text of the given pages, skipping unknown and blank
// ones.
func (c *Corpus) Passages(numbers []int) []domain.Page {
	out := make([]domain.Page, 0, len(numbers))
	for _, n := range numbers {
		text, ok := c.texts[n]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, domain.Page{Number: n, Text: text})
	}
	return out
}

func (c *Corpus) Info() domain.CorpusInfo {
	return domain.CorpusInfo{
		Version:        c.version,
		Pages:          len(c.numbers),
		Embeddings:     len(c.vectors),
		Dimension:      c.dimension,
		OutlineRecords: c.outline.Len(),
		LoadedAt:       c.loadedAt.UTC().Format(time.RFC3339),
	}
}

// Holder publishes the current snapshot to concurrent readers.
type Holder struct {
	current atomic.Pointer[Corpus]
}

func NewHolder(initial *Corpus) *Holder {
	h := &Holder{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Current returns the served snapshot or ErrCorpusNotLoaded.
func (h *Holder) Current() (*Corpus, error) {
	c := h.current.Load()
	if c == nil {
		return nil, domain.WrapError(domain.ErrCorpusNotLoaded, "current corpus", fmt.Errorf("no snapshot"))
	}
	return c, nil
}

// Swap installs next and returns the previous snapshot, possibly nil.
func (h *Holder) Swap(next *Corpus) *Corpus {
	return h.current.Swap(next)
}
