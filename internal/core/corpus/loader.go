package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/outline"
	"github.com/kirillkom/medref-rag/internal/core/ports"
)

// ArtifactNames are the artifact keys inside the store. An empty Outline
// loads an empty outline; Embeddings is ignored when an EmbeddingSource is
// configured.
type ArtifactNames struct {
	Pages      string
	Embeddings string
	Outline    string
}

type LoaderOptions struct {
	Embeddings ports.EmbeddingSource
	Synonyms   ports.SynonymSource
	Logger     *slog.Logger
	Now        func() time.Time
}

type Loader struct {
	store      ports.ArtifactStore
	names      ArtifactNames
	embeddings ports.EmbeddingSource
	synonyms   ports.SynonymSource
	logger     *slog.Logger
	now        func() time.Time
}

func NewLoader(store ports.ArtifactStore, names ArtifactNames, opts LoaderOptions) *Loader {
	l := &Loader{
		store:      store,
		names:      names,
		embeddings: opts.Embeddings,
		synonyms:   opts.Synonyms,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Load reads every artifact and builds a snapshot. The version is a digest
// of the artifact bytes, so reloading unchanged files yields the same
// version.
func (l *Loader) Load(ctx context.Context) (*Corpus, error) {
	digest := sha256.New()

	pages, err := l.loadPages(ctx, digest)
	if err != nil {
		return nil, err
	}
	embeddings, err := l.loadEmbeddings(ctx, digest)
	if err != nil {
		return nil, err
	}
	tree, _, err := l.loadOutline(ctx, digest)
	if err != nil {
		return nil, err
	}

	synonyms := outline.DefaultSynonyms()
	if l.synonyms != nil {
		clusters, err := l.synonyms.LoadSynonyms(ctx)
		if err != nil {
			l.logger.Warn("synonyms_unavailable", "error", err)
		} else {
			synonyms = synonyms.Merge(outline.NewSynonymTable(clusters...))
		}
	}

	version := hex.EncodeToString(digest.Sum(nil))[:12]
	c, err := New(pages, embeddings, outline.NewIndex(tree, synonyms), version, l.now())
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Pages reads the pages artifact alone.
func (l *Loader) Pages(ctx context.Context) ([]domain.Page, error) {
	return l.loadPages(ctx, sha256.New())
}

// CheckOutline parses the outline artifact and reports what was kept and
// skipped.
func (l *Loader) CheckOutline(ctx context.Context) (outline.ParseReport, error) {
	_, report, err := l.loadOutline(ctx, sha256.New())
	return report, err
}

type rawPage struct {
	Number *int    `json:"number"`
	Text   *string `json:"text"`
	Pagina *int    `json:"pagina"`
	Texto  *string `json:"texto"`
}

func (l *Loader) loadPages(ctx context.Context, digest hash.Hash) ([]domain.Page, error) {
	var raw []rawPage
	if err := l.decodeJSON(ctx, l.names.Pages, digest, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrArtifactUnreadable, "load pages", err)
	}
	pages := make([]domain.Page, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		number := firstInt(r.Number, r.Pagina)
		text := firstString(r.Text, r.Texto)
		if number == nil || text == nil {
			skipped++
			continue
		}
		pages = append(pages, domain.Page{Number: *number, Text: *text})
	}
	if skipped > 0 {
		l.logger.Warn("pages_skipped", "artifact", l.names.Pages, "count", skipped)
	}
	return pages, nil
}

type rawEmbedding struct {
	Number    *int      `json:"number"`
	Vector    []float32 `json:"vector"`
	Pagina    *int      `json:"pagina"`
	Embedding []float32 `json:"embedding"`
}

func (l *Loader) loadEmbeddings(ctx context.Context, digest hash.Hash) ([]domain.PageEmbedding, error) {
	if l.embeddings != nil {
		out, err := l.embeddings.LoadEmbeddings(ctx)
		if err != nil {
			return nil, domain.WrapError(domain.ErrArtifactUnreadable, "load embeddings", err)
		}
		digestEmbeddings(digest, out)
		return out, nil
	}

	var raw []rawEmbedding
	if err := l.decodeJSON(ctx, l.names.Embeddings, digest, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrArtifactUnreadable, "load embeddings", err)
	}
	out := make([]domain.PageEmbedding, 0, len(raw))
	for _, r := range raw {
		number := firstInt(r.Number, r.Pagina)
		vector := r.Vector
		if len(vector) == 0 {
			vector = r.Embedding
		}
		if number == nil || len(vector) == 0 {
			continue
		}
		out = append(out, domain.PageEmbedding{Number: *number, Vector: vector})
	}
	return out, nil
}

// digestEmbeddings writes every page number and vector in page order, so a
// re-embedded collection gets a new version even when its size is unchanged.
func digestEmbeddings(digest hash.Hash, embeddings []domain.PageEmbedding) {
	ordered := append([]domain.PageEmbedding(nil), embeddings...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	buf := make([]byte, 0, 8)
	for _, e := range ordered {
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(e.Number))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Vector)))
		digest.Write(buf)
		for _, v := range e.Vector {
			digest.Write(binary.LittleEndian.AppendUint32(buf[:0], math.Float32bits(v)))
		}
	}
}

func (l *Loader) loadOutline(ctx context.Context, digest hash.Hash) (*outline.Tree, outline.ParseReport, error) {
	if l.names.Outline == "" {
		return &outline.Tree{}, outline.ParseReport{}, nil
	}
	raw, err := l.readAll(ctx, l.names.Outline)
	if err != nil {
		return nil, outline.ParseReport{}, domain.WrapError(domain.ErrArtifactUnreadable, "load outline", err)
	}
	digest.Write(raw)

	var (
		tree   *outline.Tree
		report outline.ParseReport
	)
	switch strings.ToLower(path.Ext(l.names.Outline)) {
	case ".yaml", ".yml":
		tree, report = outline.ParseYAML(raw)
	default:
		tree, report = outline.Parse(raw)
	}
	if report.Skipped > 0 {
		l.logger.Warn("outline_entries_skipped",
			"artifact", l.names.Outline,
			"skipped", report.Skipped,
			"problems", report.Problems,
		)
	}
	return tree, report, nil
}

func (l *Loader) decodeJSON(ctx context.Context, name string, digest hash.Hash, out any) error {
	rc, err := l.store.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(io.TeeReader(rc, digest)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (l *Loader) readAll(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
