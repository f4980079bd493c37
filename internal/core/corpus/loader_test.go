package corpus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

type memoryStore map[string]string

func (m memoryStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewBufferString(data)), nil
}

func (m memoryStore) Save(_ context.Context, name string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m[name] = string(raw)
	return nil
}

type fakeSynonyms struct {
	clusters [][]string
	err      error
}

func (f fakeSynonyms) LoadSynonyms(context.Context) ([][]string, error) {
	return f.clusters, f.err
}

type fakeEmbeddingSource struct {
	embeddings []domain.PageEmbedding
	err        error
}

func (f fakeEmbeddingSource) LoadEmbeddings(context.Context) ([]domain.PageEmbedding, error) {
	return f.embeddings, f.err
}

var names = ArtifactNames{Pages: "pages.json", Embeddings: "embeddings.json", Outline: "outline.json"}

func originalShapeStore() memoryStore {
	return memoryStore{
		"pages.json":      `[{"pagina": 1, "texto": "compressão torácica 100 a 120 por minuto"}, {"pagina": 2, "texto": ""}, {"foo": 1}]`,
		"embeddings.json": `[{"pagina": 1, "texto": "x", "embedding": [0.5, 0.5]}]`,
		"outline.json":    `[{"section": "S", "categories": [{"category": "Bradi", "pages": [1]}, {"pages": [2]}]}]`,
	}
}

func TestLoaderReadsOriginalArtifactShapes(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	loader := NewLoader(originalShapeStore(), names, LoaderOptions{Now: func() time.Time { return now }})

	c, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, c.Numbers())
	vec, ok := c.Embedding(1)
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
	assert.Equal(t, 1, c.Outline().Len())
	assert.Len(t, c.Version(), 12)
	assert.Equal(t, "2026-03-01T00:00:00Z", c.Info().LoadedAt)
}

func TestLoaderReadsNativeShapesAndYAMLOutline(t *testing.T) {
	store := memoryStore{
		"pages.json":      `[{"number": 4, "text": "sepse"}]`,
		"embeddings.json": `[{"number": 4, "vector": [1, 0, 0]}]`,
		"outline.yaml":    "- section: S\n  categories:\n    - category: Sepse\n      pages: [4]\n",
	}
	loader := NewLoader(store, ArtifactNames{Pages: "pages.json", Embeddings: "embeddings.json", Outline: "outline.yaml"}, LoaderOptions{})

	c, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, c.Dimension())
	assert.Equal(t, []int{4}, c.Outline().FindRelevantPages("choque séptico na sepse").Pages)
}

func TestLoaderVersionFollowsContent(t *testing.T) {
	store := originalShapeStore()
	loader := NewLoader(store, names, LoaderOptions{})

	a, err := loader.Load(context.Background())
	require.NoError(t, err)
	b, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Version(), b.Version())

	store["pages.json"] = `[{"pagina": 1, "texto": "outro texto"}]`
	c, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.Version(), c.Version())
}

func TestLoaderMissingArtifact(t *testing.T) {
	store := originalShapeStore()
	delete(store, "embeddings.json")

	_, err := NewLoader(store, names, LoaderOptions{}).Load(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrArtifactUnreadable))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoaderCorruptPages(t *testing.T) {
	store := originalShapeStore()
	store["pages.json"] = `{"not": "a list"`

	_, err := NewLoader(store, names, LoaderOptions{}).Load(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrArtifactUnreadable))
}

func TestLoaderMergesSynonymsAndToleratesTheirFailure(t *testing.T) {
	store := originalShapeStore()

	withSynonyms, err := NewLoader(store, names, LoaderOptions{
		Synonyms: fakeSynonyms{clusters: [][]string{{"bradi", "frequência baixa"}}},
	}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, withSynonyms.Outline().FindRelevantPages("frequência baixa").Pages)

	withoutSynonyms, err := NewLoader(store, names, LoaderOptions{
		Synonyms: fakeSynonyms{err: errors.New("locked file")},
	}).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, withoutSynonyms.Outline().FindRelevantPages("frequência baixa").Pages)
}

func TestLoaderUsesExternalEmbeddings(t *testing.T) {
	store := originalShapeStore()
	delete(store, "embeddings.json")
	source := fakeEmbeddingSource{embeddings: []domain.PageEmbedding{{Number: 1, Vector: []float32{1, 2, 3, 4}}}}

	c, err := NewLoader(store, names, LoaderOptions{Embeddings: source}).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, c.Dimension())

	_, err = NewLoader(store, names, LoaderOptions{Embeddings: fakeEmbeddingSource{err: errors.New("down")}}).Load(context.Background())
	assert.True(t, domain.IsKind(err, domain.ErrArtifactUnreadable))
}

func TestLoaderVersionTracksExternalVectors(t *testing.T) {
	store := originalShapeStore()
	delete(store, "embeddings.json")
	load := func(vector ...float32) string {
		source := fakeEmbeddingSource{embeddings: []domain.PageEmbedding{{Number: 1, Vector: vector}}}
		c, err := NewLoader(store, names, LoaderOptions{Embeddings: source}).Load(context.Background())
		require.NoError(t, err)
		return c.Version()
	}

	first := load(1, 2, 3)
	assert.Equal(t, first, load(1, 2, 3))
	assert.NotEqual(t, first, load(1, 2, 4))
}

func TestLoaderPagesAndOutlineCheck(t *testing.T) {
	loader := NewLoader(originalShapeStore(), names, LoaderOptions{})

	pages, err := loader.Pages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Page{
		{Number: 1, Text: "compressão torácica 100 a 120 por minuto"},
		{Number: 2, Text: ""},
	}, pages)

	report, err := loader.CheckOutline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Categories)
	assert.Equal(t, 1, report.Skipped)
	assert.NotEmpty(t, report.Problems)
}
