package outline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIndex(t *testing.T) *Index {
	t.Helper()
	tree, report := Parse([]byte(sampleOutline))
	require.Zero(t, report.Skipped)
	return NewIndex(tree, DefaultSynonyms())
}

func TestNewIndexFlattensRecords(t *testing.T) {
	idx := sampleIndex(t)

	records := idx.records
	require.Len(t, records, 6)
	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, "Parada Cardiorrespiratória (PCR)", records[0].Category)
	assert.Equal(t, "Parada Cardiorrespiratória (PCR) > Compressões torácicas > Frequência e profundidade", records[2].Title())
	assert.Equal(t, []int{4, 5, 6}, records[2].Pages)
}

func TestFindRelevantPagesByAcronymSynonym(t *testing.T) {
	idx := sampleIndex(t)

	res := idx.FindRelevantPages("Quantas compressões por minuto na RCP?")

	// rcp reaches the PCR category through the synonym cluster and the
	// plural folds onto the compressions topic
	assert.Equal(t, []int{1, 2, 3}, res.Pages)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 1, res.Matches[0].RecordID)
	assert.Contains(t, res.Matches[0].Terms, "pcr")
	assert.Equal(t, []string{"compressoes"}, res.Matches[1].Terms)
}

func TestFindRelevantPagesByDerivedAcronym(t *testing.T) {
	idx := NewIndex(mustParse(t, `[{"section": "N", "categories": [{"category": "Infarto Agudo do Miocárdio", "pages": [50]}]}]`), nil)

	res := idx.FindRelevantPages("conduta no IAM")

	assert.Equal(t, []int{50}, res.Pages)
}

func TestUnitsDoNotMatchTwoLetterAcronyms(t *testing.T) {
	idx := NewIndex(mustParse(t, `[{"section": "S", "categories": [
	  {"category": "Miastenia Gravis", "pages": [700, 701]},
	  {"category": "Choque Anafilático", "pages": [300]}
	]}]`), DefaultSynonyms())

	res := idx.FindRelevantPages("dose de adrenalina em mg")
	assert.NotContains(t, res.Pages, 700)
	for _, m := range res.Matches {
		assert.NotContains(t, m.Terms, "mg")
	}

	assert.Equal(t, []int{700, 701}, idx.FindRelevantPages("crise de MG").Pages)
	assert.Empty(t, idx.FindRelevantPages("crise de mg").Pages)
}

func TestFindRelevantPagesByPhraseSynonym(t *testing.T) {
	idx := sampleIndex(t)

	res := idx.FindRelevantPages("trombólise no AVC")

	assert.Equal(t, []int{20, 21}, res.Pages)
}

func TestFindRelevantPagesIsOrderIndependent(t *testing.T) {
	idx := sampleIndex(t)

	a := idx.FindRelevantPages("sepse e desfibrilação")
	b := idx.FindRelevantPages("desfibrilação e sepse")

	assert.Equal(t, a, b)
	assert.Equal(t, []int{7, 30}, a.Pages)
}

func TestFindRelevantPagesEmpty(t *testing.T) {
	idx := sampleIndex(t)

	assert.Empty(t, idx.FindRelevantPages("   ").Pages)
	assert.Empty(t, idx.FindRelevantPages("qual a dose de insulina").Pages)
	assert.NotNil(t, idx.FindRelevantPages("qual a dose de insulina").Pages)

	empty := NewIndex(nil, DefaultSynonyms())
	assert.Empty(t, empty.FindRelevantPages("rcp").Pages)
}

func TestPagesForIgnoresUnknownIDs(t *testing.T) {
	idx := sampleIndex(t)

	res := idx.PagesFor([]int{6, 99, 6, -1, 5})

	assert.Equal(t, []int{20, 21, 30}, res.Pages)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 5, res.Matches[0].RecordID)
}

func TestCompactJSON(t *testing.T) {
	idx := sampleIndex(t)

	raw, err := idx.CompactJSON()
	require.NoError(t, err)

	var rows [][]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 6)
	assert.Equal(t, []any{float64(1), "Parada Cardiorrespiratória (PCR)", nil, nil, float64(2)}, rows[0])
	assert.Equal(t, []any{float64(3), "Parada Cardiorrespiratória (PCR)", "Compressões torácicas", "Frequência e profundidade", float64(3)}, rows[2])
}

func TestGenericTermsDoNotMatchEverything(t *testing.T) {
	raw := `[{"section": "S", "categories": [
	  {"category": "Choque cardiogênico", "pages": [1]},
	  {"category": "Choque séptico", "pages": [2]},
	  {"category": "Choque hipovolêmico", "pages": [3]},
	  {"category": "Choque anafilático", "pages": [4]},
	  {"category": "Asma", "pages": [5]},
	  {"category": "Pneumonia", "pages": [6]},
	  {"category": "Cetoacidose", "pages": [7]},
	  {"category": "Hipoglicemia", "pages": [8]}
	]}]`
	idx := NewIndex(mustParse(t, raw), nil)

	res := idx.FindRelevantPages("choque anafilático")

	assert.Equal(t, []int{4}, res.Pages)
}

func TestSynonymTableMerge(t *testing.T) {
	custom := NewSynonymTable([]string{"BRADI", "bradicardia"}, []string{"only-one"})
	merged := DefaultSynonyms().Merge(custom)

	assert.Equal(t, 1, custom.Len())
	assert.Equal(t, DefaultSynonyms().Len()+1, merged.Len())

	idx := NewIndex(mustParse(t, `[{"section": "S", "categories": [{"category": "Bradicardia", "pages": [40]}]}]`), merged)
	assert.Equal(t, []int{40}, idx.FindRelevantPages("bradi instável").Pages)
}

func TestFoldPlural(t *testing.T) {
	cases := map[string]string{
		"compressoes": "compressao",
		"compressao":  "compressao",
		"sinais":      "sinal",
		"valores":     "valor",
		"arritmias":   "arritmia",
		"rcp":         "rcp",
	}
	for in, want := range cases {
		assert.Equal(t, want, foldPlural(in), in)
	}
}

func mustParse(t *testing.T, raw string) *Tree {
	t.Helper()
	tree, report := Parse([]byte(raw))
	require.Zero(t, report.Skipped, report.Problems)
	return tree
}
