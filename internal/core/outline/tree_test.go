package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

const sampleOutline = `[
  {"section": "Emergências", "categories": [
    {"category": "Parada Cardiorrespiratória (PCR)", "pages": [1, 2], "topics": [
      {"topic": "Compressões torácicas", "pages": [3], "subtopics": [
        {"subtopic": "Frequência e profundidade", "pages": [4, "5-6"]}
      ]},
      {"topic": "Desfibrilação", "pages": [7, 7.0]}
    ]},
    {"category": "Acidente Vascular Cerebral", "pages": [20, 21]},
    {"category": "Sepse", "pages": [30]}
  ]}
]`

func TestParseNestedOutline(t *testing.T) {
	tree, report := Parse([]byte(sampleOutline))

	require.Len(t, tree.Sections, 1)
	section := tree.Sections[0]
	assert.Equal(t, domain.OutlineSection, section.Kind)
	assert.Equal(t, "Emergências", section.Title)
	require.Len(t, section.Children, 3)

	pcr := section.Children[0]
	assert.Equal(t, domain.OutlineCategory, pcr.Kind)
	assert.Equal(t, []int{1, 2}, pcr.Pages)
	require.Len(t, pcr.Children, 2)
	assert.Equal(t, []int{4, 5, 6}, pcr.Children[0].Children[0].Pages)
	assert.Equal(t, []int{7}, pcr.Children[1].Pages)

	assert.Equal(t, 1, report.Sections)
	assert.Equal(t, 3, report.Categories)
	assert.Equal(t, 2, report.Topics)
	assert.Equal(t, 1, report.Subtopics)
	assert.Zero(t, report.Skipped)
}

func TestParseSkipsMalformedEntries(t *testing.T) {
	raw := `{"sections": [
	  {"section": "A", "categories": [
	    {"pages": [1]},
	    {"category": "Bom", "pages": [0, -3, 2.5, "x", 9], "topics": [
	      {"topic": "", "pages": [10]},
	      {"topic": "Tópico", "pages": "12"},
	      "not an object"
	    ]},
	    {"category": 42}
	  ]},
	  "garbage"
	]}`

	tree, report := Parse([]byte(raw))

	require.Len(t, tree.Sections, 1)
	require.Len(t, tree.Sections[0].Children, 1)
	cat := tree.Sections[0].Children[0]
	assert.Equal(t, "Bom", cat.Title)
	assert.Equal(t, []int{9}, cat.Pages)
	require.Len(t, cat.Children, 1)
	assert.Equal(t, "Tópico", cat.Children[0].Title)
	assert.Empty(t, cat.Children[0].Pages)
	assert.Positive(t, report.Skipped)
	assert.NotEmpty(t, report.Problems)
}

func TestParseNeverFailsOnGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "nope", "[1, 2, 3]", `"str"`, "{]"} {
		tree, _ := Parse([]byte(raw))
		require.NotNil(t, tree, "input %q", raw)
		assert.Empty(t, NewIndex(tree, nil).records, "input %q", raw)
	}
}

func TestParseAcceptsSingleSectionObject(t *testing.T) {
	tree, report := Parse([]byte(`{"section": "S", "categories": [{"category": "C", "pages": [3]}]}`))

	require.Len(t, tree.Sections, 1)
	assert.Equal(t, 1, report.Categories)
}

func TestParseYAML(t *testing.T) {
	raw := `
- section: Emergências
  categories:
    - category: Sepse
      pages: [30, 31]
      topics:
        - topic: Antibióticos
          pages: [32]
`
	tree, report := ParseYAML([]byte(raw))

	require.Len(t, tree.Sections, 1)
	require.Len(t, tree.Sections[0].Children, 1)
	assert.Equal(t, []int{30, 31}, tree.Sections[0].Children[0].Pages)
	assert.Equal(t, 1, report.Topics)
}
