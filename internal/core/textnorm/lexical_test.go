package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountOccurrencesWholeWord(t *testing.T) {
	text := "Minuto a minuto, 100 a 120 por MINUTO. Minutos não contam."
	assert.Equal(t, 3, CountOccurrences(text, "minuto"))
	assert.Equal(t, 0, CountOccurrences(text, "minu"))
	assert.Equal(t, 1, CountOccurrences(text, "minutos"))
}

func TestCountOccurrencesNormalizesBothSides(t *testing.T) {
	assert.Equal(t, 2, CountOccurrences("Compressão e compressao", "COMPRESSÃO"))
}

func TestCountOccurrencesTreatsTokenLiterally(t *testing.T) {
	text := "dose (mg/kg) e dose mg.kg"
	assert.Equal(t, 1, CountOccurrences(text, "mg/kg"))
	assert.Equal(t, 1, CountOccurrences(text, "mg.kg"))
	assert.Equal(t, 0, CountOccurrences(text, "mg.*"))
	assert.Equal(t, 0, CountOccurrences(text, "("))
}

func TestCountOccurrencesNonOverlapping(t *testing.T) {
	assert.Equal(t, 2, CountOccurrences("aa aa", "aa"))
	assert.Equal(t, 0, CountOccurrences("aaaa", "aa"))
	assert.Equal(t, 0, CountOccurrences("", "aa"))
	assert.Equal(t, 0, CountOccurrences("aa", "  "))
}

func TestCountAllSumsTokens(t *testing.T) {
	text := Normalize("compressão torácica deve ser 100 a 120 por minuto")
	tokens := Tokenize("quantas compressões por minuto na RCP?", 3)
	assert.Equal(t, 2, CountAll(text, tokens))
}

func TestHasPhraseMatch(t *testing.T) {
	text := "A compressão torácica deve ser   100 a 120 por minuto"
	assert.True(t, HasPhraseMatch(text, "100 a 120 POR minuto"))
	assert.True(t, HasPhraseMatch(text, "compressao toracica"))
	assert.False(t, HasPhraseMatch(text, "120 a 100"))
	assert.False(t, HasPhraseMatch(text, "   "))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("parada cardiorrespiratoria pcr", "pcr"))
	assert.False(t, ContainsWord("epcr", "pcr"))
}

func TestPhraseOfTrimsPunctuation(t *testing.T) {
	assert.Equal(t, "quantas compressoes por minuto na rcp", PhraseOf("  Quantas compressões por minuto na RCP?  "))
	assert.Equal(t, "", PhraseOf("?!"))
}
