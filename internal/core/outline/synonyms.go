package outline

import (
	"sort"
	"strings"

	"github.com/kirillkom/medref-rag/internal/core/textnorm"
)

// SynonymTable is a set of alias clusters. Every alias is stored in
// canonical form; a cluster is triggered when any alias occurs in the
// question and then contributes all of its aliases as search terms.
type SynonymTable struct {
	clusters [][]string
}

// NewSynonymTable canonicalizes aliases and drops clusters with fewer than
// two distinct entries.
func NewSynonymTable(clusters ...[]string) *SynonymTable {
	t := &SynonymTable{}
	for _, cluster := range clusters {
		t.add(cluster)
	}
	return t
}

func (t *SynonymTable) add(cluster []string) {
	seen := make(map[string]struct{}, len(cluster))
	aliases := make([]string, 0, len(cluster))
	for _, alias := range cluster {
		c := textnorm.Canonical(alias)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		aliases = append(aliases, c)
	}
	if len(aliases) < 2 {
		return
	}
	sort.Strings(aliases)
	t.clusters = append(t.clusters, aliases)
}

// Merge returns a table holding the clusters of both tables.
func (t *SynonymTable) Merge(other *SynonymTable) *SynonymTable {
	out := &SynonymTable{}
	for _, src := range []*SynonymTable{t, other} {
		if src == nil {
			continue
		}
		out.clusters = append(out.clusters, src.clusters...)
	}
	return out
}

func (t *SynonymTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.clusters)
}

// expand returns the aliases of every cluster triggered by the question,
// split into single words and multi-word phrases.
func (t *SynonymTable) expand(canonicalQuestion string, words map[string]struct{}) (singles, phrases []string) {
	if t == nil {
		return nil, nil
	}
	for _, cluster := range t.clusters {
		if !clusterTriggered(cluster, canonicalQuestion, words) {
			continue
		}
		for _, alias := range cluster {
			if strings.Contains(alias, " ") {
				phrases = append(phrases, alias)
			} else {
				singles = append(singles, alias)
			}
		}
	}
	return singles, phrases
}

func clusterTriggered(cluster []string, canonicalQuestion string, words map[string]struct{}) bool {
	for _, alias := range cluster {
		if strings.Contains(alias, " ") {
			if textnorm.ContainsWord(canonicalQuestion, alias) {
				return true
			}
			continue
		}
		if _, ok := words[alias]; ok {
			return true
		}
	}
	return false
}

// DefaultSynonyms holds common emergency-medicine abbreviations in
// Portuguese.
func DefaultSynonyms() *SynonymTable {
	return NewSynonymTable(
		[]string{"rcp", "ressuscitação cardiopulmonar", "reanimação cardiopulmonar", "pcr", "parada cardiorrespiratória", "parada cardíaca"},
		[]string{"iam", "infarto agudo do miocárdio", "infarto do miocárdio"},
		[]string{"sca", "síndrome coronariana aguda"},
		[]string{"avc", "ave", "acidente vascular cerebral", "acidente vascular encefálico", "derrame"},
		[]string{"tep", "tromboembolismo pulmonar", "embolia pulmonar"},
		[]string{"tvp", "trombose venosa profunda"},
		[]string{"dpoc", "doença pulmonar obstrutiva crônica"},
		[]string{"iot", "intubação orotraqueal"},
		[]string{"sri", "sequência rápida de intubação", "intubação em sequência rápida"},
		[]string{"cad", "cetoacidose diabética"},
		[]string{"eap", "edema agudo de pulmão"},
		[]string{"tce", "traumatismo cranioencefálico", "trauma cranioencefálico"},
		[]string{"hsa", "hemorragia subaracnóidea"},
		[]string{"lra", "ira", "lesão renal aguda", "insuficiência renal aguda"},
		[]string{"ic", "icc", "insuficiência cardíaca", "insuficiência cardíaca congestiva"},
		[]string{"fa", "fibrilação atrial"},
		[]string{"fv", "fibrilação ventricular"},
		[]string{"tv", "taquicardia ventricular"},
		[]string{"aesp", "atividade elétrica sem pulso"},
		[]string{"ecg", "eletrocardiograma"},
		[]string{"hda", "hemorragia digestiva alta"},
		[]string{"hdb", "hemorragia digestiva baixa"},
		[]string{"sepse", "septicemia", "choque séptico"},
		[]string{"capnografia", "etco2", "co2 expirado"},
	)
}
