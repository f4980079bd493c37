package outline

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/textnorm"
)

const (
	minTermLen    = 3
	minAcronymLen = 2
	maxAcronymLen = 6
	// a term hitting more than this share of a large outline says nothing
	// about where to look
	genericTermShare  = 4
	genericMinRecords = 8
)

// Index is the flattened outline plus its keyword lookup tables. It is
// immutable once built and safe for concurrent use.
type Index struct {
	records  []domain.OutlineRecord
	titles   []string
	terms    map[string][]int
	acronyms map[string][]int
	synonyms *SynonymTable
}

// NewIndex flattens the tree into records and indexes them. A nil tree or
// a nil synonym table is allowed.
func NewIndex(tree *Tree, synonyms *SynonymTable) *Index {
	idx := &Index{
		terms:    make(map[string][]int),
		acronyms: make(map[string][]int),
		synonyms: synonyms,
	}
	if tree == nil {
		return idx
	}

	for _, section := range tree.Sections {
		if len(section.Pages) > 0 && section.Title != "" {
			idx.addRecord(section.Title, domain.OutlineRecord{
				Section: section.Title, Category: section.Title, Pages: section.Pages,
			})
		}
		for _, category := range section.Children {
			if len(category.Pages) > 0 {
				idx.addRecord(category.Title, domain.OutlineRecord{
					Section: section.Title, Category: category.Title, Pages: category.Pages,
				})
			}
			for _, topic := range category.Children {
				if len(topic.Pages) > 0 {
					idx.addRecord(topic.Title, domain.OutlineRecord{
						Section: section.Title, Category: category.Title, Topic: topic.Title, Pages: topic.Pages,
					})
				}
				for _, sub := range topic.Children {
					if len(sub.Pages) == 0 {
						continue
					}
					idx.addRecord(sub.Title, domain.OutlineRecord{
						Section: section.Title, Category: category.Title, Topic: topic.Title,
						Subtopic: sub.Title, Pages: sub.Pages,
					})
				}
			}
		}
	}
	return idx
}

// addRecord indexes a record by the title of its own level only, so a
// question naming a category matches the category record and not every
// topic below it.
func (idx *Index) addRecord(ownTitle string, rec domain.OutlineRecord) {
	rec.ID = len(idx.records) + 1
	rec.Pages = append([]int(nil), rec.Pages...)
	idx.records = append(idx.records, rec)

	canonical := textnorm.Canonical(ownTitle)
	idx.titles = append(idx.titles, canonical)

	var content []string
	for _, w := range textnorm.Words(canonical) {
		if isStopword(w) {
			continue
		}
		content = append(content, w)
		if len(w) >= minTermLen {
			addPosting(idx.terms, foldPlural(w), rec.ID)
		}
	}
	if len(content) >= 2 && len(content) <= maxAcronymLen {
		var initials strings.Builder
		for _, w := range content {
			r, _ := firstRune(w)
			initials.WriteRune(r)
		}
		addPosting(idx.acronyms, initials.String(), rec.ID)
	}
	for _, acr := range explicitAcronyms(ownTitle) {
		addPosting(idx.acronyms, acr, rec.ID)
	}
}

func addPosting(m map[string][]int, key string, id int) {
	ids := m[key]
	if len(ids) > 0 && ids[len(ids)-1] == id {
		return
	}
	m[key] = append(ids, id)
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// explicitAcronyms returns the all-caps words of a raw title, such as the
// "PCR" of "Parada Cardiorrespiratória (PCR)".
func explicitAcronyms(raw string) []string {
	var out []string
	for _, word := range strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		n := len([]rune(word))
		if n < minAcronymLen || n > maxAcronymLen {
			continue
		}
		hasLetter, allUpper := false, true
		for _, r := range word {
			if unicode.IsLetter(r) {
				hasLetter = true
				if !unicode.IsUpper(r) {
					allUpper = false
					break
				}
			}
		}
		if hasLetter && allUpper {
			out = append(out, textnorm.Normalize(word))
		}
	}
	return out
}

func (idx *Index) Len() int { return len(idx.records) }

func (idx *Index) record(id int) (domain.OutlineRecord, bool) {
	if id < 1 || id > len(idx.records) {
		return domain.OutlineRecord{}, false
	}
	return idx.records[id-1], true
}

func (idx *Index) lookupTerm(term string) []int {
	ids := idx.terms[term]
	if len(idx.records) >= genericMinRecords && len(ids)*genericTermShare > len(idx.records) {
		return nil
	}
	return ids
}

// FindRelevantPages matches the question against titles, acronyms and
// synonym clusters and returns the union of pages of every matching record.
func (idx *Index) FindRelevantPages(question string) domain.OutlineResult {
	q := textnorm.Canonical(question)
	if q == "" || len(idx.records) == 0 {
		return emptyResult()
	}

	words := textnorm.Words(q)
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}
	singles, phrases := idx.synonyms.expand(q, wordSet)

	// two-letter acronyms collide with units and short words, so they count
	// only when written in capitals or reached through a synonym cluster
	capitals := make(map[string]struct{})
	for _, acr := range explicitAcronyms(question) {
		capitals[acr] = struct{}{}
	}
	fromSynonyms := make(map[string]struct{}, len(singles))
	for _, alias := range singles {
		fromSynonyms[alias] = struct{}{}
	}

	for _, w := range append(words, singles...) {
		_, upper := capitals[w]
		if isStopword(w) && !upper {
			continue
		}
		n := len([]rune(w))
		if n >= minTermLen && !isStopword(w) {
			hit(idx.lookupTerm(foldPlural(w)), w)
		}
		if n < minAcronymLen {
			continue
		}
		if _, synonym := fromSynonyms[w]; n > minAcronymLen || upper || synonym {
			hit(idx.acronyms[w], w)
		}
	}
	for _, phrase := range phrases {
		for i, title := range idx.titles {
			if textnorm.ContainsWord(title, phrase) {
				hit([]int{i + 1}, phrase)
			}
		}
	}

	ids := make([]int, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := idx.resultFor(ids)
	for i := range result.Matches {
		terms := make([]string, 0, len(hits[result.Matches[i].RecordID]))
		for term := range hits[result.Matches[i].RecordID] {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		result.Matches[i].Terms = terms
	}
	return result
}

// PagesFor returns the pages of the given record ids. Unknown and repeated
// ids are ignored.
func (idx *Index) PagesFor(ids []int) domain.OutlineResult {
	seen := make(map[int]struct{}, len(ids))
	valid := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := idx.record(id); !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		valid = append(valid, id)
	}
	sort.Ints(valid)
	return idx.resultFor(valid)
}

func (idx *Index) resultFor(ids []int) domain.OutlineResult {
	result := emptyResult()
	pages := make(map[int]struct{})
	for _, id := range ids {
		rec, ok := idx.record(id)
		if !ok {
			continue
		}
		for _, p := range rec.Pages {
			pages[p] = struct{}{}
		}
		result.Matches = append(result.Matches, domain.OutlineMatch{
			RecordID: rec.ID,
			Category: rec.Category,
			Topic:    rec.Topic,
			Subtopic: rec.Subtopic,
			Pages:    rec.Pages,
		})
	}
	result.Pages = sortedKeys(pages)
	return result
}

func emptyResult() domain.OutlineResult {
	return domain.OutlineResult{Pages: []int{}, Matches: []domain.OutlineMatch{}}
}

// CompactEntry is one record as shown to a classification model.
type CompactEntry struct {
	ID        int
	Category  string
	Topic     string
	Subtopic  string
	PageCount int
}

// MarshalJSON encodes the entry as [id, category, topic, subtopic, pageCount]
// with null for missing levels.
func (e CompactEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.Category, nullable(e.Topic), nullable(e.Subtopic), e.PageCount})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (idx *Index) Compact() []CompactEntry {
	out := make([]CompactEntry, 0, len(idx.records))
	for _, rec := range idx.records {
		out = append(out, CompactEntry{
			ID:        rec.ID,
			Category:  rec.Category,
			Topic:     rec.Topic,
			Subtopic:  rec.Subtopic,
			PageCount: len(rec.Pages),
		})
	}
	return out
}

func (idx *Index) CompactJSON() ([]byte, error) {
	return json.Marshal(idx.Compact())
}
