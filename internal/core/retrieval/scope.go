package retrieval

import (
	"sort"
	"strings"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

// Scope is the candidate set of one request.
type Scope struct {
	Mode  domain.ScopeMode
	Pages []int
}

// Contains reports whether page is part of the scope.
func (s Scope) Contains(page int) bool {
	idx := sort.SearchInts(s.Pages, page)
	return idx < len(s.Pages) && s.Pages[idx] == page
}

// SelectScope restricts the search to the neighbourhood of outline pages
// when there are any, and falls back to the whole corpus otherwise. Only
// pages with text and an embedding can become candidates.
func SelectScope(outlinePages []int, src PageSource, window int) Scope {
	if window < 0 {
		window = 0
	}

	if len(outlinePages) == 0 {
		all := src.Numbers()
		pages := make([]int, 0, len(all))
		for _, n := range all {
			if rankable(src, n) {
				pages = append(pages, n)
			}
		}
		return Scope{Mode: domain.ScopeGlobal, Pages: pages}
	}

	seen := make(map[int]struct{}, len(outlinePages)*(2*window+1))
	pages := make([]int, 0, len(outlinePages)*(2*window+1))
	for _, p := range outlinePages {
		for n := p - window; n <= p+window; n++ {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			if src.HasPage(n) && rankable(src, n) {
				pages = append(pages, n)
			}
		}
	}
	sort.Ints(pages)
	return Scope{Mode: domain.ScopeScoped, Pages: pages}
}

func rankable(src PageSource, n int) bool {
	text, ok := src.Text(n)
	if !ok || strings.TrimSpace(text) == "" {
		return false
	}
	_, ok = src.Embedding(n)
	return ok
}
