package retrieval

import (
	"sort"
	"strings"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

type SelectOptions struct {
	TopN        int
	ExpandRange int
	MaxPages    int
	// Scope, when scoped, bounds expansion so every selected page stays in
	// the outline neighbourhood.
	Scope Scope
}

// SelectPages takes the top ranked pages, expands each into its existing
// neighbours, caps the set by rank position and drops pages without usable
// text. The result is ascending and deduplicated; it is empty only when no
// candidate had text.
func SelectPages(ranked []domain.RankedCandidate, src PageSource, opts SelectOptions) []int {
	if len(ranked) == 0 {
		return []int{}
	}
	topN := opts.TopN
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}

	position := make(map[int]int, len(ranked))
	for i, r := range ranked {
		position[r.Page] = i
	}

	selected := make(map[int]struct{}, topN*(2*opts.ExpandRange+1))
	for _, r := range ranked[:topN] {
		selected[r.Page] = struct{}{}
		for d := 1; d <= opts.ExpandRange; d++ {
			for _, n := range []int{r.Page - d, r.Page + d} {
				if !src.HasPage(n) {
					continue
				}
				if opts.Scope.Mode == domain.ScopeScoped && !opts.Scope.Contains(n) {
					continue
				}
				selected[n] = struct{}{}
			}
		}
	}

	pages := make([]int, 0, len(selected))
	for n := range selected {
		if text, ok := src.Text(n); !ok || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, n)
	}

	if opts.MaxPages > 0 && len(pages) > opts.MaxPages {
		// pages reached only through expansion and never ranked go last
		rank := func(p int) int {
			if pos, ok := position[p]; ok {
				return pos
			}
			return len(ranked)
		}
		sort.Slice(pages, func(i, j int) bool {
			ri, rj := rank(pages[i]), rank(pages[j])
			if ri != rj {
				return ri < rj
			}
			return pages[i] < pages[j]
		})
		pages = pages[:opts.MaxPages]
	}
	sort.Ints(pages)
	return pages
}
