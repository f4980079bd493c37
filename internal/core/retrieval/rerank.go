package retrieval

import "github.com/kirillkom/medref-rag/internal/core/domain"

// ApplyRerank moves the pages chosen by a reranker to the front, in the
// reranker's order, and keeps every other candidate in score order. Pages
// the ranking does not know and duplicates are ignored.
func ApplyRerank(ranked []domain.RankedCandidate, order []int) []domain.RankedCandidate {
	if len(order) == 0 || len(ranked) == 0 {
		return ranked
	}
	byPage := make(map[int]int, len(ranked))
	for i, r := range ranked {
		byPage[r.Page] = i
	}

	used := make(map[int]struct{}, len(order))
	out := make([]domain.RankedCandidate, 0, len(ranked))
	for _, page := range order {
		idx, ok := byPage[page]
		if !ok {
			continue
		}
		if _, dup := used[page]; dup {
			continue
		}
		used[page] = struct{}{}
		out = append(out, ranked[idx])
	}
	for _, r := range ranked {
		if _, ok := used[r.Page]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RerankHead reorders the first k candidates by order and keeps the rest
// behind them in score order. Pages outside the head cannot be promoted;
// applied is false when order names no head page.
func RerankHead(ranked []domain.RankedCandidate, k int, order []int) (out []domain.RankedCandidate, applied bool) {
	head := Head(ranked, k)
	inHead := make(map[int]struct{}, len(head))
	for _, r := range head {
		inHead[r.Page] = struct{}{}
	}
	for _, page := range order {
		if _, ok := inHead[page]; ok {
			applied = true
			break
		}
	}
	if !applied {
		return ranked, false
	}
	out = make([]domain.RankedCandidate, 0, len(ranked))
	out = append(out, ApplyRerank(head, order)...)
	out = append(out, ranked[len(head):]...)
	return out, true
}

// Head returns at most k leading candidates.
func Head(ranked []domain.RankedCandidate, k int) []domain.RankedCandidate {
	if k <= 0 || k >= len(ranked) {
		return ranked
	}
	return ranked[:k]
}
