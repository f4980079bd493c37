package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const blockSeparator = "\n\n"

type Assembled struct {
	Text  string
	Pages []int
}

// PageHeader is the delimiter line written before every page block.
func PageHeader(page int) string {
	return fmt.Sprintf("[Página %d]", page)
}

// AssembleContext concatenates page blocks in ascending page order within
// maxChars runes. Pages are admitted in priority order (page order when
// priority is empty): a page larger than the whole budget is skipped, and
// admission stops at the first page that no longer fits.
func AssembleContext(pages []int, priority []int, src PageSource, maxChars int) Assembled {
	blocks := make(map[int]string, len(pages))
	for _, p := range pages {
		text, ok := src.Text(p)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		blocks[p] = PageHeader(p) + "\n" + text
	}

	order := admissionOrder(pages, priority, blocks)
	sepLen := utf8.RuneCountInString(blockSeparator)

	admitted := make([]int, 0, len(order))
	used := 0
	for _, p := range order {
		size := utf8.RuneCountInString(blocks[p])
		if maxChars > 0 && size > maxChars {
			continue
		}
		cost := size
		if len(admitted) > 0 {
			cost += sepLen
		}
		if maxChars > 0 && used+cost > maxChars {
			break
		}
		admitted = append(admitted, p)
		used += cost
	}

	sort.Ints(admitted)
	parts := make([]string, 0, len(admitted))
	for _, p := range admitted {
		parts = append(parts, blocks[p])
	}
	return Assembled{Text: strings.Join(parts, blockSeparator), Pages: admitted}
}

func admissionOrder(pages []int, priority []int, blocks map[int]string) []int {
	order := make([]int, 0, len(blocks))
	seen := make(map[int]struct{}, len(blocks))
	add := func(p int) {
		if _, ok := blocks[p]; !ok {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		order = append(order, p)
	}
	for _, p := range priority {
		add(p)
	}
	rest := append([]int(nil), pages...)
	sort.Ints(rest)
	for _, p := range rest {
		add(p)
	}
	return order
}
