package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyRerankMovesChosenPagesFirst(t *testing.T) {
	in := ranked(1, 0.9, 2, 0.8, 3, 0.7, 4, 0.6)

	out := ApplyRerank(in, []int{3, 99, 3, 1})

	assert.Equal(t, []int{3, 1, 2, 4}, pagesOf(out))
	assert.Equal(t, []int{1, 2, 3, 4}, pagesOf(in))
}

func TestApplyRerankWithoutOrderKeepsRanking(t *testing.T) {
	in := ranked(1, 0.9, 2, 0.8)

	assert.Equal(t, []int{1, 2}, pagesOf(ApplyRerank(in, nil)))
	assert.Equal(t, []int{1, 2}, pagesOf(ApplyRerank(in, []int{42})))
}

func TestHead(t *testing.T) {
	in := ranked(1, 0.9, 2, 0.8, 3, 0.7)

	assert.Equal(t, []int{1, 2}, pagesOf(Head(in, 2)))
	assert.Len(t, Head(in, 0), 3)
	assert.Len(t, Head(in, 5), 3)
}

func TestRerankHeadCannotPromoteUnseenPages(t *testing.T) {
	in := ranked(1, 0.9, 2, 0.8, 3, 0.7, 4, 0.6)

	out, applied := RerankHead(in, 2, []int{4, 3})
	assert.False(t, applied)
	assert.Equal(t, []int{1, 2, 3, 4}, pagesOf(out))

	out, applied = RerankHead(in, 2, []int{4, 2})
	assert.True(t, applied)
	assert.Equal(t, []int{2, 1, 3, 4}, pagesOf(out))
}
