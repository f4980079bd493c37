package retrieval

import (
	"sort"

	"github.com/kirillkom/medref-rag/internal/core/textnorm"
)

type fakeSource struct {
	texts   map[int]string
	vectors map[int][]float32
}

func newFakeSource() *fakeSource {
	return &fakeSource{texts: map[int]string{}, vectors: map[int][]float32{}}
}

func (f *fakeSource) with(page int, text string, vector ...float32) *fakeSource {
	f.texts[page] = text
	if len(vector) > 0 {
		f.vectors[page] = vector
	}
	return f
}

func (f *fakeSource) Numbers() []int {
	out := make([]int, 0, len(f.texts))
	for n := range f.texts {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (f *fakeSource) HasPage(n int) bool {
	_, ok := f.texts[n]
	return ok
}

func (f *fakeSource) Text(n int) (string, bool) {
	text, ok := f.texts[n]
	return text, ok
}

func (f *fakeSource) NormalizedText(n int) (string, bool) {
	text, ok := f.texts[n]
	if !ok {
		return "", false
	}
	return textnorm.Canonical(text), true
}

func (f *fakeSource) Embedding(n int) ([]float32, bool) {
	v, ok := f.vectors[n]
	return v, ok
}
