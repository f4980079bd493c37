// Package retrieval implements scope selection, hybrid ranking, page
// selection and context assembly over an immutable corpus snapshot.
package retrieval

// PageSource is the read-only corpus view the pipeline works against.
type PageSource interface {
	// Numbers returns every page number in ascending order.
	Numbers() []int
	HasPage(number int) bool
	Text(number int) (string, bool)
	NormalizedText(number int) (string, bool)
	Embedding(number int) ([]float32, bool)
}
