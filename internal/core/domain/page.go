package domain

// Page is one physical page of the reference textbook.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// PageEmbedding is the precomputed vector of a single page.
type PageEmbedding struct {
	Number int       `json:"number"`
	Vector []float32 `json:"vector"`
}
