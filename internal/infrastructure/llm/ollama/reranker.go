package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

// Reranker asks the generation model to order candidate pages by how well
// they answer the question.
type Reranker struct {
	client *Client
}

func NewReranker(client *Client) *Reranker {
	return &Reranker{client: client}
}

func (r *Reranker) Rerank(ctx context.Context, question string, passages []domain.Page) ([]int, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	raw, err := r.client.generateJSON(ctx, buildRerankPrompt(question, passages))
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Pages []int `json:"pages"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse rerank json: %w", err)
	}
	return parsed.Pages, nil
}
