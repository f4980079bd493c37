package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/infrastructure/resilience"
)

const (
	upsertBatch = 256
	scrollLimit = 256
)

// Client stores one point per textbook page, keyed by page number.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{Retry: resilience.RetryPolicy{MaxAttempts: 1}}, nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type point struct {
	ID      int            `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) UpsertEmbeddings(ctx context.Context, pages []domain.Page, vectors [][]float32) error {
	if len(pages) != len(vectors) {
		return fmt.Errorf("pages and vectors length mismatch: %d != %d", len(pages), len(vectors))
	}
	if len(pages) == 0 {
		return nil
	}
	size := len(vectors[0])
	if err := c.ensureCollection(ctx, size); err != nil {
		return err
	}

	for start := 0; start < len(pages); start += upsertBatch {
		end := min(start+upsertBatch, len(pages))
		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			if len(vectors[i]) != size {
				return domain.WrapError(domain.ErrDimensionMismatch, "qdrant upsert",
					fmt.Errorf("page %d has %d dimensions, collection has %d", pages[i].Number, len(vectors[i]), size))
			}
			points = append(points, point{
				ID:     pages[i].Number,
				Vector: vectors[i],
				Payload: map[string]any{
					"pagina": pages[i].Number,
					"text":   pages[i].Text,
				},
			})
		}
		path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
		if err := c.send(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert"); err != nil {
			return err
		}
	}
	return nil
}

// LoadEmbeddings scrolls the whole collection. Points without a usable page
// number are skipped.
func (c *Client) LoadEmbeddings(ctx context.Context) ([]domain.PageEmbedding, error) {
	var (
		out    []domain.PageEmbedding
		offset any
	)
	path := fmt.Sprintf("/collections/%s/points/scroll", c.collection)
	for {
		request := map[string]any{
			"limit":        scrollLimit,
			"with_payload": []string{"pagina"},
			"with_vector":  true,
		}
		if offset != nil {
			request["offset"] = offset
		}
		var response struct {
			Result struct {
				Points []struct {
					ID      any            `json:"id"`
					Vector  []float32      `json:"vector"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := c.send(ctx, http.MethodPost, path, request, &response, "scroll"); err != nil {
			return nil, err
		}
		for _, p := range response.Result.Points {
			number, ok := pageNumber(p.Payload["pagina"])
			if !ok {
				number, ok = pageNumber(p.ID)
			}
			if !ok || len(p.Vector) == 0 {
				continue
			}
			out = append(out, domain.PageEmbedding{Number: number, Vector: p.Vector})
		}
		if response.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = response.Result.NextPageOffset
	}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size: %d", vectorSize)
	}

	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()

	if c.ensuredCollection {
		if c.ensuredVectorSize != vectorSize {
			return domain.WrapError(domain.ErrDimensionMismatch, "qdrant ensure collection",
				fmt.Errorf("collection vector size %d, got %d", c.ensuredVectorSize, vectorSize))
		}
		return nil
	}

	payload := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.send(ctx, http.MethodPut, "/collections/"+c.collection, payload, nil, "ensure_collection")
	var statusErr *StatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}

	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal qdrant %s request: %w", operation, err)
	}
	err = c.executor.Execute(ctx, "qdrant_"+operation, func(ctx context.Context) error {
		return c.do(ctx, method, path, body, out, operation)
	}, classifyQdrantError)
	return wrapTemporaryIfNeeded("qdrant "+operation, err)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any, operation string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create qdrant %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode qdrant %s response: %w", operation, err)
	}
	return nil
}

func pageNumber(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n < 1 || n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
