package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/budgetbot/backend/internal/core/domain"
)

// Client talks to a Pinecone-style index over its HTTP data plane. The index
// computes embeddings server-side, so upserts and queries carry raw record
// text in place of vectors.
//
// A zero-configured client is a valid "unavailable" handle: Available
// reports false, Upsert is a no-op, Query returns no matches.
type Client struct {
	indexHost  string
	apiKey     string
	namespace  string
	httpClient *http.Client
}

func New(indexHost, apiKey, namespace string) *Client {
	return &Client{
		indexHost:  strings.TrimRight(indexHost, "/"),
		apiKey:     apiKey,
		namespace:  namespace,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Available() bool {
	return c != nil && c.indexHost != "" && c.apiKey != ""
}

type vectorRecord struct {
	ID       string         `json:"id"`
	Values   string         `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

func (c *Client) Upsert(ctx context.Context, expenses []domain.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	if !c.Available() {
		return nil
	}

	if _, err := domain.BatchUserID(expenses); err != nil {
		return err
	}

	vectors := make([]vectorRecord, 0, len(expenses))
	for _, e := range expenses {
		text := e.DocumentText()
		vectors = append(vectors, vectorRecord{
			ID:     e.Key(),
			Values: text,
			Metadata: map[string]any{
				"user_id":  e.UserID,
				"date":     e.Date,
				"category": e.Category,
				"amount":   e.Amount,
				"text":     text,
			},
		})
	}

	reqBody := map[string]any{
		"vectors":   vectors,
		"namespace": c.namespace,
	}
	return c.postJSON(ctx, "/vectors/upsert", reqBody, nil, "upsert")
}

func (c *Client) Query(
	ctx context.Context,
	text string,
	topK int,
	filter domain.FilterSet,
) ([]domain.Match, error) {
	if !c.Available() {
		return nil, nil
	}

	criteria := map[string]any{
		"user_id": map[string]any{"$eq": filter.UserID},
	}
	if filter.HasDateRange() {
		criteria["date"] = map[string]any{
			"$gte": filter.StartDate,
			"$lte": filter.EndDate,
		}
	}

	reqBody := map[string]any{
		"vector":          text,
		"topK":            topK,
		"filter":          criteria,
		"includeMetadata": true,
		"namespace":       c.namespace,
	}

	var queryResp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.postJSON(ctx, "/query", reqBody, &queryResp, "query"); err != nil {
		return nil, err
	}

	out := make([]domain.Match, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		out = append(out, domain.Match{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexHost+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return formatHTTPError(operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func formatHTTPError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("pinecone %s status: %s", operation, resp.Status)
	}
	return fmt.Errorf("pinecone %s status: %s: %s", operation, resp.Status, msg)
}
