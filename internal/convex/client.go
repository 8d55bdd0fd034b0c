// Package convex пересылает заявки в Convex через HTTP API мутаций.
package convex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agency-portal/internal/models"
)

type Client struct {
	baseURL   string
	deployKey string
	mutation  string
	http      *http.Client
}

func NewClient(baseURL, deployKey, mutation string) *Client {
	return &Client{
		baseURL:   baseURL,
		deployKey: deployKey,
		mutation:  mutation,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type mutationRequest struct {
	Path   string `json:"path"`
	Args   any    `json:"args"`
	Format string `json:"format"`
}

type mutationResponse struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"errorMessage"`
}

// Mutation вызывает функцию Convex и возвращает сырое значение результата.
func (c *Client) Mutation(ctx context.Context, path string, args any) (json.RawMessage, error) {
	body, err := json.Marshal(mutationRequest{Path: path, Args: args, Format: "json"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/mutation", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.deployKey != "" {
		req.Header.Set("Authorization", "Convex "+c.deployKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("convex request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var out mutationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("convex: unexpected response (%d): %s", resp.StatusCode, truncate(raw))
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		msg := out.ErrorMessage
		if msg == "" {
			msg = truncate(raw)
		}
		return nil, fmt.Errorf("convex mutation %s failed (%d): %s", path, resp.StatusCode, msg)
	}
	return out.Value, nil
}

// ForwardLead кладёт копию заявки в коллекцию контактов Convex.
func (c *Client) ForwardLead(ctx context.Context, lead *models.ContactSubmission) error {
	args := map[string]any{
		"name":       lead.Name,
		"email":      lead.Email,
		"phone":      lead.Phone,
		"company":    lead.Company,
		"message":    lead.Message,
		"status":     string(lead.Status),
		"source":     lead.Source,
		"externalId": lead.ID,
	}
	_, err := c.Mutation(ctx, c.mutation, args)
	return err
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
